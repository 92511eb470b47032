package rooms

import (
	"log/slog"
	"time"

	"github.com/ggoodman/roomsync-go/storage"
	"github.com/ggoodman/roomsync-go/storage/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ggoodman/roomsync-go/rooms"

// Option configures a Registry.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	opener         storage.Opener
	resolver       KeyResolver
	policy         SyncPolicy
	clock          func() time.Time
	tracerProvider trace.TracerProvider
}

func defaultConfig() *config {
	return &config{
		logger:   slog.Default(),
		opener:   sqlite.Opener(),
		resolver: WidgetKeys{},
		policy:   PrefixPolicy{},
		clock:    time.Now,
	}
}

// WithLogger sets the logger used by the registry and its rooms. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOpener sets how AttachDurableStore opens a durable store. Defaults to
// the sqlite store.
func WithOpener(o storage.Opener) Option {
	return func(c *config) { c.opener = o }
}

// WithKeyResolver replaces the default WidgetKeys resolver.
func WithKeyResolver(r KeyResolver) Option {
	return func(c *config) { c.resolver = r }
}

// WithSyncPolicy replaces the default PrefixPolicy.
func WithSyncPolicy(p SyncPolicy) Option {
	return func(c *config) { c.policy = p }
}

// WithClock overrides the time source used to stamp room updates.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

func (c *config) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}
