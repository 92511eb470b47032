package rooms

import "errors"

var (
	// ErrConfigurationConflict is returned when a room already stored at one
	// location is asked to attach to another.
	ErrConfigurationConflict = errors.New("rooms: configuration conflict")
	// ErrNotImplemented is returned by operations that are declared but not
	// supported, such as room deletion. It is never a silent success.
	ErrNotImplemented = errors.New("rooms: not implemented")
	// ErrInvalidRoomName is returned when a room name cannot be used as a
	// storage path component.
	ErrInvalidRoomName = errors.New("rooms: invalid room name")
)
