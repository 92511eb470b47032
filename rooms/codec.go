package rooms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// encodeValue returns the canonical JSON form of v. Values are round-tripped
// through a generic decode so that, for example, a struct and the map it
// decodes to, or int 1 and float64 1, encode identically.
func encodeValue(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func decodeValues(raw map[string][]byte) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for key, data := range raw {
		v, err := decodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("decode value for key %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// decodeValue decodes a stored value so that encodeValue reproduces data
// exactly. Numbers become float64 when that is lossless, int64 when they are
// integers float64 cannot hold, and json.Number otherwise.
func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		return numberValue(v)
	case map[string]any:
		for k, e := range v {
			v[k] = normalizeNumbers(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalizeNumbers(e)
		}
		return v
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	if f, err := n.Float64(); err == nil {
		if b, err := json.Marshal(f); err == nil && string(b) == n.String() {
			return f
		}
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	return n
}
