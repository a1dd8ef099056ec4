package search

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Params is a decoded search string: key to structured value.
// Values are strings, float64s, bools, nil, nested map[string]any,
// or []any, matching encoding/json's untyped decoding.
type Params map[string]any

// Codec parses and serializes the search portion of a URL.
// Implementations must round-trip: Parse(Serialize(p)) deep-equals p
// for every value shape listed on Params.
type Codec interface {
	Parse(search string) (Params, error)
	Serialize(params Params) (string, error)
}

// JSONCodec is the default codec. Each query value that parses as a
// JSON literal, object, or array is decoded structurally; anything
// else is kept as a plain string. Serialization is the inverse:
// strings are written bare, everything else as JSON.
type JSONCodec struct{}

// NewJSONCodec returns the default search codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Parse decodes a search string. A leading "?" is tolerated.
func (c *JSONCodec) Parse(search string) (Params, error) {
	search = strings.TrimPrefix(search, "?")
	if search == "" {
		return Params{}, nil
	}

	values, err := url.ParseQuery(search)
	if err != nil {
		return nil, err
	}

	params := make(Params, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		// Last value wins for repeated keys.
		params[key] = decodeValue(vals[len(vals)-1])
	}
	return params, nil
}

// Serialize encodes params back into a search string without the
// leading "?". Keys are emitted in sorted order so output is stable.
func (c *JSONCodec) Serialize(params Params) (string, error) {
	if len(params) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		encoded, err := encodeValue(params[key])
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(encoded))
	}
	return sb.String(), nil
}

// decodeValue attempts structural JSON decoding, falling back to the
// raw string.
func decodeValue(raw string) any {
	if raw == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// encodeValue is the inverse of decodeValue.
func encodeValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		// A string that would decode as non-string JSON must be
		// quoted to survive the round trip (e.g. "true", "42").
		var probe any
		if err := json.Unmarshal([]byte(s), &probe); err != nil {
			return s, nil
		}
		if decoded, ok := probe.(string); ok && decoded == s {
			return s, nil
		}
		b, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
