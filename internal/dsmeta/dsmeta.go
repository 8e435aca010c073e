// Package dsmeta encodes and decodes the dataset metadata document that
// trajectory parquet files carry under their embedded "dataset_meta" key.
//
// Metadata is a JSON object: values are strings, numbers, booleans, null,
// nested objects, or arrays. Numbers are kept as json.Number so that the
// textual value survives a decode/encode cycle without precision loss.
package dsmeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMetadata reports metadata text that is not a valid JSON
// object. Match with errors.Is.
var ErrMalformedMetadata = errors.New("malformed metadata")

// Metadata is the dataset metadata mapping. Values are the JSON union:
// string, json.Number, bool, nil, map[string]any, []any.
type Metadata map[string]any

// Decode parses a JSON document into a Metadata mapping. The top-level
// value must be an object; anything else, or any syntax error, returns
// ErrMalformedMetadata.
func Decode(text []byte) (Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformedMetadata)
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %T, want object", ErrMalformedMetadata, raw)
	}
	return Metadata(m), nil
}

// Encode produces the canonical text form of m: compact JSON with object
// keys in sorted order and no HTML escaping, so the output stays
// human-editable and deterministic for identical mappings.
func Encode(m Metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(m)); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	// Encoder appends a newline; the embedded header carries none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FromHeader decodes the raw metadata string extracted from a parquet
// file header. An absent or empty header means the file carries no
// metadata and yields an empty mapping rather than an error.
func FromHeader(raw string) (Metadata, error) {
	if strings.TrimSpace(raw) == "" {
		return Metadata{}, nil
	}
	return Decode([]byte(raw))
}

// String returns a nested string value by key, with ok reporting whether
// the key exists and holds a string.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Float returns a numeric value by key as float64.
func (m Metadata) Float(key string) (float64, bool) {
	n, ok := m[key].(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// StringMap returns a nested object value by key as a string-to-string
// mapping. Non-string values inside the object are skipped.
func (m Metadata) StringMap(key string) (map[string]string, bool) {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, isStr := v.(string); isStr {
			out[k] = s
		}
	}
	return out, true
}
