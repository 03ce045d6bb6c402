package device

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Buffer is the tagged byte-array representation the ComfortControl wire
// protocol uses for binary values:
//
//	{"type": "Buffer", "data": [0, 26, 43, 60, 77, 94]}
type Buffer []byte

// MarshalJSON encodes the buffer in its tagged wire form.
func (b Buffer) MarshalJSON() ([]byte, error) {
	data := make([]int, len(b))
	for i, v := range b {
		data[i] = int(v)
	}
	return json.Marshal(map[string]any{
		"type": "Buffer",
		"data": data,
	})
}

// UnmarshalJSON decodes either the tagged object form or a plain hex string.
func (b *Buffer) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type string `json:"type"`
		Data []int  `json:"data"`
	}
	if err := json.Unmarshal(data, &tagged); err == nil && tagged.Type == "Buffer" {
		buf := make(Buffer, len(tagged.Data))
		for i, v := range tagged.Data {
			if v < 0 || v > 255 {
				return fmt.Errorf("buffer byte %d out of range: %d", i, v)
			}
			buf[i] = byte(v)
		}
		*b = buf
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("not a buffer value: %s", string(data))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex buffer %q: %w", s, err)
	}
	*b = Buffer(decoded)
	return nil
}

// bufferFromValue extracts a byte slice from a decoded JSON value holding
// either the tagged form or a hex string. Returns nil if the value is
// neither.
func bufferFromValue(v any) Buffer {
	switch typed := v.(type) {
	case Buffer:
		return typed
	case string:
		decoded, err := hex.DecodeString(typed)
		if err != nil {
			return nil
		}
		return Buffer(decoded)
	case map[string]any:
		if typed["type"] != "Buffer" {
			return nil
		}
		raw, ok := typed["data"].([]any)
		if !ok {
			return nil
		}
		buf := make(Buffer, 0, len(raw))
		for _, item := range raw {
			// JSON numbers decode as float64
			num, ok := item.(float64)
			if !ok || num < 0 || num > 255 {
				return nil
			}
			buf = append(buf, byte(num))
		}
		return buf
	}
	return nil
}

// NormalizeID canonicalizes a device identifier: separators stripped,
// uppercase hex. "00:1a:2b:3c:4d:5e" and "001A2B3C4D5E" normalize to the
// same value.
func NormalizeID(id string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(id)))
}

// DecodeIdentifier normalizes a wire-form device identifier (hex string or
// tagged buffer) to its canonical 12-character uppercase hex form.
// The second return value reports whether the value could be decoded at all.
func DecodeIdentifier(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return NormalizeID(typed), true
	case Buffer:
		return strings.ToUpper(hex.EncodeToString(typed)), true
	case map[string]any:
		buf := bufferFromValue(typed)
		if buf == nil {
			return "", false
		}
		return strings.ToUpper(hex.EncodeToString(buf)), true
	}
	return "", false
}

// EncodeIdentifier converts a canonical identifier into its buffer form for
// the wire. The identifier must be valid hex of even length.
func EncodeIdentifier(id string) (Buffer, error) {
	decoded, err := hex.DecodeString(NormalizeID(id))
	if err != nil {
		return nil, fmt.Errorf("invalid device identifier %q: %w", id, err)
	}
	return Buffer(decoded), nil
}
