package json

import "errors"

// Message is a raw JSON value whose decoding is deferred, for fields whose
// shape varies between records.
type Message []byte

// MarshalJSON returns m, or null when m is empty.
func (m Message) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return m, nil
}

// UnmarshalJSON stores a copy of data.
func (m *Message) UnmarshalJSON(data []byte) error {
	if m == nil {
		return errors.New("json.Message: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[:0], data...)
	return nil
}

// IsNull reports whether m is empty or the JSON null literal.
func (m Message) IsNull() bool {
	return len(m) == 0 || string(m) == "null"
}

// Decode unmarshals m into v.
func (m Message) Decode(v any) error {
	return Unmarshal(m, v)
}
