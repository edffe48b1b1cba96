package domain

import "encoding/json"

// Field is a tri-state string used by partial updates: absent, explicit
// null, or a value. Absent fields decode only when the JSON key is missing.
type Field struct {
	Set   bool
	Valid bool
	Value string
}

func Value(s string) Field {
	return Field{Set: true, Valid: true, Value: s}
}

func Null() Field {
	return Field{Set: true}
}

// FromPtr maps nil to an explicit null.
func FromPtr(s *string) Field {
	if s == nil {
		return Null()
	}
	return Value(*s)
}

func (f Field) IsZero() bool {
	return !f.Set
}

// Ptr returns nil for absent and null fields.
func (f Field) Ptr() *string {
	if !f.Set || !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Present reports whether the field carries a non-empty value.
func (f Field) Present() bool {
	return f.Set && f.Valid && f.Value != ""
}

func (f *Field) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Valid = false
		f.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Set || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
