package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores V as a JSON document in a TEXT column and marshals as V in API payloads.
type JSON[T any] struct {
	V T
}

func NewJSON[T any](v T) JSON[T] { return JSON[T]{V: v} }

func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON[T]) Scan(src any) error {
	var zero T
	var raw []byte
	switch s := src.(type) {
	case nil:
		j.V = zero
		return nil
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return fmt.Errorf("json column: unsupported type %T", src)
	}
	if len(raw) == 0 {
		j.V = zero
		return nil
	}
	return json.Unmarshal(raw, &j.V)
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j *JSON[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.V)
}
