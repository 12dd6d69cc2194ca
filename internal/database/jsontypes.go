package database

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// JSONList is a list stored as a JSON array column (JSONB on PostgreSQL,
// TEXT on SQLite). A nil list is stored as NULL.
type JSONList[T any] []T

// Value implements driver.Valuer.
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *JSONList[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]T)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]T)(l))
	default:
		return fmt.Errorf("cannot scan %T into JSONList", src)
	}
}

// Contains reports whether v is in the list.
func Contains[T comparable](l JSONList[T], v T) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

// JSONObject is a JSON object column.
type JSONObject map[string]any

// Value implements driver.Valuer.
func (o JSONObject) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	data, err := json.Marshal(map[string]any(o))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (o *JSONObject) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*map[string]any)(o))
	case string:
		return json.Unmarshal([]byte(v), (*map[string]any)(o))
	default:
		return fmt.Errorf("cannot scan %T into JSONObject", src)
	}
}
