package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a loosely structured JSON object stored in a JSONB column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONMap source %T", src)
	}
	out := JSONMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode JSONMap: %w", err)
		}
	}
	*m = out
	return nil
}

// Clone returns a deep copy via a JSON round trip.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return JSONMap{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return JSONMap{}
	}
	out := JSONMap{}
	_ = json.Unmarshal(raw, &out)
	return out
}
