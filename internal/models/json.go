package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a flexible metadata column. Purchase entries keep the raw provider
// response here so ambiguous failures can be reconciled by hand.
type JSON map[string]interface{}

// NewJSON copies m into a JSON value, returning nil for empty input.
func NewJSON(m map[string]interface{}) JSON {
	if len(m) == 0 {
		return nil
	}
	out := make(JSON, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("unsupported JSON column type")
	}
}
