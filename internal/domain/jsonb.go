package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap maps between Go's map[string]any and PostgreSQL's JSONB type.
type JSONBMap map[string]any

// Scan implements the sql.Scanner interface.
func (j *JSONBMap) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if data == nil {
		*j = nil
		return nil
	}
	if len(data) == 0 {
		*j = JSONBMap{}
		return nil
	}
	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface.
func (j JSONBMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// JSONBStrings maps between a []string and a JSONB array column.
type JSONBStrings []string

// Scan implements the sql.Scanner interface.
func (j *JSONBStrings) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if data == nil || len(data) == 0 {
		*j = nil
		return nil
	}
	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface.
func (j JSONBStrings) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(j)
}

// JSONBScores maps between criterion score maps and a JSONB column.
type JSONBScores map[string]float64

// Scan implements the sql.Scanner interface.
func (j *JSONBScores) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if data == nil || len(data) == 0 {
		*j = JSONBScores{}
		return nil
	}
	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface.
func (j JSONBScores) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// jsonbBytes normalizes a scanned JSONB value to raw bytes.
func jsonbBytes(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, errors.New("unsupported type for JSONB column")
	}
}
