package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// scanJSON decodes a JSON column. mysql hands back []byte, sqlite may hand back string.
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("failed to unmarshal JSON value")
	}
}

// StringArray stores answers and tags as a JSON array.
type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	return scanJSON(value, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	return string(b), err
}

// QuestionOption is one choice of a question. Pair is the right-hand side
// of a match-the-following row.
type QuestionOption struct {
	Option string `json:"option"`
	Pair   string `json:"pair,omitempty"`
}

type QuestionOptions []QuestionOption

func (o *QuestionOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	return scanJSON(value, o)
}

func (o QuestionOptions) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal(o)
	return string(b), err
}

// Texts returns the option texts in order.
func (o QuestionOptions) Texts() []string {
	out := make([]string, len(o))
	for i, opt := range o {
		out[i] = opt.Option
	}
	return out
}

// jsonValue marshals v for a driver.Valuer.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONMap stores free-form gateway data.
type JSONMap map[string]interface{}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return jsonValue(m)
}
