package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONInt64Slice is an id list that round-trips through both JSON and SQL
// columns, need to implements driver.Valuer, sql.Scanner interface
type JSONInt64Slice []int64

// Value return json value, implement driver.Valuer interface
func (s JSONInt64Slice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	ba, err := s.MarshalJSON()
	return string(ba), err
}

// Scan scan value into the slice, implements sql.Scanner interface
func (s *JSONInt64Slice) Scan(val interface{}) error {
	var ba []byte
	switch v := val.(type) {
	case []byte:
		ba = v
	case string:
		ba = []byte(v)
	case nil:
		*s = nil
		return nil
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", val))
	}
	t := make([]int64, 0)
	err := json.Unmarshal(ba, &t)
	*s = JSONInt64Slice(t)
	return err
}

func (s JSONInt64Slice) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]int64(s))
}

func (s *JSONInt64Slice) UnmarshalJSON(b []byte) error {
	t := make([]int64, 0)
	err := json.Unmarshal(b, &t)
	*s = JSONInt64Slice(t)
	return err
}
