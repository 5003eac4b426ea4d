package sqlstore

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// stringList stores a []string as a JSON array in a TEXT column.
type stringList []string

func (s *stringList) Scan(src any) error {
	if src == nil {
		*s = []string{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into stringList", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("sqlstore: decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*s = out
	return nil
}

func (s stringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
