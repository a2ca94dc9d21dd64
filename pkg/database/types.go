package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray stores a string list as a JSON text column so the same schema
// works on PostgreSQL, MySQL and SQLite. The JSON form keeps each element
// quoted, which is portable across drivers; LIKE matching uses a separate plain-text column.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from the database.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanText(string(v))
	case string:
		return a.scanText(v)
	default:
		return fmt.Errorf("StringArray: unsupported scan type %T", value)
	}
}

func (a *StringArray) scanText(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "null":
		*a = StringArray{}
		return nil
	case strings.HasPrefix(s, "["):
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return fmt.Errorf("StringArray: %w", err)
		}
		*a = out
		return nil
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		// Rows written by a native TEXT[] column before the JSON layout.
		*a = parsePostgresArray(strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}"))
		return nil
	default:
		*a = StringArray{s}
		return nil
	}
}

// parsePostgresArray parses PostgreSQL array format, handling quoted strings.
func parsePostgresArray(s string) []string {
	result := []string{}
	if s == "" {
		return result
	}

	var current strings.Builder
	inQuotes := false
	escaped := false

	for _, r := range s {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '"':
			inQuotes = !inQuotes
		case ',':
			if inQuotes {
				current.WriteRune(r)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	return append(result, current.String())
}

// Value implements the driver.Valuer interface. A nil array is stored as "[]".
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}
