package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a nullable date column. Drivers hand back either a time.Time
// (DATE / DATETIME columns) or text; text is kept verbatim.
type Date struct {
	Time  time.Time
	Text  string
	Valid bool
}

// Scan implements sql.Scanner.
func (d *Date) Scan(value any) error {
	*d = Date{}
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		d.Time, d.Valid = v, true
	case string:
		d.Text, d.Valid = v, true
	case []byte:
		d.Text, d.Valid = string(v), true
	default:
		return fmt.Errorf("date: unsupported source type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

// String returns the canonical text form: YYYY-MM-DD for values without a
// clock component, RFC 3339 otherwise.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	if d.Text != "" || d.Time.IsZero() {
		return d.Text
	}
	h, m, s := d.Time.Clock()
	if h == 0 && m == 0 && s == 0 && d.Time.Nanosecond() == 0 {
		return d.Time.Format(time.DateOnly)
	}
	return d.Time.Format(time.RFC3339)
}

// MarshalJSON emits null for SQL NULL and a JSON string otherwise.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
