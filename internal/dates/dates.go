// internal/dates/dates.go
package dates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Format is the presentation layout for calendar dates ("Mon DD, YYYY").
const Format = "Jan 02, 2006"

// isoFormat is how Postgres returns DATE columns as text.
const isoFormat = "2006-01-02"

// Date is a calendar date with day precision, stored as a DATE column and
// presented to callers in the Format layout.
type Date struct {
	t time.Time
}

// New builds a Date from its components.
func New(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	return FromTime(time.Now())
}

// FromTime truncates a timestamp to its calendar date.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Parse accepts the presentation layout and the ISO date layout.
func Parse(s string) (Date, error) {
	for _, layout := range []string{Format, isoFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.t.AddDate(0, 0, n)}
}

func (d Date) Time() time.Time    { return d.t }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) String() string {
	return d.t.Format(Format)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so a Date can be bound as a DATE parameter.
func (d Date) Value() (driver.Value, error) {
	return d.t, nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = FromTime(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into dates.Date", src)
	}
}

func (d *Date) scanString(s string) error {
	t, err := time.Parse(isoFormat, s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = FromTime(t)
	return nil
}
