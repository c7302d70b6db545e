package handler

import (
	"encoding/json"
	"time"
)

// pinDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date, which
// is read as midnight UTC.
type pinDate time.Time

func (d *pinDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &time.ParseError{Layout: time.RFC3339, Value: string(data), Message: ": date must be a string"}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		day, dayErr := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if dayErr != nil {
			return err
		}
		t = day
	}
	*d = pinDate(t)
	return nil
}

func (d *pinDate) value() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}
