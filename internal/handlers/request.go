package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

var errInvalidDate = errors.New("invalid date, expected RFC3339 or YYYY-MM-DD")

// flexID accepts a user ID sent either as a JSON number or a numeric string.
type flexID uint64

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}

	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return errors.New("invalid user id")
	}
	*id = flexID(v)
	return nil
}

// parseDate accepts full timestamps and plain dates from date pickers.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInvalidDate
}
