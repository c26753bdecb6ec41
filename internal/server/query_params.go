package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

func parseSnowflakeIDs(values []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(values))
	for _, value := range values {
		id, err := parseOptionalSnowflakeID(value)
		if err != nil {
			return nil, err
		}
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids, nil
}

// parseOptionalTime accepts RFC3339 or a bare date. Bare dates become the
// start or end of that UTC day.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

// parseDate accepts a bare date or an RFC3339 timestamp and keeps only the
// calendar day.
func parseDate(value string) (*time.Time, error) {
	parsed, err := parseOptionalTime(value, false)
	if err != nil || parsed == nil {
		return parsed, err
	}
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// nullableDate distinguishes an absent JSON field from an explicit null.
type nullableDate struct {
	Set   bool
	Value string
}

func (d *nullableDate) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Value = ""
		return nil
	}
	return json.Unmarshal(data, &d.Value)
}

// flexibleBool accepts JSON booleans and the strings "true"/"false".
type flexibleBool struct {
	Set   bool
	Value bool
}

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case bool:
		b.Set, b.Value = true, typed
	case string:
		parsed, err := parseOptionalBool(typed)
		if err != nil {
			return err
		}
		if parsed != nil {
			b.Set, b.Value = true, *parsed
		}
	default:
		return errors.New("invalid_bool")
	}
	return nil
}

func (b flexibleBool) ptr() *bool {
	if !b.Set {
		return nil
	}
	value := b.Value
	return &value
}
