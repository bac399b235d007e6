package draft

import (
	"fmt"
	"strings"
	"time"
)

var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseCivil reads a start or due entry as a wall-clock reading in loc.
// Values carrying an offset are first moved into loc. An empty value
// returns nil, which clears the field.
func ParseCivil(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.In(loc)
		return &t, nil
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date or time %q: use YYYY-MM-DD or YYYY-MM-DDTHH:MM", value)
}
