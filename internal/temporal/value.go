package temporal

import (
	"encoding/json"
	"fmt"
	"time"
)

// dateLayout is the civil-date layout used for date-only values
const dateLayout = "2006-01-02"

// Value is an instant tagged with whether it carries a time of day.
// A date-only value keeps its civil date at midnight of its zone and is
// compared and converted by that date, never by the absolute instant.
type Value struct {
	t        time.Time
	dateOnly bool
}

// Timed returns a value carrying the full instant t
func Timed(t time.Time) Value {
	return Value{t: t}
}

// Date returns a date-only value for the given civil date anchored in loc
func Date(year int, month time.Month, day int, loc *time.Location) Value {
	if loc == nil {
		loc = time.UTC
	}
	return Value{t: time.Date(year, month, day, 0, 0, 0, 0, loc), dateOnly: true}
}

// DateOf returns the date-only value for the civil date t shows in its own location
func DateOf(t time.Time) Value {
	y, m, d := t.Date()
	return Date(y, m, d, t.Location())
}

// ToZoned converts a wall-clock reading into a Value. Without includeTime
// the time of day is dropped and the civil date is kept. With includeTime
// the reading is interpreted in local.
func ToZoned(civil time.Time, includeTime bool, local *time.Location) Value {
	if local == nil {
		local = time.Local
	}
	y, m, d := civil.Date()
	if !includeTime {
		return Date(y, m, d, local)
	}
	hh, mm, ss := civil.Clock()
	return Timed(time.Date(y, m, d, hh, mm, ss, civil.Nanosecond(), local))
}

// Now returns the current instant expressed in zone. Always timed.
func Now(zone Zone) Value {
	return Timed(time.Now().In(zone.Location()))
}

// Convert re-expresses v in zone. Timed values translate the instant;
// date-only values keep their civil date.
func (v Value) Convert(zone Zone) Value {
	if v.IsZero() {
		return v
	}
	loc := zone.Location()
	if v.dateOnly {
		y, m, d := v.t.Date()
		return Date(y, m, d, loc)
	}
	return Timed(v.t.In(loc))
}

// IsZero reports whether v holds no instant
func (v Value) IsZero() bool {
	return v.t.IsZero()
}

// IsDate reports whether v is date-only
func (v Value) IsDate() bool {
	return v.dateOnly
}

// Time returns the underlying instant. For date-only values this is
// midnight of the civil date in the value's location.
func (v Value) Time() time.Time {
	return v.t
}

// Location returns the zone the value is expressed in
func (v Value) Location() *time.Location {
	return v.t.Location()
}

// CivilDate returns the calendar date of v in its own location
func (v Value) CivilDate() (int, time.Month, int) {
	return v.t.Date()
}

// Compare returns -1, 0 or +1. Two date-only values compare by civil date.
// A mixed pair compares the date-only side as midnight in its zone.
func (v Value) Compare(o Value) int {
	if v.dateOnly && o.dateOnly {
		ay, am, ad := v.t.Date()
		by, bm, bd := o.t.Date()
		a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
		b := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
		return a.Compare(b)
	}
	return v.t.Compare(o.t)
}

// Equal reports whether v and o represent the same value of the same kind
func (v Value) Equal(o Value) bool {
	return v.dateOnly == o.dateOnly && v.Compare(o) == 0
}

// Sub returns the displacement v - o. Between two date-only values it is a
// whole number of civil days expressed as 24h multiples.
func (v Value) Sub(o Value) time.Duration {
	if v.dateOnly && o.dateOnly {
		return time.Duration(v.DaysSince(o)) * 24 * time.Hour
	}
	return v.t.Sub(o.t)
}

// DaysSince returns the number of civil days from o to v
func (v Value) DaysSince(o Value) int {
	ay, am, ad := v.t.Date()
	by, bm, bd := o.t.Date()
	a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	b := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// Shift moves v by d. Date-only values move by whole civil days so a DST
// transition never rolls the date.
func (v Value) Shift(d time.Duration) Value {
	if v.dateOnly {
		days := int(d / (24 * time.Hour))
		return DateOf(v.t.AddDate(0, 0, days))
	}
	return Timed(v.t.Add(d))
}

func (v Value) String() string {
	if v.IsZero() {
		return ""
	}
	if v.dateOnly {
		return v.t.Format(dateLayout)
	}
	return v.t.Format(time.RFC3339)
}

type valueJSON struct {
	Value    string `json:"value"`
	DateOnly bool   `json:"date_only"`
	Zone     string `json:"zone,omitempty"`
}

// MarshalJSON encodes v with its zone name so date-only values survive a round trip
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(valueJSON{
		Value:    v.String(),
		DateOnly: v.dateOnly,
		Zone:     v.t.Location().String(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode temporal value: %w", err)
	}
	loc := time.UTC
	if raw.Zone != "" {
		if l, err := time.LoadLocation(raw.Zone); err == nil {
			loc = l
		}
	}
	if raw.DateOnly {
		t, err := time.ParseInLocation(dateLayout, raw.Value, loc)
		if err != nil {
			return fmt.Errorf("failed to parse date %q: %w", raw.Value, err)
		}
		*v = DateOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw.Value)
	if err != nil {
		return fmt.Errorf("failed to parse instant %q: %w", raw.Value, err)
	}
	*v = Timed(t.In(loc))
	return nil
}
