package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/pimtask/internal/temporal"
	"github.com/teambition/rrule-go"
)

// Frequency is the base unit a rule advances by
type Frequency string

const (
	FrequencySecondly Frequency = "SECONDLY"
	FrequencyMinutely Frequency = "MINUTELY"
	FrequencyHourly   Frequency = "HOURLY"
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyYearly   Frequency = "YEARLY"
)

// Valid reports whether f is one of the known frequencies
func (f Frequency) Valid() bool {
	_, err := f.rrule()
	return err == nil
}

func (f Frequency) rrule() (rrule.Frequency, error) {
	switch f {
	case FrequencySecondly:
		return rrule.SECONDLY, nil
	case FrequencyMinutely:
		return rrule.MINUTELY, nil
	case FrequencyHourly:
		return rrule.HOURLY, nil
	case FrequencyDaily:
		return rrule.DAILY, nil
	case FrequencyWeekly:
		return rrule.WEEKLY, nil
	case FrequencyMonthly:
		return rrule.MONTHLY, nil
	case FrequencyYearly:
		return rrule.YEARLY, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", string(f))
	}
}

// Rule is a recurrence rule. A rule without Count or Until recurs
// indefinitely. Count is the number of occurrences left in the series,
// the current one included.
type Rule struct {
	Frequency  Frequency       `json:"freq" yaml:"freq" validate:"required,rrule_freq"`
	Interval   int             `json:"interval" yaml:"interval" validate:"min=1"`
	Count      int             `json:"count,omitempty" yaml:"count,omitempty" validate:"min=0"`
	Until      *temporal.Value `json:"until,omitempty" yaml:"-"`
	ByDay      []string        `json:"byday,omitempty" yaml:"byday,omitempty" validate:"dive,required"`
	ByMonthDay []int           `json:"bymonthday,omitempty" yaml:"bymonthday,omitempty" validate:"dive,min=-31,max=31,ne=0"`
	ByMonth    []int           `json:"bymonth,omitempty" yaml:"bymonth,omitempty" validate:"dive,min=1,max=12"`
	BySetPos   []int           `json:"bysetpos,omitempty" yaml:"bysetpos,omitempty" validate:"dive,min=-366,max=366,ne=0"`
	WeekStart  string          `json:"wkst,omitempty" yaml:"wkst,omitempty" validate:"omitempty,oneof=MO TU WE TH FR SA SU"`
}

// Default is the rule attached when recurrence is switched on
func Default() Rule {
	return Rule{Frequency: FrequencyWeekly, Interval: 1}
}

// Clone returns a deep copy of r
func (r Rule) Clone() Rule {
	out := r
	if r.Until != nil {
		until := *r.Until
		out.Until = &until
	}
	out.ByDay = slices.Clone(r.ByDay)
	out.ByMonthDay = slices.Clone(r.ByMonthDay)
	out.ByMonth = slices.Clone(r.ByMonth)
	out.BySetPos = slices.Clone(r.BySetPos)
	return out
}

// Terminates reports whether the series has an end condition
func (r Rule) Terminates() bool {
	return r.Count > 0 || (r.Until != nil && !r.Until.IsZero())
}

// Successor returns the rule carried by the next occurrence
func (r Rule) Successor() Rule {
	out := r.Clone()
	if out.Count > 1 {
		out.Count--
	}
	return out
}

// String renders the rule as an RRULE value without the "RRULE:" prefix
func (r Rule) String() string {
	parts := []string{"FREQ=" + string(r.Frequency)}
	if r.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}
	if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	}
	if r.Until != nil && !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+formatUntil(*r.Until))
	}
	if len(r.ByDay) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(r.ByDay, ","))
	}
	if len(r.ByMonthDay) > 0 {
		parts = append(parts, "BYMONTHDAY="+joinInts(r.ByMonthDay))
	}
	if len(r.ByMonth) > 0 {
		parts = append(parts, "BYMONTH="+joinInts(r.ByMonth))
	}
	if len(r.BySetPos) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(r.BySetPos))
	}
	if r.WeekStart != "" {
		parts = append(parts, "WKST="+r.WeekStart)
	}
	return strings.Join(parts, ";")
}

// Parse reads an RRULE value. Date-only UNTIL values stay date-only and
// are anchored in loc; timed ones are kept in UTC as written.
func Parse(value string, loc *time.Location) (Rule, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "RRULE:")
	if value == "" {
		return Rule{}, fmt.Errorf("empty recurrence rule")
	}

	opt, err := rrule.StrToROptionInLocation(value, loc)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to parse recurrence rule: %w", err)
	}

	out := Rule{
		Frequency:  Frequency(strings.ToUpper(fieldValue(value, "FREQ"))),
		Interval:   opt.Interval,
		Count:      opt.Count,
		ByMonthDay: opt.Bymonthday,
		ByMonth:    opt.Bymonth,
		BySetPos:   opt.Bysetpos,
		WeekStart:  strings.ToUpper(fieldValue(value, "WKST")),
	}
	if out.Interval <= 0 {
		out.Interval = 1
	}
	for i := range opt.Byweekday {
		wd := opt.Byweekday[i]
		out.ByDay = append(out.ByDay, wd.String())
	}
	if raw := fieldValue(value, "UNTIL"); raw != "" {
		until, err := parseUntil(raw, loc)
		if err != nil {
			return Rule{}, err
		}
		out.Until = &until
	}
	if !out.Frequency.Valid() {
		return Rule{}, fmt.Errorf("unknown frequency in %q", value)
	}
	return out, nil
}

// options builds the rrule-go options for a series anchored at dtstart.
// Count and Until are left out; Next applies them itself.
func (r Rule) options(dtstart time.Time) (*rrule.ROption, error) {
	open := r.Clone()
	open.Count = 0
	open.Until = nil

	opt, err := rrule.StrToROptionInLocation(open.String(), dtstart.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", open.String(), err)
	}
	opt.Dtstart = dtstart
	if opt.Interval <= 0 {
		opt.Interval = 1
	}
	return opt, nil
}

func formatUntil(v temporal.Value) string {
	if v.IsDate() {
		return v.Time().Format("20060102")
	}
	return v.Time().UTC().Format("20060102T150405Z")
}

func parseUntil(raw string, loc *time.Location) (temporal.Value, error) {
	if !strings.Contains(raw, "T") {
		t, err := time.ParseInLocation("20060102", raw, loc)
		if err != nil {
			return temporal.Value{}, fmt.Errorf("failed to parse UNTIL %q: %w", raw, err)
		}
		return temporal.DateOf(t), nil
	}
	if strings.HasSuffix(raw, "Z") {
		t, err := time.Parse("20060102T150405Z", raw)
		if err != nil {
			return temporal.Value{}, fmt.Errorf("failed to parse UNTIL %q: %w", raw, err)
		}
		return temporal.Timed(t), nil
	}
	t, err := time.ParseInLocation("20060102T150405", raw, loc)
	if err != nil {
		return temporal.Value{}, fmt.Errorf("failed to parse UNTIL %q: %w", raw, err)
	}
	return temporal.Timed(t), nil
}

func fieldValue(value, key string) string {
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(part, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
