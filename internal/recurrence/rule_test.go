package recurrence

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		value       string
		expectError bool
		validate    func(*testing.T, Rule)
	}{
		{
			name:  "weekly default interval",
			value: "FREQ=WEEKLY",
			validate: func(t *testing.T, r Rule) {
				if r.Frequency != FrequencyWeekly || r.Interval != 1 {
					t.Errorf("Expected WEEKLY/1, got %s/%d", r.Frequency, r.Interval)
				}
				if r.Terminates() {
					t.Error("Expected rule without termination")
				}
			},
		},
		{
			name:  "prefix and by-x parts",
			value: "RRULE:FREQ=MONTHLY;INTERVAL=2;COUNT=5;BYDAY=MO,-1FR;BYMONTH=1,6",
			validate: func(t *testing.T, r Rule) {
				if r.Interval != 2 || r.Count != 5 {
					t.Errorf("Expected interval 2 count 5, got %d %d", r.Interval, r.Count)
				}
				if len(r.ByDay) != 2 || r.ByDay[0] != "MO" || r.ByDay[1] != "-1FR" {
					t.Errorf("Expected BYDAY [MO -1FR], got %v", r.ByDay)
				}
				if len(r.ByMonth) != 2 {
					t.Errorf("Expected 2 BYMONTH values, got %v", r.ByMonth)
				}
			},
		},
		{
			name:  "date-only until stays date-only",
			value: "FREQ=DAILY;UNTIL=20240108",
			validate: func(t *testing.T, r Rule) {
				if r.Until == nil || !r.Until.IsDate() {
					t.Fatalf("Expected date-only until, got %v", r.Until)
				}
				if y, m, d := r.Until.CivilDate(); y != 2024 || m != time.January || d != 8 {
					t.Errorf("Expected 2024-01-08, got %04d-%02d-%02d", y, m, d)
				}
			},
		},
		{
			name:  "timed until",
			value: "FREQ=DAILY;UNTIL=20240108T120000Z",
			validate: func(t *testing.T, r Rule) {
				if r.Until == nil || r.Until.IsDate() {
					t.Fatalf("Expected timed until, got %v", r.Until)
				}
				if !r.Until.Time().Equal(time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)) {
					t.Errorf("Unexpected until %s", r.Until)
				}
			},
		},
		{
			name:        "empty",
			value:       "",
			expectError: true,
		},
		{
			name:        "unknown frequency",
			value:       "FREQ=SOMETIMES",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := Parse(tt.value, time.UTC)
			if (err != nil) != tt.expectError {
				t.Fatalf("Expected error=%v, got %v", tt.expectError, err)
			}
			if tt.validate != nil {
				tt.validate(t, r)
			}
		})
	}
}

func TestRule_String(t *testing.T) {
	t.Parallel()

	until := date(2024, 3, 1)
	r := Rule{
		Frequency:  FrequencyMonthly,
		Interval:   3,
		Until:      &until,
		ByMonthDay: []int{1, -1},
		WeekStart:  "MO",
	}
	want := "FREQ=MONTHLY;INTERVAL=3;UNTIL=20240301;BYMONTHDAY=1,-1;WKST=MO"
	if got := r.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	parsed, err := Parse(r.String(), time.UTC)
	if err != nil {
		t.Fatalf("failed to parse rendered rule: %v", err)
	}
	if parsed.String() != want {
		t.Errorf("Expected re-rendered %q, got %q", want, parsed.String())
	}
}

func TestRule_Successor(t *testing.T) {
	t.Parallel()

	until := date(2024, 6, 1)
	r := Rule{Frequency: FrequencyDaily, Interval: 1, Count: 3, Until: &until, ByDay: []string{"MO"}}
	s := r.Successor()

	if s.Count != 2 {
		t.Errorf("Expected successor count 2, got %d", s.Count)
	}
	if r.Count != 3 {
		t.Errorf("Expected original count untouched, got %d", r.Count)
	}
	if s.Until == r.Until {
		t.Error("Expected successor to hold its own until value")
	}
	s.ByDay[0] = "TU"
	if r.ByDay[0] != "MO" {
		t.Error("Expected successor slices to be independent")
	}

	open := Default().Successor()
	if open.Count != 0 {
		t.Errorf("Expected open-ended successor to stay open, got count %d", open.Count)
	}
}

func TestFrequency_Valid(t *testing.T) {
	t.Parallel()

	for _, f := range []Frequency{FrequencySecondly, FrequencyMinutely, FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly} {
		if !f.Valid() {
			t.Errorf("Expected %s to be valid", f)
		}
	}
	if Frequency("weekly").Valid() {
		t.Error("Expected lowercase frequency to be invalid")
	}
}
