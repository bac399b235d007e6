package draft

import (
	"testing"
	"time"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
)

func TestFresh(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("Europe/Paris")
	collections := []models.Collection{{UID: "inbox"}, {UID: "work"}}

	tests := []struct {
		name           string
		defaultUID     string
		collections    []models.Collection
		wantCollection string
	}{
		{"explicit default", "work", collections, "work"},
		{"first collection", "", collections, "inbox"},
		{"no collections", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := Fresh(tt.defaultUID, tt.collections, zones)
			if d.UID == uuid.Nil {
				t.Error("Expected a generated UID")
			}
			if d.Status != models.TaskStatusNeedsAction {
				t.Errorf("Expected NeedsAction, got %s", d.Status)
			}
			if d.Priority != models.TaskPriorityUndefined {
				t.Errorf("Expected undefined priority, got %d", d.Priority)
			}
			if d.Timezone != "Europe/Paris" {
				t.Errorf("Expected local zone Europe/Paris, got %s", d.Timezone)
			}
			if d.CollectionUID != tt.wantCollection {
				t.Errorf("Expected collection %q, got %q", tt.wantCollection, d.CollectionUID)
			}
			if d.Recurrence != nil || d.Start != nil || d.Due != nil {
				t.Error("Expected no temporal fields on a fresh draft")
			}
		})
	}

	if Fresh("", nil, zones).UID == Fresh("", nil, zones).UID {
		t.Error("Expected distinct UIDs for distinct drafts")
	}
}

func TestFromExisting(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("America/New_York")
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	until := temporal.Date(2024, time.May, 1, time.UTC)
	rule := recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 2, Until: &until}

	tests := []struct {
		name     string
		task     *models.Task
		validate func(*testing.T, *Draft)
	}{
		{
			name: "timed values move to local zone",
			task: &models.Task{
				ID:            uuid.New(),
				CollectionUID: "work",
				Title:         "Call",
				Status:        models.TaskStatusInProcess,
				Priority:      models.TaskPriority(3),
				Start:         temporal.Timed(time.Date(2024, 3, 1, 9, 0, 0, 0, tokyo)),
				Due:           temporal.Timed(time.Date(2024, 3, 1, 10, 0, 0, 0, tokyo)),
				Timezone:      "Asia/Tokyo",
				Tags:          []string{"b", "a", "b"},
			},
			validate: func(t *testing.T, d *Draft) {
				if !d.IncludeTime {
					t.Error("Expected IncludeTime for timed start")
				}
				if d.Start == nil || d.Start.Location().String() != "America/New_York" {
					t.Fatalf("Expected start in America/New_York, got %v", d.Start)
				}
				if h := d.Start.Hour(); h != 19 {
					t.Errorf("Expected 19:00 previous day in New York, got %s", d.Start)
				}
				if d.Timezone != "Asia/Tokyo" {
					t.Errorf("Expected task zone kept, got %s", d.Timezone)
				}
				if d.Priority != models.TaskPriorityHigh {
					t.Errorf("Expected priority bucketed to high, got %d", d.Priority)
				}
				if len(d.Tags) != 2 {
					t.Errorf("Expected duplicate tags collapsed, got %v", d.Tags)
				}
			},
		},
		{
			name: "date-only keeps civil date",
			task: &models.Task{
				ID:    uuid.New(),
				Start: temporal.Date(2024, time.March, 10, tokyo),
			},
			validate: func(t *testing.T, d *Draft) {
				if d.IncludeTime {
					t.Error("Expected IncludeTime false for date-only start")
				}
				if y, m, day := d.Start.Date(); y != 2024 || m != time.March || day != 10 {
					t.Errorf("Expected 2024-03-10, got %s", d.Start)
				}
				if d.Timezone != "America/New_York" {
					t.Errorf("Expected missing zone to fall back to local, got %s", d.Timezone)
				}
				if d.Status != models.TaskStatusNeedsAction {
					t.Errorf("Expected empty status to default, got %s", d.Status)
				}
			},
		},
		{
			name: "due only decides include time",
			task: &models.Task{
				ID:  uuid.New(),
				Due: temporal.Timed(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
			},
			validate: func(t *testing.T, d *Draft) {
				if !d.IncludeTime {
					t.Error("Expected IncludeTime from timed due")
				}
				if d.Start != nil {
					t.Errorf("Expected no start, got %v", d.Start)
				}
			},
		},
		{
			name: "rule copied with until",
			task: &models.Task{
				ID:         uuid.New(),
				Start:      temporal.Date(2024, time.March, 1, time.UTC),
				Recurrence: &rule,
			},
			validate: func(t *testing.T, d *Draft) {
				if d.Recurrence == nil || d.Recurrence.Until == nil {
					t.Fatal("Expected rule with until to be copied")
				}
				if !d.Recurrence.Until.Equal(until) {
					t.Errorf("Expected until %s, got %s", until, d.Recurrence.Until)
				}
				if d.Recurrence == &rule {
					t.Error("Expected rule to be copied, not shared")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := FromExisting(tt.task, zones)
			if d.UID != tt.task.ID {
				t.Errorf("Expected UID %s, got %s", tt.task.ID, d.UID)
			}
			tt.validate(t, d)
		})
	}
}

func TestToggleRecurring(t *testing.T) {
	t.Parallel()

	d := Fresh("inbox", nil, temporal.NewSystemZones("UTC"))
	d.ToggleRecurring()
	if d.Recurrence == nil || d.Recurrence.Frequency != recurrence.FrequencyWeekly || d.Recurrence.Interval != 1 {
		t.Fatalf("Expected weekly/1 default rule, got %+v", d.Recurrence)
	}
	d.ToggleRecurring()
	if d.IsRecurring() {
		t.Error("Expected rule removed on second toggle")
	}

	d.ToggleTime()
	if !d.IncludeTime {
		t.Error("Expected IncludeTime after toggle")
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := Fresh("inbox", nil, temporal.NewSystemZones("UTC"))
	d.Start = &start
	d.SetTags([]string{"x"})
	d.ToggleRecurring()

	c := d.Clone()
	*c.Start = start.AddDate(0, 0, 1)
	c.Tags[0] = "y"
	c.Recurrence.Interval = 5

	if !d.Start.Equal(start) || d.Tags[0] != "x" || d.Recurrence.Interval != 1 {
		t.Error("Expected clone edits not to leak into the original draft")
	}
}

func TestParseCivil(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load zone: %v", err)
	}

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{name: "empty clears", value: "  ", wantNil: true},
		{name: "date", value: "2024-03-10", want: time.Date(2024, 3, 10, 0, 0, 0, 0, tokyo)},
		{name: "minutes", value: "2024-03-10T09:30", want: time.Date(2024, 3, 10, 9, 30, 0, 0, tokyo)},
		{name: "seconds", value: "2024-03-10T09:30:15", want: time.Date(2024, 3, 10, 9, 30, 15, 0, tokyo)},
		{name: "offset moved into zone", value: "2024-03-10T00:00:00Z", want: time.Date(2024, 3, 10, 9, 0, 0, 0, tokyo)},
		{name: "garbage", value: "next tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCivil(tt.value, tokyo)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCivil() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if got == nil || !got.Equal(tt.want) || got.Location() != tokyo {
				t.Errorf("ParseCivil() = %v, want %v in Asia/Tokyo", got, tt.want)
			}
		})
	}
}
