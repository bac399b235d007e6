package ical

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
)

func TestEncodeDecode_TimedTask(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("UTC")
	tokyo, ok := zones.ResolveZone("Asia/Tokyo")
	if !ok {
		t.Skip("tz database not available")
	}

	rule := recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 2, Count: 4, ByDay: []string{"MO"}}
	task := &models.Task{
		ID:           uuid.New(),
		Title:        "Team sync notes",
		Status:       models.TaskStatusInProcess,
		Priority:     models.TaskPriorityHigh,
		Start:        temporal.Timed(time.Date(2024, 5, 6, 9, 30, 0, 0, tokyo.Location())),
		Due:          temporal.Timed(time.Date(2024, 5, 6, 11, 0, 0, 0, tokyo.Location())),
		Timezone:     "Asia/Tokyo",
		Recurrence:   &rule,
		Location:     "Room 4",
		Description:  "bring the slides",
		Tags:         []string{"meetings", "work"},
		LastModified: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	data := Encode(task)
	if !strings.Contains(data, "BEGIN:VTODO") {
		t.Fatalf("Expected VTODO in output, got:\n%s", data)
	}
	if !strings.Contains(data, "TZID=Asia/Tokyo") {
		t.Errorf("Expected TZID parameter on timed values, got:\n%s", data)
	}

	got, err := Decode(data, zones)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != task.ID {
		t.Errorf("Expected ID %s, got %s", task.ID, got.ID)
	}
	if got.Title != task.Title || got.Location != task.Location || got.Description != task.Description {
		t.Errorf("Expected text fields preserved, got %+v", got)
	}
	if got.Status != task.Status || got.Priority != task.Priority {
		t.Errorf("Expected status %s priority %d, got %s %d", task.Status, task.Priority, got.Status, got.Priority)
	}
	if !got.Start.Equal(task.Start) || !got.Due.Equal(task.Due) {
		t.Errorf("Expected start/due %s/%s, got %s/%s", task.Start, task.Due, got.Start, got.Due)
	}
	if got.Timezone != "Asia/Tokyo" {
		t.Errorf("Expected timezone Asia/Tokyo, got %q", got.Timezone)
	}
	if got.Recurrence == nil || got.Recurrence.String() != rule.String() {
		t.Errorf("Expected rule %s, got %v", rule.String(), got.Recurrence)
	}
	if !models.TagsEqual(got.Tags, task.Tags) {
		t.Errorf("Expected tags %v, got %v", task.Tags, got.Tags)
	}
	if !got.LastModified.Equal(task.LastModified) {
		t.Errorf("Expected last modified %s, got %s", task.LastModified, got.LastModified)
	}
}

func TestEncodeDecode_DateOnlyTask(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("UTC")
	task := &models.Task{
		ID:        uuid.New(),
		Title:     "Renew passport",
		Status:    models.TaskStatusCompleted,
		Start:     temporal.Date(2024, time.January, 1, time.UTC),
		Completed: temporal.Timed(time.Date(2024, 1, 1, 15, 4, 5, 0, time.UTC)),
	}

	data := Encode(task)
	if !strings.Contains(data, "VALUE=DATE") {
		t.Errorf("Expected VALUE=DATE on date-only start, got:\n%s", data)
	}

	got, err := Decode(data, zones)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Start.IsDate() {
		t.Fatal("Expected date-only start after decode")
	}
	if y, m, d := got.Start.CivilDate(); y != 2024 || m != time.January || d != 1 {
		t.Errorf("Expected 2024-01-01, got %s", got.Start)
	}
	if !got.Due.IsZero() {
		t.Errorf("Expected no due, got %s", got.Due)
	}
	if !got.Completed.Equal(task.Completed) {
		t.Errorf("Expected completed %s, got %s", task.Completed, got.Completed)
	}
	if got.Recurrence != nil {
		t.Errorf("Expected no recurrence, got %v", got.Recurrence)
	}
}

func TestEncodeDecode_KeepsTaskZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start temporal.Value
		due   temporal.Value
	}{
		{
			name:  "date-only",
			start: temporal.Date(2024, time.March, 1, time.UTC),
			due:   temporal.Date(2024, time.March, 4, time.UTC),
		},
		{
			name: "no dates",
		},
		{
			name: "timed in UTC",
			due:  temporal.Timed(time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			zones := temporal.NewSystemZones("UTC")
			task := &models.Task{
				ID:       uuid.New(),
				Title:    "File taxes",
				Status:   models.TaskStatusNeedsAction,
				Start:    tt.start,
				Due:      tt.due,
				Timezone: "America/New_York",
			}

			got, err := Decode(Encode(task), zones)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got.Timezone != "America/New_York" {
				t.Errorf("Expected timezone America/New_York, got %q", got.Timezone)
			}
			if d := draft.FromExisting(got, zones); d.Timezone != "America/New_York" {
				t.Errorf("Expected draft to keep the stored zone, got %q", d.Timezone)
			}
		})
	}
}

func TestDecode_ZoneFallsBackToTZID(t *testing.T) {
	t.Parallel()

	data := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:test\r\nBEGIN:VTODO\r\n" +
		"UID:" + uuid.NewString() + "\r\nSUMMARY:imported\r\nDUE;TZID=UTC:20240301T170000\r\n" +
		"END:VTODO\r\nEND:VCALENDAR\r\n"

	got, err := Decode(data, temporal.NewSystemZones("UTC"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Timezone != "UTC" {
		t.Errorf("Expected zone from TZID, got %q", got.Timezone)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("UTC")

	noTodo := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:test\r\nEND:VCALENDAR\r\n"
	if _, err := Decode(noTodo, zones); !errors.Is(err, ErrNoTodo) {
		t.Errorf("Expected ErrNoTodo, got %v", err)
	}

	badUID := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:test\r\nBEGIN:VTODO\r\nUID:not-a-uuid\r\nEND:VTODO\r\nEND:VCALENDAR\r\n"
	if _, err := Decode(badUID, zones); err == nil {
		t.Error("Expected error for non-UUID UID")
	}
}

func TestDecode_FloatingUsesLocalZone(t *testing.T) {
	t.Parallel()

	zones := temporal.NewSystemZones("America/New_York")
	if zones.CurrentZoneName() != "America/New_York" {
		t.Skip("tz database not available")
	}

	data := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:test\r\nBEGIN:VTODO\r\n" +
		"UID:" + uuid.NewString() + "\r\nSUMMARY:floating\r\nDUE:20240301T170000\r\n" +
		"END:VTODO\r\nEND:VCALENDAR\r\n"

	got, err := Decode(data, zones)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Due.Location().String() != "America/New_York" {
		t.Errorf("Expected floating due in local zone, got %s", got.Due.Location())
	}
	if hh, mm, _ := got.Due.Time().Clock(); hh != 17 || mm != 0 {
		t.Errorf("Expected 17:00 wall clock, got %02d:%02d", hh, mm)
	}
}
