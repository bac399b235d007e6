package database

import (
	"testing"
	"time"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
)

// Full integration testing of Persist and Delete requires a database.
// These tests cover the column mapping.
func TestToRow(t *testing.T) {
	t.Parallel()

	weekly := recurrence.Default()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		task          *models.Task
		wantStart     bool
		wantStartDate bool
		wantDue       bool
		wantCompleted bool
		wantRule      string
	}{
		{
			name: "no temporal values",
			task: &models.Task{},
		},
		{
			name:          "date-only start",
			task:          &models.Task{Start: temporal.Date(2024, time.January, 1, time.UTC)},
			wantStart:     true,
			wantStartDate: true,
		},
		{
			name:     "timed due with rule",
			task:     &models.Task{Due: temporal.Timed(at), Recurrence: &weekly},
			wantDue:  true,
			wantRule: "FREQ=WEEKLY",
		},
		{
			name:          "completed",
			task:          &models.Task{Completed: temporal.Timed(at)},
			wantCompleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row := toRow(tt.task)
			if row.startAt.Valid != tt.wantStart {
				t.Errorf("Expected start valid=%v, got %v", tt.wantStart, row.startAt.Valid)
			}
			if row.startDateOnly != tt.wantStartDate {
				t.Errorf("Expected start date-only=%v, got %v", tt.wantStartDate, row.startDateOnly)
			}
			if row.dueAt.Valid != tt.wantDue {
				t.Errorf("Expected due valid=%v, got %v", tt.wantDue, row.dueAt.Valid)
			}
			if row.completedAt.Valid != tt.wantCompleted {
				t.Errorf("Expected completed valid=%v, got %v", tt.wantCompleted, row.completedAt.Valid)
			}
			if row.rrule != tt.wantRule {
				t.Errorf("Expected rrule %q, got %q", tt.wantRule, row.rrule)
			}
		})
	}
}

func TestNullTime(t *testing.T) {
	t.Parallel()

	if nullTime(temporal.Value{}).Valid {
		t.Error("Expected zero value to map to NULL")
	}
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	nt := nullTime(temporal.Timed(at))
	if !nt.Valid || !nt.Time.Equal(at) {
		t.Errorf("Expected %s, got %+v", at, nt)
	}
}
