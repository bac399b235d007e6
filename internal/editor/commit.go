package editor

import (
	"fmt"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/benvon/pimtask/internal/validation"
	"github.com/google/uuid"
)

// Validate applies the save-time rules: a recurring draft needs an anchor
// and a rule the next occurrence can be computed from, and when both start
// and due are set start must be strictly earlier once both are normalized.
func Validate(d *draft.Draft, local temporal.Zone) error {
	if d.Recurrence != nil && d.Start == nil && d.Due == nil {
		return &ValidationError{Reason: ReasonMissingAnchor}
	}
	if d.Recurrence != nil {
		if err := validation.ValidateRule(*d.Recurrence); err != nil {
			return &ValidationError{Reason: ReasonInvalidRule}
		}
	}
	if d.Start != nil && d.Due != nil {
		start := temporal.ToZoned(*d.Start, d.IncludeTime, local.Location())
		due := temporal.ToZoned(*d.Due, d.IncludeTime, local.Location())
		if start.Compare(due) >= 0 {
			return &ValidationError{Reason: ReasonDueBeforeStart}
		}
	}
	return nil
}

// Commit builds the task a validated draft describes. original, when set,
// is cloned and never modified. The owning collection of an existing task
// is kept. zoneResolved is false when the draft zone could not be resolved,
// in which case values stay in the local zone.
func Commit(d *draft.Draft, original *models.Task, zones temporal.Resolver, now time.Time) (task *models.Task, zoneResolved bool) {
	local := temporal.LocalZone(zones)

	if original != nil {
		task = original.Clone()
	} else {
		task = &models.Task{CollectionUID: d.CollectionUID}
	}

	task.ID = d.UID
	task.Title = d.Title
	task.Status = d.Status
	task.Priority = d.Priority
	task.Tags = models.NormalizeTags(d.Tags)
	task.Location = d.Location
	task.Description = d.Description
	task.Timezone = d.Timezone

	task.Start = normalize(d.Start, d.IncludeTime, local)
	task.Due = normalize(d.Due, d.IncludeTime, local)

	task.Recurrence = nil
	if d.Recurrence != nil {
		rule := d.Recurrence.Clone()
		task.Recurrence = &rule
	}

	switch {
	case task.Status != models.TaskStatusCompleted:
		task.Completed = temporal.Value{}
	case task.Completed.IsZero():
		task.Completed = temporal.Timed(now.In(local.Location()))
	}

	zoneResolved = true
	if d.Timezone != "" {
		zone, ok := zones.ResolveZone(d.Timezone)
		if ok {
			task.Start = task.Start.Convert(zone)
			task.Due = task.Due.Convert(zone)
			task.Completed = task.Completed.Convert(zone)
		} else {
			zoneResolved = false
		}
	}

	task.LastModified = now.UTC()
	return task, zoneResolved
}

// Successor returns the next occurrence of a completed recurring task, or
// false when the task is not both completed and recurring or the series
// has ended. The successor has no ID; the store assigns one on create.
func Successor(task *models.Task) (*models.Task, bool, error) {
	if task.Status != models.TaskStatusCompleted || !task.IsRecurring() {
		return nil, false, nil
	}

	next, ok, err := recurrence.Next(*task.Recurrence, task.Occurrence())
	if err != nil {
		return nil, false, fmt.Errorf("failed to compute next occurrence: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	succ := task.Clone()
	succ.ID = uuid.Nil
	succ.Status = models.TaskStatusNeedsAction
	succ.Completed = temporal.Value{}
	succ.Start = next.Start
	succ.Due = next.Due
	rule := task.Recurrence.Successor()
	succ.Recurrence = &rule
	return succ, true, nil
}

func normalize(civil *time.Time, includeTime bool, local temporal.Zone) temporal.Value {
	if civil == nil {
		return temporal.Value{}
	}
	return temporal.ToZoned(*civil, includeTime, local.Location())
}
