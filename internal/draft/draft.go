// Package draft holds the editable state of a task between edits and submit.
package draft

import (
	"time"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
)

// Draft is the editable copy of a task. Start and Due are wall-clock
// readings in the local zone; IncludeTime decides at commit whether their
// time of day is kept.
type Draft struct {
	UID           uuid.UUID           `json:"uid"`
	Title         string              `json:"title"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	IncludeTime   bool                `json:"include_time"`
	Start         *time.Time          `json:"start,omitempty"`
	Due           *time.Time          `json:"due,omitempty"`
	Timezone      string              `json:"timezone"`
	Recurrence    *recurrence.Rule    `json:"rrule,omitempty"`
	Location      string              `json:"location"`
	Description   string              `json:"description"`
	Tags          []string            `json:"tags"`
	CollectionUID string              `json:"collection_uid"`
}

// FromExisting derives a draft from a persisted task. Start and due are
// re-expressed in the local zone; date-only values keep their civil date.
func FromExisting(task *models.Task, zones temporal.Resolver) *Draft {
	local := temporal.LocalZone(zones)

	d := &Draft{
		UID:           task.ID,
		Title:         task.Title,
		Status:        task.Status,
		Priority:      task.Priority.Bucket(),
		Timezone:      task.Timezone,
		Location:      task.Location,
		Description:   task.Description,
		Tags:          models.NormalizeTags(task.Tags),
		CollectionUID: task.CollectionUID,
	}
	if !d.Status.Valid() {
		d.Status = models.TaskStatusNeedsAction
	}
	if d.Timezone == "" {
		d.Timezone = zones.CurrentZoneName()
	}

	switch {
	case !task.Start.IsZero():
		d.IncludeTime = !task.Start.IsDate()
	case !task.Due.IsZero():
		d.IncludeTime = !task.Due.IsDate()
	}
	d.Start = wallClock(task.Start, local)
	d.Due = wallClock(task.Due, local)

	if task.Recurrence != nil {
		rule := task.Recurrence.Clone()
		d.Recurrence = &rule
	}
	return d
}

// Fresh returns a draft for a new task. The collection is
// defaultCollectionUID when given, else the first collection listed.
func Fresh(defaultCollectionUID string, collections []models.Collection, zones temporal.Resolver) *Draft {
	d := &Draft{
		UID:      uuid.New(),
		Status:   models.TaskStatusNeedsAction,
		Priority: models.TaskPriorityUndefined,
		Timezone: zones.CurrentZoneName(),
		Tags:     []string{},
	}
	switch {
	case defaultCollectionUID != "":
		d.CollectionUID = defaultCollectionUID
	case len(collections) > 0:
		d.CollectionUID = collections[0].UID
	}
	return d
}

// Clone returns a deep copy of d
func (d *Draft) Clone() *Draft {
	out := *d
	if d.Start != nil {
		s := *d.Start
		out.Start = &s
	}
	if d.Due != nil {
		due := *d.Due
		out.Due = &due
	}
	if d.Recurrence != nil {
		rule := d.Recurrence.Clone()
		out.Recurrence = &rule
	}
	out.Tags = append([]string(nil), d.Tags...)
	return &out
}

// ToggleTime flips whether start and due carry a time of day
func (d *Draft) ToggleTime() {
	d.IncludeTime = !d.IncludeTime
}

// ToggleRecurring attaches the default rule or removes the current one
func (d *Draft) ToggleRecurring() {
	if d.Recurrence != nil {
		d.Recurrence = nil
		return
	}
	rule := recurrence.Default()
	d.Recurrence = &rule
}

// SetTags replaces the tag set
func (d *Draft) SetTags(tags []string) {
	d.Tags = models.NormalizeTags(tags)
}

// IsRecurring reports whether a rule is attached
func (d *Draft) IsRecurring() bool {
	return d.Recurrence != nil
}

func wallClock(v temporal.Value, local temporal.Zone) *time.Time {
	if v.IsZero() {
		return nil
	}
	t := v.Convert(local).Time()
	return &t
}
