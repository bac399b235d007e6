// Package ical converts tasks to and from VTODO components.
package ical

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
)

const (
	productID = "-//benvon//pimtask//EN"

	propDue       = ics.ComponentProperty("DUE")
	propCompleted = ics.ComponentProperty("COMPLETED")
	// propTimezone carries the task zone, which TZID alone loses for
	// date-only, UTC and undated tasks
	propTimezone = ics.ComponentProperty("X-PIMTASK-TIMEZONE")

	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
	layoutUTC      = "20060102T150405Z"
)

// ErrNoTodo is returned when a calendar holds no VTODO component
var ErrNoTodo = errors.New("calendar has no VTODO component")

// Encode renders task as a VCALENDAR holding a single VTODO
func Encode(task *models.Task) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)

	todo := &ics.VTodo{}
	todo.SetProperty(ics.ComponentPropertyUniqueId, task.ID.String())
	todo.SetProperty(ics.ComponentPropertyDtstamp, task.LastModified.UTC().Format(layoutUTC))
	todo.SetProperty(ics.ComponentPropertyLastModified, task.LastModified.UTC().Format(layoutUTC))
	todo.SetProperty(ics.ComponentPropertySummary, task.Title)
	todo.SetProperty(ics.ComponentPropertyStatus, string(task.Status))
	todo.SetProperty(ics.ComponentPropertyPriority, strconv.Itoa(int(task.Priority)))

	setValue(todo, ics.ComponentPropertyDtStart, task.Start)
	setValue(todo, propDue, task.Due)
	if !task.Completed.IsZero() {
		todo.SetProperty(propCompleted, task.Completed.Time().UTC().Format(layoutUTC))
	}
	if task.Timezone != "" {
		todo.SetProperty(propTimezone, task.Timezone)
	}
	if task.Recurrence != nil {
		todo.SetProperty(ics.ComponentPropertyRrule, task.Recurrence.String())
	}
	if len(task.Tags) > 0 {
		todo.SetProperty(ics.ComponentPropertyCategories, strings.Join(task.Tags, ","))
	}
	if task.Location != "" {
		todo.SetProperty(ics.ComponentPropertyLocation, task.Location)
	}
	if task.Description != "" {
		todo.SetProperty(ics.ComponentPropertyDescription, task.Description)
	}

	cal.Components = append(cal.Components, todo)
	return cal.Serialize()
}

func setValue(todo *ics.VTodo, prop ics.ComponentProperty, v temporal.Value) {
	switch {
	case v.IsZero():
		return
	case v.IsDate():
		todo.SetProperty(prop, v.Time().Format(layoutDate),
			&ics.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
	case v.Location() == time.UTC:
		todo.SetProperty(prop, v.Time().Format(layoutUTC))
	default:
		todo.SetProperty(prop, v.Time().Format(layoutDateTime),
			&ics.KeyValues{Key: "TZID", Value: []string{v.Location().String()}})
	}
}

// Decode reads the first VTODO of data. TZID parameters are resolved
// through zones; floating and date-only values are placed in the local zone.
// The task zone comes from X-PIMTASK-TIMEZONE, falling back to the TZID of
// start or due for calendars written elsewhere.
func Decode(data string, zones temporal.Resolver) (*models.Task, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var todo *ics.VTodo
	for _, comp := range cal.Components {
		if t, ok := comp.(*ics.VTodo); ok {
			todo = t
			break
		}
	}
	if todo == nil {
		return nil, ErrNoTodo
	}

	local := temporal.LocalZone(zones)
	task := &models.Task{
		Status:   models.TaskStatusNeedsAction,
		Priority: models.TaskPriorityUndefined,
		Tags:     []string{},
	}

	if p := todo.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		id, err := uuid.Parse(strings.TrimSpace(p.Value))
		if err != nil {
			return nil, fmt.Errorf("invalid UID %q: %w", p.Value, err)
		}
		task.ID = id
	}
	if p := todo.GetProperty(ics.ComponentPropertySummary); p != nil {
		task.Title = p.Value
	}
	if p := todo.GetProperty(ics.ComponentPropertyStatus); p != nil {
		if status := models.TaskStatus(strings.ToUpper(strings.TrimSpace(p.Value))); status.Valid() {
			task.Status = status
		}
	}
	if p := todo.GetProperty(ics.ComponentPropertyPriority); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			task.Priority = models.TaskPriority(n)
		}
	}
	if p := todo.GetProperty(ics.ComponentPropertyLocation); p != nil {
		task.Location = p.Value
	}
	if p := todo.GetProperty(ics.ComponentPropertyDescription); p != nil {
		task.Description = p.Value
	}
	for _, p := range todo.GetProperties(ics.ComponentPropertyCategories) {
		task.Tags = append(task.Tags, strings.Split(p.Value, ",")...)
	}
	task.Tags = models.NormalizeTags(task.Tags)

	var zoneName string
	if task.Start, zoneName, err = readValue(todo.GetProperty(ics.ComponentPropertyDtStart), zones, local); err != nil {
		return nil, err
	}
	var dueZone string
	if task.Due, dueZone, err = readValue(todo.GetProperty(propDue), zones, local); err != nil {
		return nil, err
	}
	if zoneName == "" {
		zoneName = dueZone
	}
	if p := todo.GetProperty(propTimezone); p != nil && strings.TrimSpace(p.Value) != "" {
		zoneName = strings.TrimSpace(p.Value)
	}
	task.Timezone = zoneName
	if task.Completed, _, err = readValue(todo.GetProperty(propCompleted), zones, local); err != nil {
		return nil, err
	}

	if p := todo.GetProperty(ics.ComponentPropertyRrule); p != nil && strings.TrimSpace(p.Value) != "" {
		loc := local.Location()
		if !task.Start.IsZero() {
			loc = task.Start.Location()
		} else if !task.Due.IsZero() {
			loc = task.Due.Location()
		}
		rule, err := recurrence.Parse(p.Value, loc)
		if err != nil {
			return nil, err
		}
		task.Recurrence = &rule
	}

	if p := todo.GetProperty(ics.ComponentPropertyLastModified); p != nil {
		if t, err := time.Parse(layoutUTC, strings.TrimSpace(p.Value)); err == nil {
			task.LastModified = t
		}
	}
	return task, nil
}

// readValue converts a date or date-time property. The returned zone name
// is the TZID parameter, or "UTC" for values written with a Z suffix.
func readValue(p *ics.IANAProperty, zones temporal.Resolver, local temporal.Zone) (temporal.Value, string, error) {
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return temporal.Value{}, "", nil
	}
	raw := strings.TrimSpace(p.Value)

	dateOnly := !strings.Contains(raw, "T")
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		dateOnly = true
	}
	if dateOnly {
		t, err := time.ParseInLocation(layoutDate, raw, local.Location())
		if err != nil {
			return temporal.Value{}, "", fmt.Errorf("failed to parse date %q: %w", raw, err)
		}
		return temporal.DateOf(t), "", nil
	}

	if strings.HasSuffix(raw, "Z") {
		t, err := time.Parse(layoutUTC, raw)
		if err != nil {
			return temporal.Value{}, "", fmt.Errorf("failed to parse date-time %q: %w", raw, err)
		}
		return temporal.Timed(t), "UTC", nil
	}

	zone := local
	var zoneName string
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		zoneName = tzs[0]
		if z, ok := zones.ResolveZone(zoneName); ok {
			zone = z
		}
	}
	t, err := time.ParseInLocation(layoutDateTime, raw, zone.Location())
	if err != nil {
		return temporal.Value{}, "", fmt.Errorf("failed to parse date-time %q: %w", raw, err)
	}
	return temporal.Timed(t), zoneName, nil
}
