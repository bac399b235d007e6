package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/validation"
	"gopkg.in/yaml.v3"
)

// EditDocument is a YAML edit applied to a draft. Absent keys leave the
// draft's value alone; an empty start, due or rrule clears it.
type EditDocument struct {
	Title       *string   `yaml:"title" validate:"omitnil,max=255"`
	Status      *string   `yaml:"status" validate:"omitnil,task_status"`
	Priority    *int      `yaml:"priority" validate:"omitnil,task_priority"`
	IncludeTime *bool     `yaml:"include_time"`
	Start       *string   `yaml:"start"`
	Due         *string   `yaml:"due"`
	Timezone    *string   `yaml:"timezone" validate:"omitnil,max=64"`
	RRule       *string   `yaml:"rrule"`
	Location    *string   `yaml:"location" validate:"omitnil,max=255"`
	Description *string   `yaml:"description" validate:"omitnil,max=10000"`
	Tags        *[]string `yaml:"tags" validate:"omitnil,max=50,dive,max=64"`
	Collection  *string   `yaml:"collection" validate:"omitnil,max=255"`
}

// ReadEditDocument decodes and validates one edit document. Unknown keys
// are rejected so a typo does not silently drop a field.
func ReadEditDocument(r io.Reader) (*EditDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read edit document: %w", err)
	}
	doc := &EditDocument{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse edit document: %w", err)
	}
	if err := validation.Validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid edit document: %w", err)
	}
	return doc, nil
}

// Apply writes the document into d. Values are parsed before anything is
// written, so an error leaves d untouched.
func (doc *EditDocument) Apply(d *draft.Draft, local *time.Location) error {
	var start, due *time.Time
	var err error
	if doc.Start != nil {
		if start, err = draft.ParseCivil(*doc.Start, local); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if doc.Due != nil {
		if due, err = draft.ParseCivil(*doc.Due, local); err != nil {
			return fmt.Errorf("due: %w", err)
		}
	}
	var rule *recurrence.Rule
	if doc.RRule != nil && *doc.RRule != "" {
		parsed, err := recurrence.Parse(*doc.RRule, local)
		if err != nil {
			return fmt.Errorf("rrule: %w", err)
		}
		if err := validation.ValidateRule(parsed); err != nil {
			return err
		}
		rule = &parsed
	}

	if doc.Title != nil {
		d.Title = validation.SanitizeText(*doc.Title)
	}
	if doc.Status != nil {
		d.Status = models.TaskStatus(*doc.Status)
	}
	if doc.Priority != nil {
		d.Priority = models.TaskPriority(*doc.Priority)
	}
	if doc.IncludeTime != nil && *doc.IncludeTime != d.IncludeTime {
		d.ToggleTime()
	}
	if doc.Start != nil {
		d.Start = start
	}
	if doc.Due != nil {
		d.Due = due
	}
	if doc.Timezone != nil {
		d.Timezone = *doc.Timezone
	}
	if doc.RRule != nil {
		d.Recurrence = rule
	}
	if doc.Location != nil {
		d.Location = validation.SanitizeText(*doc.Location)
	}
	if doc.Description != nil {
		d.Description = validation.SanitizeText(*doc.Description)
	}
	if doc.Tags != nil {
		d.SetTags(*doc.Tags)
	}
	if doc.Collection != nil {
		d.CollectionUID = *doc.Collection
	}
	return nil
}
