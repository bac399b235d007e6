// Package editor runs the save workflow of a task edit session: validate
// the draft, commit it, persist it and cascade the next occurrence of a
// completed recurring task.
package editor

import (
	"context"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/temporal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/pimtask/internal/editor"

// Persister stores one or more change records in a collection
type Persister interface {
	Persist(ctx context.Context, changes []models.Change, collectionUID string) error
}

// Deleter removes a persisted task from its collection
type Deleter interface {
	Delete(ctx context.Context, task *models.Task, collectionUID string) error
}

// Store is the persistence collaborator of a session
type Store interface {
	Persister
	Deleter
}

// CollectionLister supplies the collections a new task can be saved to
type CollectionLister interface {
	ListCollections(ctx context.Context) ([]models.Collection, error)
}

// State is a step of the save workflow
type State int

const (
	StateEditing State = iota
	StateValidating
	StateRejected
	StateCommitting
	StateCascading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateCommitting:
		return "committing"
	case StateCascading:
		return "cascading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful submit
type Result struct {
	Task      *models.Task
	Successor *models.Task
}

// Session owns one draft for the length of an edit. It is not safe for
// concurrent use; the editing surface serializes calls.
type Session struct {
	draft    *draft.Draft
	original *models.Task
	store    Store
	zones    temporal.Resolver
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	state           State
	lastErr         error
	deleteRequested bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for last-modified and completion stamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession starts an edit of d. original is the persisted task d was
// derived from, or nil for a new task.
func NewSession(d *draft.Draft, original *models.Task, store Store, zones temporal.Resolver, opts ...Option) *Session {
	s := &Session{
		draft:    d,
		original: original,
		store:    store,
		zones:    zones,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		state:    StateEditing,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current workflow state
func (s *Session) State() State {
	return s.state
}

// Err returns the error of the last rejected or failed submit
func (s *Session) Err() error {
	return s.lastErr
}

// Draft returns a copy of the current draft
func (s *Session) Draft() *draft.Draft {
	return s.draft.Clone()
}

// Original returns the task being edited, nil for a new task
func (s *Session) Original() *models.Task {
	return s.original
}

// EditsSeries reports whether saving changes a whole recurring series
func (s *Session) EditsSeries() bool {
	return s.original.IsRecurring()
}

// Edit applies field replacements to the draft
func (s *Session) Edit(fn func(d *draft.Draft)) error {
	if s.state == StateDone {
		return ErrSessionClosed
	}
	fn(s.draft)
	s.state = StateEditing
	return nil
}

// Cancel discards the draft
func (s *Session) Cancel() {
	s.state = StateDone
	s.deleteRequested = false
}

// ZonePreview shows start and due in the draft's zone when it differs
// from the local one. Date-only values keep their civil date.
func (s *Session) ZonePreview() (Preview, bool) {
	if s.draft.Timezone == "" || s.draft.Timezone == s.zones.CurrentZoneName() {
		return Preview{}, false
	}
	zone, resolved := s.zones.ResolveZone(s.draft.Timezone)
	if !resolved {
		return Preview{}, false
	}
	local := temporal.LocalZone(s.zones)
	return Preview{
		Zone:  zone.Name(),
		Start: normalize(s.draft.Start, s.draft.IncludeTime, local).Convert(zone),
		Due:   normalize(s.draft.Due, s.draft.IncludeTime, local).Convert(zone),
	}, true
}

// Preview is the draft's start and due shown in another zone
type Preview struct {
	Zone  string         `json:"zone"`
	Start temporal.Value `json:"start"`
	Due   temporal.Value `json:"due"`
}

// Submit runs validation, commit, the primary persist and the cascade.
// A ValidationError leaves the session Rejected with no I/O done. A
// PersistenceError leaves it Failed with the draft unchanged; submitting
// again starts over from validation. Once the primary persist succeeds the
// committed task becomes the original, so a retry after a cascade failure
// updates it rather than creating it twice.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	if s.state == StateDone {
		return nil, ErrSessionClosed
	}

	ctx, span := s.tracer.Start(ctx, "editor.Submit", trace.WithAttributes(
		attribute.String("task.id", s.draft.UID.String()),
		attribute.Bool("task.new", s.original == nil),
	))
	defer span.End()

	s.state = StateValidating
	s.lastErr = nil
	if err := Validate(s.draft, temporal.LocalZone(s.zones)); err != nil {
		s.state = StateRejected
		s.lastErr = err
		s.logger.Debug("task_draft_rejected",
			zap.String("task_id", s.draft.UID.String()),
			zap.Error(err),
		)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.state = StateCommitting
	task, zoneResolved := Commit(s.draft, s.original, s.zones, s.now())
	if !zoneResolved {
		s.logger.Warn("task_zone_unresolved",
			zap.String("task_id", task.ID.String()),
			zap.String("timezone", s.draft.Timezone),
		)
	}
	collectionUID := task.CollectionUID

	if err := s.persist(ctx, "editor.persist_primary", models.Change{New: task, Original: s.original}, collectionUID); err != nil {
		return nil, s.fail(span, StagePrimary, task, err)
	}
	// The task now exists; a retry after a cascade failure must update it.
	s.original = task
	s.logger.Info("task_committed",
		zap.String("task_id", task.ID.String()),
		zap.String("collection_uid", collectionUID),
		zap.String("status", string(task.Status)),
	)

	s.state = StateCascading
	result := &Result{Task: task}
	succ, ok, err := Successor(task)
	if err != nil {
		s.logger.Warn("task_next_occurrence_failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
	if ok {
		if err := s.persist(ctx, "editor.persist_successor", models.Change{New: succ}, collectionUID); err != nil {
			return nil, s.fail(span, StageCascade, task, err)
		}
		result.Successor = succ
		s.logger.Info("task_occurrence_created",
			zap.String("task_id", task.ID.String()),
			zap.String("next_start", succ.Start.String()),
			zap.String("next_due", succ.Due.String()),
		)
	}

	s.state = StateDone
	return result, nil
}

// RequestDelete asks for deletion of the edited task. ConfirmDelete must follow.
func (s *Session) RequestDelete() error {
	if s.state == StateDone {
		return ErrSessionClosed
	}
	if s.original == nil {
		return ErrNothingToDelete
	}
	s.deleteRequested = true
	return nil
}

// CancelDelete withdraws a pending delete request
func (s *Session) CancelDelete() {
	s.deleteRequested = false
}

// DeletePending reports whether a delete request awaits confirmation
func (s *Session) DeletePending() bool {
	return s.deleteRequested
}

// ConfirmDelete deletes the edited task after RequestDelete
func (s *Session) ConfirmDelete(ctx context.Context) error {
	if s.state == StateDone {
		return ErrSessionClosed
	}
	if !s.deleteRequested {
		return ErrDeleteNotRequested
	}
	s.deleteRequested = false

	ctx, span := s.tracer.Start(ctx, "editor.Delete", trace.WithAttributes(
		attribute.String("task.id", s.original.ID.String()),
	))
	defer span.End()

	if err := s.store.Delete(ctx, s.original, s.original.CollectionUID); err != nil {
		perr := &PersistenceError{Stage: StageDelete, Err: err}
		s.lastErr = perr
		s.logger.Error("task_delete_failed",
			zap.String("task_id", s.original.ID.String()),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, perr.Error())
		return perr
	}

	s.logger.Info("task_deleted", zap.String("task_id", s.original.ID.String()))
	s.state = StateDone
	return nil
}

func (s *Session) persist(ctx context.Context, name string, change models.Change, collectionUID string) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	err := s.store.Persist(ctx, []models.Change{change}, collectionUID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Session) fail(span trace.Span, stage Stage, task *models.Task, err error) error {
	perr := &PersistenceError{Stage: stage, Err: err}
	s.state = StateFailed
	s.lastErr = perr
	event := "task_persist_failed"
	if stage == StageCascade {
		event = "cascade_persist_failed"
	}
	s.logger.Error(event,
		zap.String("task_id", task.ID.String()),
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	span.SetStatus(codes.Error, perr.Error())
	return perr
}
