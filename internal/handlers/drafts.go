package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/pimtask/internal/cache"
	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/editor"
	logpkg "github.com/benvon/pimtask/internal/logger"
	"github.com/benvon/pimtask/internal/metrics"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/benvon/pimtask/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TaskGetter loads persisted tasks
type TaskGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// DraftHandler serves the editing surface: drafts, submit and two-step delete
type DraftHandler struct {
	drafts            cache.DraftStore
	tasks             TaskGetter
	collections       database.CollectionRepositoryInterface
	store             editor.Store
	zones             temporal.Resolver
	defaultCollection string
	metrics           *metrics.Metrics
	logger            *zap.Logger
}

// NewDraftHandler creates a new draft handler. store receives commits and
// deletes; tasks resolves the task a draft edits.
func NewDraftHandler(
	drafts cache.DraftStore,
	tasks TaskGetter,
	collections database.CollectionRepositoryInterface,
	store editor.Store,
	zones temporal.Resolver,
	defaultCollection string,
	logger *zap.Logger,
) *DraftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftHandler{
		drafts:            drafts,
		tasks:             tasks,
		collections:       collections,
		store:             store,
		zones:             zones,
		defaultCollection: defaultCollection,
		logger:            logger,
	}
}

// SetMetrics counts submit outcomes. Without it nothing is recorded.
func (h *DraftHandler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// RegisterRoutes registers draft, task and collection routes on the API router
func (h *DraftHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/collections", h.ListCollections).Methods("GET")

	r.HandleFunc("/drafts", h.CreateDraft).Methods("POST")
	r.HandleFunc("/drafts/{uid}", h.GetDraft).Methods("GET")
	r.HandleFunc("/drafts/{uid}", h.UpdateDraft).Methods("PATCH")
	r.HandleFunc("/drafts/{uid}", h.CancelDraft).Methods("DELETE")
	r.HandleFunc("/drafts/{uid}/submit", h.SubmitDraft).Methods("POST")

	r.HandleFunc("/tasks/{id}/delete", h.RequestDelete).Methods("POST")
	r.HandleFunc("/tasks/{id}/delete/cancel", h.CancelDelete).Methods("POST")
	r.HandleFunc("/tasks/{id}/delete/confirm", h.ConfirmDelete).Methods("POST")
}

// CreateDraftRequest starts an edit of an existing task or a new one
type CreateDraftRequest struct {
	TaskID        *uuid.UUID `json:"task_id,omitempty"`
	CollectionUID string     `json:"collection_uid,omitempty" validate:"max=255"`
}

// UpdateDraftRequest replaces draft fields. Absent fields are left alone;
// an empty start, due or rrule clears it.
type UpdateDraftRequest struct {
	Title         *string   `json:"title,omitempty" validate:"omitnil,max=1000"`
	Status        *string   `json:"status,omitempty" validate:"omitnil,task_status"`
	Priority      *int      `json:"priority,omitempty" validate:"omitnil,task_priority"`
	IncludeTime   *bool     `json:"include_time,omitempty"`
	Start         *string   `json:"start,omitempty"`
	Due           *string   `json:"due,omitempty"`
	Timezone      *string   `json:"timezone,omitempty" validate:"omitnil,max=64"`
	Recurring     *bool     `json:"recurring,omitempty"`
	RRule         *string   `json:"rrule,omitempty" validate:"omitnil,max=500"`
	Location      *string   `json:"location,omitempty" validate:"omitnil,max=1000"`
	Description   *string   `json:"description,omitempty" validate:"omitnil,max=10000"`
	Tags          *[]string `json:"tags,omitempty" validate:"omitnil,max=50,dive,max=100"`
	CollectionUID *string   `json:"collection_uid,omitempty" validate:"omitnil,max=255"`
}

// DraftResponse is a draft as shown to the editing surface
type DraftResponse struct {
	Draft         *draft.Draft    `json:"draft"`
	New           bool            `json:"new"`
	State         string          `json:"state"`
	EditsSeries   bool            `json:"edits_series"`
	DeletePending bool            `json:"delete_pending"`
	ZonePreview   *editor.Preview `json:"zone_preview,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
}

// SubmitResponse is the outcome of a successful submit
type SubmitResponse struct {
	Task      *models.Task `json:"task"`
	Successor *models.Task `json:"successor,omitempty"`
}

// ListCollections lists the collections a new task can be saved to
func (h *DraftHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListCollections(r.Context())
	if err != nil {
		h.logger.Error("failed_to_list_collections", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve collections")
		return
	}
	respondJSON(w, http.StatusOK, collections)
}

// CreateDraft derives a draft from an existing task, or a fresh one
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	if !validateBody(w, req) {
		return
	}

	ctx := r.Context()
	rec := &cache.DraftRecord{State: editor.StateEditing.String()}
	var original *models.Task

	if req.TaskID != nil {
		task, ok := h.loadTask(w, ctx, *req.TaskID)
		if !ok {
			return
		}
		id := task.ID
		original = task
		rec.Draft = draft.FromExisting(task, h.zones)
		rec.OriginalID = &id
	} else {
		collections, err := h.collections.ListCollections(ctx)
		if err != nil {
			h.logger.Error("failed_to_list_collections", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve collections")
			return
		}
		collectionUID := h.defaultCollection
		if req.CollectionUID != "" {
			if !hasCollection(collections, req.CollectionUID) {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unknown collection")
				return
			}
			collectionUID = req.CollectionUID
		}
		rec.Draft = draft.Fresh(collectionUID, collections, h.zones)
	}

	if err := h.drafts.Save(ctx, rec); err != nil {
		h.logger.Error("failed_to_save_draft", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save draft")
		return
	}

	respondJSON(w, http.StatusCreated, h.draftResponse(h.session(rec, original), rec, false))
}

// GetDraft returns the current draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	rec, original, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.draftResponse(h.session(rec, original), rec, h.deletePending(r.Context(), original)))
}

func (h *DraftHandler) deletePending(ctx context.Context, original *models.Task) bool {
	if original == nil {
		return false
	}
	pending, err := h.drafts.DeletePending(ctx, original.ID)
	if err != nil {
		h.logger.Warn("failed_to_read_delete_request", zap.Error(err))
		return false
	}
	return pending
}

// UpdateDraft applies field replacements to a draft
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	rec, original, ok := h.loadDraft(w, r)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateBody(w, req) {
		return
	}

	local := temporal.LocalZone(h.zones).Location()
	edit, err := req.apply(local)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	session := h.session(rec, original)
	if err := session.Edit(edit); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
		return
	}
	rec.Draft = session.Draft()
	rec.State = session.State().String()
	rec.LastError = ""

	if err := h.drafts.Save(r.Context(), rec); err != nil {
		h.logger.Error("failed_to_save_draft", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save draft")
		return
	}
	respondJSON(w, http.StatusOK, h.draftResponse(session, rec, h.deletePending(r.Context(), original)))
}

// SubmitDraft validates, commits and persists a draft. A completed
// recurring task also gets its next occurrence created.
func (h *DraftHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	rec, original, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	session := h.session(rec, original)
	result, err := session.Submit(ctx)
	h.metrics.ObserveSubmit(result, err)
	if err != nil {
		rec.State = session.State().String()
		rec.LastError = err.Error()
		if committed := session.Original(); committed != nil && rec.OriginalID == nil {
			id := committed.ID
			rec.OriginalID = &id
		}
		if saveErr := h.drafts.Save(ctx, rec); saveErr != nil {
			h.logger.Warn("failed_to_save_draft", zap.Error(saveErr))
		}
		h.respondEditError(w, err)
		return
	}

	if err := h.drafts.Remove(ctx, rec.Draft.UID); err != nil {
		h.logger.Warn("failed_to_remove_draft",
			zap.String("draft_uid", rec.Draft.UID.String()),
			zap.Error(err),
		)
	}
	respondJSON(w, http.StatusOK, SubmitResponse{Task: result.Task, Successor: result.Successor})
}

// CancelDraft discards a draft without saving
func (h *DraftHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathUUID(w, r, "uid")
	if !ok {
		return
	}
	if err := h.drafts.Remove(r.Context(), uid); err != nil {
		h.logger.Error("failed_to_remove_draft", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to discard draft")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": editor.StateDone.String()})
}

// RequestDelete records the first step of deleting a task
func (h *DraftHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	task, ok := h.loadTask(w, r.Context(), id)
	if !ok {
		return
	}
	if err := h.drafts.RequestDelete(r.Context(), task.ID); err != nil {
		h.logger.Error("failed_to_request_delete", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record delete request")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"task_id":      task.ID,
		"title":        task.Title,
		"edits_series": task.IsRecurring(),
	})
}

// CancelDelete withdraws a pending delete request
func (h *DraftHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.drafts.CancelDeleteRequest(r.Context(), id); err != nil {
		h.logger.Error("failed_to_cancel_delete", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to cancel delete request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task_id": id})
}

// ConfirmDelete deletes a task after RequestDelete
func (h *DraftHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	taken, err := h.drafts.TakeDeleteRequest(ctx, id)
	if err != nil {
		h.logger.Error("failed_to_take_delete_request", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to read delete request")
		return
	}
	if !taken {
		respondJSONError(w, http.StatusConflict, "Conflict", editor.ErrDeleteNotRequested.Error())
		return
	}

	task, ok := h.loadTask(w, ctx, id)
	if !ok {
		return
	}
	session := editor.NewSession(draft.FromExisting(task, h.zones), task, h.store, h.zones, editor.WithLogger(h.logger))
	if err := session.RequestDelete(); err != nil {
		h.respondEditError(w, err)
		return
	}
	if err := session.ConfirmDelete(ctx); err != nil {
		h.respondEditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task_id": task.ID, "deleted": true})
}

func (h *DraftHandler) session(rec *cache.DraftRecord, original *models.Task) *editor.Session {
	return editor.NewSession(rec.Draft.Clone(), original, h.store, h.zones, editor.WithLogger(h.logger))
}

func (h *DraftHandler) draftResponse(session *editor.Session, rec *cache.DraftRecord, deletePending bool) DraftResponse {
	resp := DraftResponse{
		Draft:         session.Draft(),
		New:           session.Original() == nil,
		State:         rec.State,
		EditsSeries:   session.EditsSeries(),
		DeletePending: deletePending,
		LastError:     rec.LastError,
	}
	if preview, ok := session.ZonePreview(); ok {
		resp.ZonePreview = &preview
	}
	return resp
}

// loadDraft reads the draft named by the path and the task it edits
func (h *DraftHandler) loadDraft(w http.ResponseWriter, r *http.Request) (*cache.DraftRecord, *models.Task, bool) {
	uid, ok := pathUUID(w, r, "uid")
	if !ok {
		return nil, nil, false
	}
	rec, err := h.drafts.Load(r.Context(), uid)
	if errors.Is(err, cache.ErrDraftNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Draft not found")
		return nil, nil, false
	}
	if err != nil {
		h.logger.Error("failed_to_load_draft",
			zap.String("draft_uid", uid.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load draft")
		return nil, nil, false
	}
	if rec.OriginalID == nil {
		return rec, nil, true
	}
	original, ok := h.loadTask(w, r.Context(), *rec.OriginalID)
	if !ok {
		return nil, nil, false
	}
	return rec, original, true
}

func (h *DraftHandler) loadTask(w http.ResponseWriter, ctx context.Context, id uuid.UUID) (*models.Task, bool) {
	task, err := h.tasks.GetByID(ctx, id)
	if errors.Is(err, database.ErrTaskNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed_to_load_task",
			zap.String("task_id", id.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve task")
		return nil, false
	}
	return task, true
}

// respondEditError maps editor errors onto HTTP statuses
func (h *DraftHandler) respondEditError(w http.ResponseWriter, err error) {
	var ve *editor.ValidationError
	var pe *editor.PersistenceError
	switch {
	case errors.As(err, &ve):
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", ve.Error())
	case errors.As(err, &pe):
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", pe.Error())
	case errors.Is(err, editor.ErrSessionClosed), errors.Is(err, editor.ErrDeleteNotRequested):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, editor.ErrNothingToDelete):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error("unexpected_edit_error", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Unexpected error")
	}
}

// apply turns the request into a draft edit. Values are checked here so
// a bad field leaves the draft untouched.
func (req UpdateDraftRequest) apply(local *time.Location) (func(d *draft.Draft), error) {
	var start, due *time.Time
	var err error
	if req.Start != nil {
		if start, err = draft.ParseCivil(*req.Start, local); err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
	}
	if req.Due != nil {
		if due, err = draft.ParseCivil(*req.Due, local); err != nil {
			return nil, fmt.Errorf("due: %w", err)
		}
	}
	var rule *recurrence.Rule
	if req.RRule != nil && *req.RRule != "" {
		parsed, err := recurrence.Parse(*req.RRule, local)
		if err != nil {
			return nil, fmt.Errorf("rrule: %w", err)
		}
		if err := validation.ValidateRule(parsed); err != nil {
			return nil, err
		}
		rule = &parsed
	}

	return func(d *draft.Draft) {
		if req.Title != nil {
			d.Title = validation.SanitizeText(*req.Title)
		}
		if req.Status != nil {
			d.Status = models.TaskStatus(*req.Status)
		}
		if req.Priority != nil {
			d.Priority = models.TaskPriority(*req.Priority)
		}
		if req.IncludeTime != nil && *req.IncludeTime != d.IncludeTime {
			d.ToggleTime()
		}
		if req.Start != nil {
			d.Start = start
		}
		if req.Due != nil {
			d.Due = due
		}
		if req.Timezone != nil {
			d.Timezone = *req.Timezone
		}
		if req.Recurring != nil && *req.Recurring != d.IsRecurring() {
			d.ToggleRecurring()
		}
		if req.RRule != nil {
			d.Recurrence = rule
		}
		if req.Location != nil {
			d.Location = validation.SanitizeText(*req.Location)
		}
		if req.Description != nil {
			d.Description = validation.SanitizeText(*req.Description)
		}
		if req.Tags != nil {
			d.SetTags(*req.Tags)
		}
		if req.CollectionUID != nil {
			d.CollectionUID = *req.CollectionUID
		}
	}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// Check if error is due to request size limit
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

func validateBody(w http.ResponseWriter, req any) bool {
	if err := validation.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+name+": "+logpkg.SanitizeIdentifier(raw))
		return uuid.Nil, false
	}
	return id, true
}

func hasCollection(collections []models.Collection, uid string) bool {
	for _, c := range collections {
		if c.UID == uid {
			return true
		}
	}
	return false
}
