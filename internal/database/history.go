package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one recorded task event
type HistoryEntry struct {
	ID            uuid.UUID      `json:"id"`
	TaskID        uuid.UUID      `json:"task_id"`
	CollectionUID string         `json:"collection_uid"`
	Event         string         `json:"event"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// HistoryRepository records task events consumed from the job queue
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record stores entry. Entries are keyed by ID so a redelivered job is stored once.
func (r *HistoryRepository) Record(ctx context.Context, entry *HistoryEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if entry.Payload == nil {
		payload = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO task_history (id, task_id, collection_uid, event, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.TaskID, entry.CollectionUID, entry.Event, entry.OccurredAt, payload)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// ListByTask returns the events of a task, oldest first
func (r *HistoryRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, collection_uid, event, occurred_at, payload
		FROM task_history
		WHERE task_id = $1
		ORDER BY occurred_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		entry := &HistoryEntry{}
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.CollectionUID, &entry.Event, &entry.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}
