package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/pimtask/internal/ical"
	logpkg "github.com/benvon/pimtask/internal/logger"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrTaskNotFound is returned when a task does not exist in the collection
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository stores tasks as VTODO text plus the columns needed to query them
type TaskRepository struct {
	db     *DB
	zones  temporal.Resolver
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, zones temporal.Resolver) *TaskRepository {
	return &TaskRepository{db: db, zones: zones, logger: zap.NewNop()}
}

// SetLogger sets the logger for the repository
func (r *TaskRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Persist writes a change set to collectionUID in one transaction. Creates
// without an ID are assigned one.
func (r *TaskRepository) Persist(ctx context.Context, changes []models.Change, collectionUID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("failed_to_rollback_transaction", zap.Error(rbErr))
		}
	}()

	for _, change := range changes {
		task := change.New
		if task == nil {
			continue
		}
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		task.CollectionUID = collectionUID

		if change.IsCreate() {
			err = r.insert(ctx, tx, task)
		} else {
			err = r.update(ctx, tx, task)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *TaskRepository) insert(ctx context.Context, tx *sql.Tx, task *models.Task) error {
	row := toRow(task)
	query := `
		INSERT INTO tasks (id, collection_uid, title, status, priority,
			start_at, start_date_only, due_at, due_date_only, completed_at,
			timezone, rrule, tags, ical, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.ExecContext(ctx, query,
		task.ID,
		task.CollectionUID,
		task.Title,
		string(task.Status),
		int(task.Priority),
		row.startAt,
		row.startDateOnly,
		row.dueAt,
		row.dueDateOnly,
		row.completedAt,
		task.Timezone,
		row.rrule,
		pq.Array(task.Tags),
		ical.Encode(task),
		task.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) update(ctx context.Context, tx *sql.Tx, task *models.Task) error {
	row := toRow(task)
	query := `
		UPDATE tasks
		SET title = $3, status = $4, priority = $5,
			start_at = $6, start_date_only = $7, due_at = $8, due_date_only = $9,
			completed_at = $10, timezone = $11, rrule = $12, tags = $13,
			ical = $14, last_modified = $15
		WHERE id = $1 AND collection_uid = $2
	`
	result, err := tx.ExecContext(ctx, query,
		task.ID,
		task.CollectionUID,
		task.Title,
		string(task.Status),
		int(task.Priority),
		row.startAt,
		row.startDateOnly,
		row.dueAt,
		row.dueDateOnly,
		row.completedAt,
		task.Timezone,
		row.rrule,
		pq.Array(task.Tags),
		ical.Encode(task),
		task.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update task %s: %w", task.ID, ErrTaskNotFound)
	}
	return nil
}

// Delete removes task from collectionUID
func (r *TaskRepository) Delete(ctx context.Context, task *models.Task, collectionUID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND collection_uid = $2`,
		task.ID, collectionUID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetByID loads a task from its stored VTODO text
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var collectionUID, body string
	err := r.db.QueryRowContext(ctx,
		`SELECT collection_uid, ical FROM tasks WHERE id = $1`, id,
	).Scan(&collectionUID, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task, err := ical.Decode(body, r.zones)
	if err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", id, err)
	}
	task.ID = id
	task.CollectionUID = collectionUID
	return task, nil
}

// ListByCollection returns the tasks of a collection ordered by due instant
func (r *TaskRepository) ListByCollection(ctx context.Context, collectionUID string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ical FROM tasks
		WHERE collection_uid = $1
		ORDER BY due_at NULLS LAST, title
	`, collectionUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var id uuid.UUID
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task, err := ical.Decode(body, r.zones)
		if err != nil {
			r.logger.Warn("task_decode_failed",
				zap.String("task_id", id.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			r.logger.Debug("task_decode_failed_document", zap.String("ical", logpkg.SanitizeDocument(body)))
			continue
		}
		task.ID = id
		task.CollectionUID = collectionUID
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// taskRow holds the column forms of a task's optional values
type taskRow struct {
	startAt       sql.NullTime
	startDateOnly bool
	dueAt         sql.NullTime
	dueDateOnly   bool
	completedAt   sql.NullTime
	rrule         string
}

func toRow(task *models.Task) taskRow {
	row := taskRow{
		startAt:       nullTime(task.Start),
		startDateOnly: task.Start.IsDate(),
		dueAt:         nullTime(task.Due),
		dueDateOnly:   task.Due.IsDate(),
		completedAt:   nullTime(task.Completed),
	}
	if task.Recurrence != nil {
		row.rrule = task.Recurrence.String()
	}
	return row
}

func nullTime(v temporal.Value) sql.NullTime {
	if v.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.Time(), Valid: true}
}
