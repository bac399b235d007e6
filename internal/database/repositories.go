package database

import (
	"context"

	"github.com/benvon/pimtask/internal/models"
	"github.com/google/uuid"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Persist(ctx context.Context, changes []models.Change, collectionUID string) error
	Delete(ctx context.Context, task *models.Task, collectionUID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// CollectionRepositoryInterface defines the interface for collection repository operations
type CollectionRepositoryInterface interface {
	ListCollections(ctx context.Context) ([]models.Collection, error)
}

// HistoryRepositoryInterface defines the interface for history repository operations
type HistoryRepositoryInterface interface {
	Record(ctx context.Context, entry *HistoryEntry) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface       = (*TaskRepository)(nil)
	_ CollectionRepositoryInterface = (*CollectionRepository)(nil)
	_ HistoryRepositoryInterface    = (*HistoryRepository)(nil)
)
