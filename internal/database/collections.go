package database

import (
	"context"
	"fmt"

	"github.com/benvon/pimtask/internal/models"
)

// CollectionRepository handles collection database operations
type CollectionRepository struct {
	db *DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// ListCollections returns all collections in display order
func (r *CollectionRepository) ListCollections(ctx context.Context) ([]models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, display_name, color
		FROM collections
		ORDER BY position, display_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	collections := []models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.UID, &c.DisplayName, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return collections, nil
}

// Ensure creates the collection when it does not exist yet
func (r *CollectionRepository) Ensure(ctx context.Context, c models.Collection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (uid, display_name, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, c.UID, c.DisplayName, c.Color)
	if err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	return nil
}
