package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/editor"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewEditCmd creates the edit command
func NewEditCmd() *cobra.Command {
	var file, taskID, collection string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Create or edit a task from a YAML document",
		Long: `Apply a YAML edit document to a new task, or to an existing one with --task,
and save it. Completing a recurring task creates its next occurrence.

Example document:

  title: Water plants
  status: COMPLETED
  start: 2024-01-01
  due: 2024-01-02
  rrule: FREQ=WEEKLY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			d, original, err := e.loadDraft(ctx, taskID, collection)
			if err != nil {
				return err
			}

			if err := doc.Apply(d, temporal.LocalZone(e.zones).Location()); err != nil {
				return fmt.Errorf("apply edit document: %w", err)
			}
			session := editor.NewSession(d, original, e.store, e.zones, editor.WithLogger(e.logger))
			if preview, ok := session.ZonePreview(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Start in %s: %s\n", preview.Zone, formatValue(preview.Start))
			}

			result, err := session.Submit(ctx)
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), "Saved task", result.Task)
			if result.Successor != nil {
				printTask(cmd.OutOrStdout(), "Next occurrence", result.Successor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Edit document path, or - for stdin")
	cmd.Flags().StringVar(&taskID, "task", "", "ID of the task to edit; omit to create a task")
	cmd.Flags().StringVar(&collection, "collection", "", "Collection for a new task (defaults to DEFAULT_COLLECTION)")

	return cmd
}

func readDocument(cmd *cobra.Command, path string) (*EditDocument, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open edit document: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return ReadEditDocument(r)
}

// loadDraft opens a draft on an existing task, or a fresh one in collection
func (e *env) loadDraft(ctx context.Context, taskID, collection string) (*draft.Draft, *models.Task, error) {
	if taskID != "" {
		task, err := e.getTask(ctx, taskID)
		if err != nil {
			return nil, nil, err
		}
		if collection != "" && collection != task.CollectionUID {
			return nil, nil, fmt.Errorf("task %s belongs to collection %q and cannot be moved", task.ID, task.CollectionUID)
		}
		return draft.FromExisting(task, e.zones), task, nil
	}

	collections, err := e.collections.ListCollections(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list collections: %w", err)
	}
	if collection == "" {
		collection = e.cfg.DefaultCollection
	}
	found := false
	for _, c := range collections {
		if c.UID == collection {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("unknown collection %q", collection)
	}
	return draft.Fresh(collection, collections, e.zones), nil, nil
}

func (e *env) getTask(ctx context.Context, raw string) (*models.Task, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid task ID %q: %w", raw, err)
	}
	task, err := e.tasks.GetByID(ctx, id)
	if errors.Is(err, database.ErrTaskNotFound) {
		return nil, fmt.Errorf("task %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}
