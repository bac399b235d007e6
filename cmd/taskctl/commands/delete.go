package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/editor"
	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	var taskID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a task",
		Long:  "Delete a task after confirmation. Use --yes to skip the prompt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			task, err := e.getTask(ctx, taskID)
			if err != nil {
				return err
			}
			session := editor.NewSession(draft.FromExisting(task, e.zones), task, e.store, e.zones, editor.WithLogger(e.logger))
			if err := session.RequestDelete(); err != nil {
				return err
			}

			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q from %s?", task.Title, task.CollectionUID)) {
				session.CancelDelete()
				session.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			if err := session.ConfirmDelete(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "ID of the task to delete")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

// confirm asks a yes/no question; anything but y or yes is a no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
