package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/temporal"
)

func printTask(w io.Writer, label string, task *models.Task) {
	fmt.Fprintf(w, "%s %s\n", label, task.ID)
	fmt.Fprintf(w, "  Title:      %s\n", task.Title)
	fmt.Fprintf(w, "  Status:     %s\n", task.Status)
	fmt.Fprintf(w, "  Collection: %s\n", task.CollectionUID)
	fmt.Fprintf(w, "  Start:      %s\n", formatValue(task.Start))
	fmt.Fprintf(w, "  Due:        %s\n", formatValue(task.Due))
	if task.Recurrence != nil {
		fmt.Fprintf(w, "  Repeats:    %s\n", task.Recurrence.String())
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:       %s\n", strings.Join(task.Tags, ", "))
	}
}

func formatValue(v temporal.Value) string {
	if v.IsZero() {
		return "-"
	}
	return v.String()
}
