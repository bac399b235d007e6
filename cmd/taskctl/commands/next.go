package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/spf13/cobra"
)

// NewNextCmd creates the next command
func NewNextCmd() *cobra.Command {
	var rrule, start, due, zoneName string
	var includeTime bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the occurrence after a completed one",
		Long:  "Compute the next start and due of a recurring task without touching storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.Local
			if zoneName != "" {
				var err error
				if loc, err = time.LoadLocation(zoneName); err != nil {
					return fmt.Errorf("unknown timezone %q: %w", zoneName, err)
				}
			}
			return printNext(cmd.OutOrStdout(), rrule, start, due, includeTime, loc)
		},
	}

	cmd.Flags().StringVar(&rrule, "rrule", "", "Recurrence rule, e.g. FREQ=WEEKLY;COUNT=3")
	cmd.Flags().StringVar(&start, "start", "", "Start of the completed occurrence")
	cmd.Flags().StringVar(&due, "due", "", "Due of the completed occurrence")
	cmd.Flags().BoolVar(&includeTime, "time", false, "Start and due carry a time of day")
	cmd.Flags().StringVar(&zoneName, "timezone", "", "Zone the values are read in (defaults to the system zone)")
	_ = cmd.MarkFlagRequired("rrule")

	return cmd
}

func printNext(w io.Writer, rawRule, rawStart, rawDue string, includeTime bool, loc *time.Location) error {
	rule, err := recurrence.Parse(rawRule, loc)
	if err != nil {
		return fmt.Errorf("rrule: %w", err)
	}
	startCivil, err := draft.ParseCivil(rawStart, loc)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	dueCivil, err := draft.ParseCivil(rawDue, loc)
	if err != nil {
		return fmt.Errorf("due: %w", err)
	}

	completed := recurrence.Occurrence{
		Start: zoned(startCivil, includeTime, loc),
		Due:   zoned(dueCivil, includeTime, loc),
	}
	if completed.Anchor().IsZero() {
		return fmt.Errorf("a start or due is required")
	}

	next, ok, err := recurrence.Next(rule, completed)
	if err != nil {
		return fmt.Errorf("compute next occurrence: %w", err)
	}
	if !ok {
		fmt.Fprintln(w, "Series has ended")
		return nil
	}
	fmt.Fprintf(w, "Start: %s\n", formatValue(next.Start))
	fmt.Fprintf(w, "Due:   %s\n", formatValue(next.Due))
	if rule.Terminates() {
		fmt.Fprintf(w, "Rule:  %s\n", rule.Successor().String())
	}
	return nil
}

func zoned(civil *time.Time, includeTime bool, loc *time.Location) temporal.Value {
	if civil == nil {
		return temporal.Value{}
	}
	return temporal.ToZoned(*civil, includeTime, loc)
}
