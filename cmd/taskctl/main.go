package main

import (
	"fmt"
	"os"

	"github.com/benvon/pimtask/cmd/taskctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskctl",
		Short: "Command-line task editor",
		Long:  "Edit, complete and delete tasks, and preview recurrence, against the pimtask database",
	}

	rootCmd.AddCommand(commands.NewCollectionsCmd())
	rootCmd.AddCommand(commands.NewEditCmd())
	rootCmd.AddCommand(commands.NewNextCmd())
	rootCmd.AddCommand(commands.NewDeleteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
