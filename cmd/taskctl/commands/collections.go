package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCollectionsCmd creates the collections command
func NewCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List task collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			collections, err := e.collections.ListCollections(ctx)
			if err != nil {
				return fmt.Errorf("failed to list collections: %w", err)
			}
			if len(collections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections")
				return nil
			}
			for _, c := range collections {
				marker := " "
				if c.UID == e.cfg.DefaultCollection {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, c.UID, c.DisplayName)
			}
			return nil
		},
	}
}
