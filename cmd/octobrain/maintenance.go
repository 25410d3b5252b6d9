package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		fmt.Printf("memories:      %d\n", stats.TotalMemories)
		fmt.Printf("relationships: %d\n", stats.TotalRelationships)
		fmt.Printf("dimension:     %d\n", stats.Dimension)
		fmt.Printf("index built:   %t\n", stats.IndexBuilt)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove aged, low-importance memories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		removed, err := s.Cleanup(context.Background())
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		fmt.Printf("removed %d memories\n", removed)
		return nil
	},
}

var clearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Drop and recreate both tables, wiping all memories and relationships",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		removed, err := s.ClearAll(context.Background())
		if err != nil {
			return fmt.Errorf("clear-all: %w", err)
		}
		fmt.Printf("removed %d rows\n", removed)
		return nil
	},
}
