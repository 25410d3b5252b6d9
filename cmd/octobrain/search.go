package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories by hybrid vector/keyword/recency/importance ranking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryText := args[0]

		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		q := memory.Query{QueryText: &queryText, Limit: &searchLimit}
		results, err := s.Search(context.Background(), q)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		for _, r := range results {
			fmt.Printf("%.3f  %-36s  %s\n", r.RelevanceScore, r.Memory.ID, r.Memory.Title)
			if r.SelectionReason != "" {
				fmt.Printf("         %s\n", r.SelectionReason)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
}
