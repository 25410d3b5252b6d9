package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

var (
	forgetTypes string
	forgetTags  string
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a memory by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		mem, err := s.Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("fetching memory: %w", err)
		}
		if mem == nil {
			return fmt.Errorf("no memory with id %q", args[0])
		}
		fmt.Printf("id:         %s\n", mem.ID)
		fmt.Printf("type:       %s\n", mem.MemoryType)
		fmt.Printf("title:      %s\n", mem.Title)
		fmt.Printf("tags:       %v\n", mem.Metadata.Tags)
		fmt.Printf("importance: %.3f\n", mem.Metadata.Importance)
		fmt.Printf("created:    %s\n", mem.CreatedAt)
		fmt.Println()
		fmt.Println(mem.Content)
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget [id]",
	Short: "Delete a memory by id, or every memory matching --types/--tags",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		byID := len(args) == 1
		byQuery := forgetTypes != "" || forgetTags != ""
		if byID == byQuery {
			return fmt.Errorf("specify exactly one of: an id argument, or --types/--tags")
		}

		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		if byID {
			if err := s.Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("deleting memory: %w", err)
			}
			return nil
		}

		q := memory.Query{}
		for _, t := range splitCSV(forgetTypes) {
			q.MemoryTypes = append(q.MemoryTypes, memory.ParseType(t))
		}
		q.Tags = splitCSV(forgetTags)

		removed, err := s.DeleteByQuery(context.Background(), q)
		if err != nil {
			return fmt.Errorf("deleting memories: %w", err)
		}
		fmt.Printf("deleted %d memories\n", removed)
		return nil
	},
}

func init() {
	forgetCmd.Flags().StringVar(&forgetTypes, "types", "", "comma-separated memory types to match for deletion")
	forgetCmd.Flags().StringVar(&forgetTags, "tags", "", "comma-separated tags to match for deletion")
	rootCmd.AddCommand(getCmd, forgetCmd)
}
