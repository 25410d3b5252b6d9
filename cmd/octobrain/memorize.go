package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

var (
	memorizeType    string
	memorizeTags    string
	memorizeFiles   string
	memorizeImport  float32
)

var memorizeCmd = &cobra.Command{
	Use:   "memorize <title> <content>",
	Short: "Store a new memory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, content := args[0], args[1]

		md := memory.DefaultMetadata()
		if memorizeImport > 0 {
			md.Importance = memorizeImport
		}
		if memorizeTags != "" {
			md.Tags = splitCSV(memorizeTags)
		}
		if memorizeFiles != "" {
			md.RelatedFiles = splitCSV(memorizeFiles)
		}

		mem := memory.New(memory.ParseType(memorizeType), title, content, &md)

		s, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Store(context.Background(), mem); err != nil {
			return fmt.Errorf("storing memory: %w", err)
		}
		fmt.Println(mem.ID)
		return nil
	},
}

func init() {
	memorizeCmd.Flags().StringVar(&memorizeType, "type", "insight", "memory type")
	memorizeCmd.Flags().StringVar(&memorizeTags, "tags", "", "comma-separated tags")
	memorizeCmd.Flags().StringVar(&memorizeFiles, "files", "", "comma-separated related file paths")
	memorizeCmd.Flags().Float32Var(&memorizeImport, "importance", 0, "base importance in [0,1], defaults to 0.5")
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
