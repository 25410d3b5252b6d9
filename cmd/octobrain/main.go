// Command octobrain is the operator-facing CLI for the memory store: it
// wraps the store's verbs (memorize, search, get, forget, stats, cleanup,
// clear-all)
// as local commands, generalized from the teacher's cmd/sqvect
// subcommand tree (init/embed/search).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var projectPath string

var rootCmd = &cobra.Command{
	Use:   "octobrain",
	Short: "A persistent semantic memory store for AI agents",
	Long:  "octobrain stores titled text memories with rich metadata and retrieves them by a hybrid of vector similarity, keyword matching, recency, and decayed importance.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectPath, "project", ".", "project path used to derive the storage location")
	rootCmd.AddCommand(memorizeCmd, searchCmd, statsCmd, cleanupCmd, clearAllCmd)
}
