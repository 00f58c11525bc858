// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the conversation memory store",
	Long: `Memory inspects the SQLite store of past question/answer exchanges.
The same store feeds the memory source adapter during retrieval.`,
}

var memoryRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent exchanges",
	RunE:  runMemoryRecent,
}

func runMemoryRecent(cmd *cobra.Command, args []string) error {
	store, err := openMemory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	turns, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatTurns(turns, jsonOutput)
}

var memorySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored exchanges",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemorySearch,
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	store, err := openMemory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	turns, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatTurns(turns, jsonOutput)
}

func openMemory() (*memory.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return memory.Open(cfg.Memory)
}

func formatTurns(turns []memory.Turn, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turns)
	}

	if len(turns) == 0 {
		fmt.Println("No exchanges found.")
		return nil
	}

	for _, t := range turns {
		answer := t.Answer
		if r := []rune(answer); len(r) > 120 {
			answer = string(r[:117]) + "..."
		}
		fmt.Printf("%s  [%s]  conf %.2f\n  Q: %s\n  A: %s\n\n",
			t.CreatedAt.Format("2006-01-02 15:04"), t.SessionID, t.Confidence, t.Question, answer)
	}
	fmt.Printf("%d exchanges\n", len(turns))
	return nil
}

func init() {
	memoryCmd.PersistentFlags().Int("limit", 0, "maximum results (0 = store default)")
	memoryCmd.PersistentFlags().Bool("json", false, "output as JSON")

	memoryCmd.AddCommand(memoryRecentCmd)
	memoryCmd.AddCommand(memorySearchCmd)

	rootCmd.AddCommand(memoryCmd)
}
