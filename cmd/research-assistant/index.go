// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/docindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local document chunk index",
	Long: `Index manages the SQLite chunk index behind the vector-index source
adapter. Load ingests prepared chunk YAML files; stats reports the index
size.`,
}

var indexLoadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load prepared chunk files into the index",
	Long: `Load reads chunk YAML files from a directory and ingests them into the
index. Re-loading a document replaces its previous chunks. Files that
fail to parse are counted and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexLoad,
}

func runIndexLoad(cmd *cobra.Command, args []string) error {
	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	summary, err := idx.Load(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d document(s), %d chunk(s)\n", summary.Documents, summary.Chunks)
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to load", summary.Failed)
	}
	return nil
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report index size",
	RunE:  runIndexStats,
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	n, err := idx.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d chunk(s) indexed\n", n)
	return nil
}

func openIndex() (*docindex.Index, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return docindex.Open(cfg.DocIndex)
}

func init() {
	indexCmd.AddCommand(indexLoadCmd)
	indexCmd.AddCommand(indexStatsCmd)

	rootCmd.AddCommand(indexCmd)
}
