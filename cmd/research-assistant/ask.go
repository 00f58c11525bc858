// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from all configured sources",
	Long: `Ask runs the full pipeline for one question: concurrent retrieval from
the document index, web search, arXiv, and conversation memory; quality
filtering; and synthesis of a cited answer. The exchange is saved to
memory so later questions can build on it.

Degraded sources never abort the answer; their status is reported in the
source availability section.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userID, _ := cmd.Flags().GetString("user")

	answer := a.pipe.Answer(context.Background(), types.AskRequest{
		QuestionText: question,
		UserID:       userID,
		SessionID:    sessionID,
	})

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(answer)
	return nil
}

func printAnswer(answer types.StructuredAnswer) {
	fmt.Println(answer.MainAnswer)

	if len(answer.KeyClaims) > 0 {
		fmt.Println("\nKey claims:")
		for _, c := range answer.KeyClaims {
			fmt.Printf("  - %s (confidence %.2f, cites %s)\n",
				c.ClaimText, c.Confidence, strings.Join(c.CitedFragmentIDs, ", "))
		}
	}

	fmt.Printf("\nOverall confidence: %.2f", answer.OverallConfidence)
	if answer.Degraded {
		fmt.Print(" (degraded)")
	}
	fmt.Println()

	fmt.Println("Source availability:")
	for _, kind := range types.AllSourceKinds {
		if status, ok := answer.SourceAvailability[kind]; ok {
			fmt.Printf("  %-15s %s\n", kind, status)
		}
	}
}

func init() {
	askCmd.Flags().String("session", "", "session ID (default: a new random ID)")
	askCmd.Flags().String("user", "local", "user ID recorded with the exchange")
	askCmd.Flags().Bool("json", false, "output the structured answer as JSON")

	rootCmd.AddCommand(askCmd)
}
