// Package learn handles the profile auto-learning command.
package learn

import (
	"context"
	"encoding/json"
	"os"

	"bankstmt/statement-core/cmd/common"
	"bankstmt/statement-core/cmd/root"
	"bankstmt/statement-core/internal/analyzer"
	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/models"

	"github.com/spf13/cobra"
)

var guidedFile string

// Cmd represents the learn command.
var Cmd = &cobra.Command{
	Use:   "learn",
	Short: "Learn a parsing profile for an unknown bank layout",
	Long: `Ask the configured LLM provider to propose a parsing profile from the
statement's page text, validate the proposal by parsing sample pages with it,
and on success persist it to the profile registry. With --guided, operator
sampled rows steer the proposal.`,
	Run: learnFunc,
}

func init() {
	Cmd.Flags().StringVar(&guidedFile, "guided", "", "JSON file with operator-sampled rows")
}

func learnFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("No input file specified, use --input")
	}

	pages, err := common.LoadLayout(root.SharedFlags.Input)
	if err != nil {
		root.Log.WithError(err).Fatal("Failed to load layout")
	}

	cfg := root.Cfg
	proposer, err := analyzer.NewProposer(analyzer.ProposerConfig{
		Provider:        cfg.Analyzer.Provider,
		Model:           cfg.Analyzer.Model,
		APIKey:          cfg.APIKey(),
		TimeoutSec:      cfg.Analyzer.TimeoutSeconds,
		MaxRetries:      cfg.Analyzer.Retries,
		RetryBackoffSec: cfg.Analyzer.RetryBackoffSec,
	})
	if err != nil {
		root.Log.WithError(err).Fatal("Failed to build analyzer provider")
	}

	thresholds := analyzer.QualityThresholds{
		SamplePages:     cfg.Analyzer.SamplePages,
		MinRows:         cfg.Analyzer.MinRows,
		MinDateRatio:    cfg.Analyzer.MinDateRatio,
		MinBalanceRatio: cfg.Analyzer.MinBalanceRatio,
	}
	learner := analyzer.NewLearner(root.Registry, proposer, thresholds, root.Log)

	var outcome models.LearnOutcome
	if guidedFile != "" {
		guided, err := loadGuidedRows(guidedFile)
		if err != nil {
			root.Log.WithError(err).Fatal("Failed to load guided rows")
		}
		outcome = learner.AnalyzeUnknownBankGuided(context.Background(), pages, guided)
	} else {
		outcome = learner.AnalyzeUnknownBankAndApply(context.Background(), pages)
	}

	root.Log.WithField(logging.FieldResult, outcome.Result).
		WithField(logging.FieldReason, outcome.Reason).
		Info("Learn finished")
	if err := common.WriteJSON(root.SharedFlags.Output, outcome); err != nil {
		root.Log.WithError(err).Fatal("Failed to write result")
	}
}

type guidedPayload struct {
	Rows []models.GuidedRow `json:"rows"`
}

func loadGuidedRows(path string) ([]models.GuidedRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload guidedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		var rows []models.GuidedRow
		if err2 := json.Unmarshal(data, &rows); err2 != nil {
			return nil, err
		}
		return rows, nil
	}
	return payload.Rows, nil
}
