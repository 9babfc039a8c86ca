// Package identity handles the account identity extraction command.
package identity

import (
	"context"
	"fmt"

	"bankstmt/statement-core/cmd/common"
	"bankstmt/statement-core/cmd/root"
	"bankstmt/statement-core/internal/analyzer"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/pipeline"
	"bankstmt/statement-core/internal/profiles"

	"github.com/spf13/cobra"
)

var useLLM bool

// Cmd represents the identity command.
var Cmd = &cobra.Command{
	Use:   "identity",
	Short: "Extract account holder name and number",
	Long: `Extract the account holder name and account number from a statement
layout using the detected profile's patterns, optionally assisted by an LLM,
and re-localize the values on the page geometry.`,
	Run: identityFunc,
}

func init() {
	Cmd.Flags().BoolVar(&useLLM, "llm", false, "Use the configured LLM provider with heuristic fallback")
}

type identityReport struct {
	models.IdentityOutcome
	NameBounds   *models.BBox `json:"account_name_bounds"`
	NumberBounds *models.BBox `json:"account_number_bounds"`
	Page         int          `json:"page"`
}

func identityFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("No input file specified, use --input")
	}

	pages, err := common.LoadLayout(root.SharedFlags.Input)
	if err != nil {
		root.Log.WithError(err).Fatal("Failed to load layout")
	}

	processor := pipeline.NewProcessor(root.Registry, root.FallbackThresholds(), root.Log)
	profile := processor.DetectProfile(pages)

	var firstPage *models.PageLayout
	for i := range pages {
		if pages[i].Text != "" {
			firstPage = &pages[i]
			break
		}
	}
	if firstPage == nil {
		root.Log.Fatal("Layout contains no page text")
	}

	report := identityReport{Page: firstPage.Page}
	if useLLM {
		report.IdentityOutcome = llmIdentity(firstPage.Text)
	} else {
		found := root.Registry.ExtractAccountIdentity(firstPage.Text, profile)
		report.IdentityOutcome = models.IdentityOutcome{
			Result:        "applied",
			Reason:        "identity_extracted",
			AccountName:   found.AccountName,
			AccountNumber: found.AccountNumber,
		}
		if found.AccountName == nil && found.AccountNumber == nil {
			report.Result = "failed"
			report.Reason = "identity_not_found"
		}
	}

	pageLabel := fmt.Sprintf("page_%d", firstPage.Page)
	if report.AccountName != nil {
		report.NameBounds = profiles.FindValueBounds(
			firstPage.Words, firstPage.Width, firstPage.Height, *report.AccountName, pageLabel,
		)
	}
	if report.AccountNumber != nil {
		report.NumberBounds = profiles.FindValueBounds(
			firstPage.Words, firstPage.Width, firstPage.Height, *report.AccountNumber, pageLabel,
		)
	}

	if err := common.WriteJSON(root.SharedFlags.Output, report); err != nil {
		root.Log.WithError(err).Fatal("Failed to write result")
	}
}

func llmIdentity(pageText string) models.IdentityOutcome {
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

	learner := analyzer.NewLearner(root.Registry, proposer, qualityThresholds(), root.Log)
	return learner.AnalyzeAccountIdentity(context.Background(), pageText)
}

func qualityThresholds() analyzer.QualityThresholds {
	cfg := root.Cfg
	return analyzer.QualityThresholds{
		SamplePages:     cfg.Analyzer.SamplePages,
		MinRows:         cfg.Analyzer.MinRows,
		MinDateRatio:    cfg.Analyzer.MinDateRatio,
		MinBalanceRatio: cfg.Analyzer.MinBalanceRatio,
	}
}
