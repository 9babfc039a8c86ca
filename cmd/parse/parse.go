// Package parse handles the statement parsing command.
package parse

import (
	"strings"

	"bankstmt/statement-core/cmd/common"
	"bankstmt/statement-core/cmd/root"
	"bankstmt/statement-core/internal/export"
	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/pipeline"

	"github.com/spf13/cobra"
)

var csvOutput string

// Cmd represents the parse command.
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a statement layout into transaction rows",
	Long: `Parse word-level page layouts into transaction rows. The detected bank
profile drives header-anchored column parsing; pages with poor yield are
retried with the generic profile. Output is JSON, or CSV with --csv.`,
	Run: parseFunc,
}

func init() {
	Cmd.Flags().StringVar(&csvOutput, "csv", "", "Also write transaction rows to this CSV file")
}

func parseFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("No input file specified, use --input")
	}

	pages, err := common.LoadLayout(root.SharedFlags.Input)
	if err != nil {
		root.Log.WithError(err).Fatal("Failed to load layout")
	}

	processor := pipeline.NewProcessor(root.Registry, root.FallbackThresholds(), root.Log)
	result := processor.ProcessStatement(pages)

	root.Log.WithField(logging.FieldProfile, result.ProfileDetected).
		WithField(logging.FieldRows, len(result.Rows)).
		Info("Statement parsed")
	if !result.Quality.Passes {
		root.Log.WithField(logging.FieldReason, strings.Join(result.Quality.Reasons, ",")).
			Warn("Parse quality below acceptance bar")
	}

	if csvOutput != "" {
		if err := export.WriteRowsCSV(result.Rows, csvOutput, root.Log); err != nil {
			root.Log.WithError(err).Fatal("Failed to write CSV")
		}
	}

	if err := common.WriteJSON(root.SharedFlags.Output, result); err != nil {
		root.Log.WithError(err).Fatal("Failed to write result")
	}
}
