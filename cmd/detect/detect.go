// Package detect handles the bank profile detection command.
package detect

import (
	"bankstmt/statement-core/cmd/common"
	"bankstmt/statement-core/cmd/root"
	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/pipeline"

	"github.com/spf13/cobra"
)

// Cmd represents the detect command.
var Cmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the bank profile for a statement layout",
	Long:  `Run profile detection over the statement's page text and report the match.`,
	Run:   detectFunc,
}

type detection struct {
	Profile string `json:"profile"`
	Generic bool   `json:"generic"`
}

func detectFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("No input file specified, use --input")
	}

	pages, err := common.LoadLayout(root.SharedFlags.Input)
	if err != nil {
		root.Log.WithError(err).Fatal("Failed to load layout")
	}

	processor := pipeline.NewProcessor(root.Registry, root.FallbackThresholds(), root.Log)
	profile := processor.DetectProfile(pages)

	root.Log.WithField(logging.FieldProfile, profile.Name).Info("Profile detected")
	out := detection{Profile: profile.Name, Generic: profile.Name == root.Registry.Generic().Name}
	if err := common.WriteJSON(root.SharedFlags.Output, out); err != nil {
		root.Log.WithError(err).Fatal("Failed to write result")
	}
}
