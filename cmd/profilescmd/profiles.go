// Package profilescmd handles the profile registry inspection command.
package profilescmd

import (
	"bankstmt/statement-core/cmd/common"
	"bankstmt/statement-core/cmd/root"
	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/profiles"

	"github.com/spf13/cobra"
)

// Cmd represents the profiles command.
var Cmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the loaded bank profiles and detection rules",
	Run:   profilesFunc,
}

type registryReport struct {
	Path     string                   `json:"path"`
	Profiles []string                 `json:"profiles"`
	Rules    []profiles.DetectionRule `json:"detection_rules"`
}

func profilesFunc(cmd *cobra.Command, args []string) {
	report := registryReport{
		Path:     root.Registry.Path(),
		Profiles: root.Registry.Names(),
		Rules:    root.Registry.Rules(),
	}
	root.Log.WithField(logging.FieldCount, len(report.Profiles)).Info("Registry loaded")
	if err := common.WriteJSON(root.SharedFlags.Output, report); err != nil {
		root.Log.WithError(err).Fatal("Failed to write result")
	}
}
