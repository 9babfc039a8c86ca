// Package root contains the root command for the application.
package root

import (
	"bankstmt/statement-core/internal/config"
	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/profiles"
	"bankstmt/statement-core/internal/stmtparser"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags shared by multiple commands.
type CommonFlags struct {
	Input        string
	Output       string
	ProfilesPath string
}

var (
	// Log is the shared logger instance for commands.
	Log = logging.NewLogrusAdapter("info", "text")

	// Cfg is the loaded application configuration, set in PersistentPreRun.
	Cfg *config.Config

	// Registry is the live profile registry, set in PersistentPreRun.
	Registry *profiles.Registry

	// SharedFlags holds flag values common to all commands.
	SharedFlags = CommonFlags{}

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "statement-core",
		Short: "Parse scanned bank statements into structured transaction rows.",
		Long: `statement-core turns word-level page layouts from PDF or OCR extraction
into structured transaction rows: it detects the bank profile, parses rows
against header-anchored columns, extracts account identity, and can learn
profiles for unknown bank layouts with an LLM.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to statement-core!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.WithError(err).Fatal("Failed to load configuration")
			}
			Cfg = cfg
			Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

			path := SharedFlags.ProfilesPath
			if path == "" {
				path = cfg.Profiles.Path
			}
			registry, err := profiles.NewRegistry(profiles.ResolvePath(path), Log)
			if err != nil {
				Log.WithError(err).Fatal("Failed to load profile registry")
			}
			Registry = registry
		},
	}
)

// Init wires the root command's persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input layout JSON file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.ProfilesPath, "profiles", "", "Profile registry JSON file")
}

// FallbackThresholds returns the configured generic-retry tuning.
func FallbackThresholds() stmtparser.FallbackThresholds {
	if Cfg == nil {
		return stmtparser.DefaultFallbackThresholds()
	}
	return stmtparser.FallbackThresholds{
		MinCandidates: Cfg.Fallback.MinCandidates,
		MaxRows:       Cfg.Fallback.MaxRows,
		MinRatio:      Cfg.Fallback.MinRatio,
	}
}
