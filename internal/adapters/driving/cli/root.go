// Package cli provides the ragbroker command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbroker/internal/adapters/driven/config"
	"github.com/custodia-labs/ragbroker/internal/app"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragbroker",
	Short: "Scoped retrieval broker for personal and team document search",
	Long: `ragbroker unifies a local embedded document index and a team-shared
peer node behind one API. Documents are ingested into a scope (local or
shared), searched by semantic similarity, and served to teammates over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.ragbroker/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// buildApp loads configuration and wires the application.
func buildApp() (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Mode = "dev"
	}
	return app.New(cfg)
}
