package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/vise/internal/config"
	"github.com/xkilldash9x/vise/internal/observability"
)

var (
	cfgPath  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vise",
	Short: "Interaction and verification engine for hostile web pages",
	Long: `vise drives a real browser through planner-issued intents, escalating
through interaction techniques until the page reacts, and classifies the
reaction from structural fingerprints taken before and after each action.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Logger.Level = logLevel
		}
		observability.InitializeLogger(cfg.Logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: ./vise.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		return 1
	}
	return 0
}
