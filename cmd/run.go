package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/api/schemas"
	"github.com/xkilldash9x/vise/internal/observability"
	"github.com/xkilldash9x/vise/internal/orchestrator"
)

var (
	missionsPath string
	targetURL    string
	reportPath   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute missions against target pages",
	Long: `Run executes one or more missions. A missions file is a JSON array of
{target_url, intents} objects; alternatively --url with an intents-only file
runs a single mission against one page.`,
	RunE: runMissions,
}

func init() {
	runCmd.Flags().StringVar(&missionsPath, "missions", "", "path to a JSON missions file")
	runCmd.Flags().StringVar(&targetURL, "url", "", "single target URL (intents read from --missions as a bare intent array)")
	runCmd.Flags().StringVarP(&reportPath, "out", "o", "", "write the JSON report to this file instead of stdout")
	_ = runCmd.MarkFlagRequired("missions")
	rootCmd.AddCommand(runCmd)
}

func loadMissions() ([]orchestrator.Mission, error) {
	data, err := os.ReadFile(missionsPath)
	if err != nil {
		return nil, fmt.Errorf("read missions file: %w", err)
	}

	if targetURL != "" {
		var intents []schemas.Intent
		if err := jsoniter.Unmarshal(data, &intents); err != nil {
			return nil, fmt.Errorf("parse intents from %s: %w", missionsPath, err)
		}
		return []orchestrator.Mission{{TargetURL: targetURL, Intents: intents}}, nil
	}

	var missions []orchestrator.Mission
	if err := jsoniter.Unmarshal(data, &missions); err != nil {
		return nil, fmt.Errorf("parse missions from %s: %w", missionsPath, err)
	}
	for i, m := range missions {
		if m.TargetURL == "" {
			return nil, fmt.Errorf("mission %d has no target_url", i)
		}
	}
	return missions, nil
}

func runMissions(cmd *cobra.Command, _ []string) error {
	logger := observability.GetLogger()

	missions, err := loadMissions()
	if err != nil {
		return err
	}
	if len(missions) == 0 {
		return fmt.Errorf("no missions to run")
	}

	logger.Info("starting missions", zap.Int("count", len(missions)))

	o := orchestrator.New(cfg, logger)
	reports, err := o.RunMissions(cmd.Context(), missions)
	if err != nil {
		return fmt.Errorf("mission run aborted: %w", err)
	}

	out, err := jsoniter.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if reportPath != "" {
		if err := os.WriteFile(reportPath, out, 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", reportPath, err)
		}
		logger.Info("report written", zap.String("path", reportPath))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
