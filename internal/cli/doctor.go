package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/config"
	"github.com/ariel-frischer/taglog/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that taglog can read history and write its files",
	Long: `Check that taglog can read history and write its files.

Verifies the git executable (required by the gitcli backend), opens the
repository with the configured backend, and checks the changelog directory
and the package manifest. Exits 1 when a required check fails.`,
	Args: argsBetween(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runDoctor(cmd, cfg)
	},
}

func init() {
	doctorCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, cfg *config.Configuration) error {
	report := health.RunHealthChecks(cmd.Context(), cfg)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
	if !report.Passed {
		return NewExitError(ExitFailure)
	}
	return nil
}
