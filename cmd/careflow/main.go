package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Reaishma/Healthcare-informatics-solution/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "careflow",
		Short: "Care-unit operations dashboard backend",
		Long: `careflow serves the operations dashboard of a care unit: workflows, tasks,
staff schedules, patient-flow stages and the sprint board, with every change
pushed live to connected browsers over /ws.

Settings come from careflow.yaml (or --config) and CAREFLOW_* environment
variables, e.g. CAREFLOW_STORAGE_DRIVER=postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")

	load := func() (config.Config, error) { return config.Load(configPath) }
	rootCmd.AddCommand(newServeCommand(load))
	rootCmd.AddCommand(newMigrateCommand(load))
	return rootCmd
}
