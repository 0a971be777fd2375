package main

import (
	"fmt"

	"github.com/hupe1980/tourmesh/internal/config"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "tourplanner",
		Short:         "Deep agent tour planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv()
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches tourmesh.{yaml,json} in . and ./config)")

	load := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}

	root.AddCommand(serveCmd(load), chatCmd(load), versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tourplanner", version)
		},
	}
}
