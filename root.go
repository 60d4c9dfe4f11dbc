package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// NewRootCmd creates the root command for the Manta Flow server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mantaflow",
		Short:         "Manta Flow dashboard API",
		Long:          `Manta Flow serves account registration, sign-in and session APIs for the agent dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	})

	return cmd
}
