package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adcp",
	Short: "Sony projector ADCP switch CLI",
	Long:  `A command line interface for switching Sony projector picture memories over ADCP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(cmd.ErrOrStderr())
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
