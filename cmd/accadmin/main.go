package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmytro-yemelianov/accadmin/internal/config"
)

var version = "0.3.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "accadmin",
		Short: "Bulk administration for Autodesk Construction Cloud accounts",
		Long: `accadmin applies account-wide membership and permission changes across
many ACC projects at once: add or remove a user, change their role, or set
their folder permissions on every project matching a filter. Interrupted
runs are durable and resumable.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Path to configuration file")

	rootCmd.AddCommand(
		newBulkCmd(),
		newOpsCmd(),
		newProjectsCmd(),
		newScheduleCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show accadmin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("accadmin v%s\n", version)
		},
	}
}
