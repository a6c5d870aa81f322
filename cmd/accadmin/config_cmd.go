package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmytro-yemelianov/accadmin/internal/config"
	"github.com/dmytro-yemelianov/accadmin/internal/schedule"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the accadmin configuration file",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigValidateCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
			}

			cfg := config.DefaultConfig()
			// Credentials come from the environment so the file can be
			// committed or shared without leaking secrets.
			cfg.Auth.ClientID = "${APS_CLIENT_ID}"
			cfg.Auth.ClientSecret = "${APS_CLIENT_SECRET}"
			cfg.Auth.AccountID = "${ACC_ACCOUNT_ID}"

			if err := config.Save(cfg, configPath); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", configPath)
			fmt.Println("Set APS_CLIENT_ID, APS_CLIENT_SECRET, and ACC_ACCOUNT_ID in your environment.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Secrets stay out of terminal output
			if cfg.Auth != nil && cfg.Auth.ClientSecret != "" {
				cfg.Auth.ClientSecret = "********"
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			for _, entry := range cfg.Schedules {
				if err := schedule.ValidateSpec(entry.Cron); err != nil {
					return fmt.Errorf("schedule %q: %w", entry.Name, err)
				}
			}
			fmt.Println("Configuration is valid.")
			return nil
		},
	}
}
