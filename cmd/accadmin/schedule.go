package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
	"github.com/dmytro-yemelianov/accadmin/internal/config"
	"github.com/dmytro-yemelianov/accadmin/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run recurring bulk operations declared in the configuration",
	}

	cmd.AddCommand(
		newScheduleListCmd(),
		newScheduleRunCmd(),
		newScheduleStartCmd(),
	)

	return cmd
}

// scheduleRunner executes one schedule entry through the bulk driver.
func scheduleRunner(cfg *config.Config, driver *bulk.Driver) schedule.RunFunc {
	return func(ctx context.Context, entry *config.ScheduleEntry) error {
		filter, err := bulk.ParseFilter(entry.Filter)
		if err != nil {
			return err
		}

		opts := &bulk.RunOptions{
			Filter: filter,
			Config: executorConfig(cfg, 0, -1, false),
		}

		started := time.Now()
		var result *bulk.BulkOperationResult
		var opType bulk.OperationType

		switch entry.Operation {
		case "add-user":
			opType = bulk.OpAddUser
			result, err = driver.AddUser(ctx, entry.Email, entry.RoleID, nil, opts)
		case "remove-user":
			opType = bulk.OpRemoveUser
			result, err = driver.RemoveUser(ctx, entry.Email, opts)
		case "update-role":
			opType = bulk.OpUpdateRole
			result, err = driver.UpdateRole(ctx, entry.Email, entry.RoleID, "", opts)
		default:
			return fmt.Errorf("schedule %q has unsupported operation %q", entry.Name, entry.Operation)
		}
		if err != nil {
			return err
		}

		auditRecord(cfg, result, opType, entry.Email, entry.Filter, false, false, started)

		if result.Failed > 0 {
			return fmt.Errorf("%d of %d projects failed", result.Failed, result.Total)
		}
		return nil
	}
}

func newScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Schedules) == 0 {
				fmt.Println("No schedules configured.")
				return nil
			}

			fmt.Printf("%-24s  %-16s  %-14s  %-28s  %s\n", "NAME", "CRON", "OPERATION", "SUBJECT", "FILTER")
			for _, entry := range cfg.Schedules {
				if err := schedule.ValidateSpec(entry.Cron); err != nil {
					fmt.Printf("%-24s  %s\n", entry.Name, failStyle.Render(err.Error()))
					continue
				}
				fmt.Printf("%-24s  %-16s  %-14s  %-28s  %s\n",
					entry.Name, entry.Cron, entry.Operation, entry.Email, entry.Filter)
			}
			return nil
		},
	}
}

func newScheduleRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run one configured schedule immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			driver, _, err := buildDriver(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			scheduler := schedule.NewScheduler(cfg.Schedules, scheduleRunner(cfg, driver))
			if err := scheduler.RunNow(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Schedule %q finished.\n", args[0])
			return nil
		},
	}
}

func newScheduleStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler in the foreground",
		Long:  `Starts the cron loop and blocks until interrupted. Every configured schedule fires on its cron expression.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Schedules) == 0 {
				return fmt.Errorf("no schedules configured")
			}

			driver, _, err := buildDriver(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			scheduler := schedule.NewScheduler(cfg.Schedules, scheduleRunner(cfg, driver))
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			defer scheduler.Stop()

			for _, status := range scheduler.Status() {
				fmt.Printf("Schedule %q next runs at %s\n",
					status.Name, status.NextRun.Local().Format(time.RFC3339))
			}

			<-ctx.Done()
			fmt.Println("Shutting down scheduler...")
			return nil
		},
	}
}
