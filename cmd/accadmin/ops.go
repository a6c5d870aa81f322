package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmytro-yemelianov/accadmin/internal/audit"
	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
)

func newOpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "Inspect and manage bulk operations",
	}

	cmd.AddCommand(
		newOpsListCmd(),
		newOpsShowCmd(),
		newOpsResumeCmd(),
		newOpsCancelCmd(),
		newOpsDeleteCmd(),
		newOpsHistoryCmd(),
	)

	return cmd
}

func newOpsListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored operations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openState(cfg)
			if err != nil {
				return err
			}

			summaries, err := store.List(bulk.OperationStatus(status))
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No operations found.")
				return nil
			}

			fmt.Printf("%-36s  %-20s  %-12s  %-9s  %s\n", "OPERATION", "TYPE", "STATUS", "PROGRESS", "UPDATED")
			for _, s := range summaries {
				fmt.Printf("%-36s  %-20s  %-12s  %4d/%-4d  %s\n",
					s.OperationID,
					s.OperationType,
					renderStatus(s.Status),
					s.Done, s.Total,
					s.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, in_progress, completed, failed, cancelled)")
	return cmd
}

func renderStatus(status bulk.OperationStatus) string {
	switch status {
	case bulk.StatusCompleted:
		return okStyle.Render(string(status))
	case bulk.StatusFailed, bulk.StatusCancelled:
		return failStyle.Render(string(status))
	default:
		return string(status)
	}
}

func newOpsShowCmd() *cobra.Command {
	var showItems bool

	cmd := &cobra.Command{
		Use:   "show <operation-id>",
		Short: "Show one operation in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openState(cfg)
			if err != nil {
				return err
			}

			state, err := store.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Println(headerStyle.Render("Operation " + state.OperationID))
			fmt.Printf("   Type:     %s\n", state.OperationType)
			fmt.Printf("   Status:   %s\n", renderStatus(state.Status))
			fmt.Printf("   Targets:  %d (%d done)\n", len(state.ProjectIDs), len(state.Results))
			fmt.Printf("   Created:  %s\n", state.CreatedAt.Local().Format(time.RFC3339))
			fmt.Printf("   Updated:  %s\n", state.UpdatedAt.Local().Format(time.RFC3339))
			fmt.Printf("   Params:   %s\n", state.Parameters)

			if showItems {
				fmt.Println()
				for _, id := range state.ProjectIDs {
					record, done := state.Results[id]
					switch {
					case !done:
						fmt.Printf("   %-40s %s\n", id, "pending")
					case record.Result.Kind == bulk.ResultSuccess:
						fmt.Printf("   %-40s %s\n", id, okStyle.Render("ok"))
					case record.Result.Kind == bulk.ResultSkipped:
						fmt.Printf("   %-40s %s\n", id, skipStyle.Render("skipped: "+record.Result.Reason))
					default:
						fmt.Printf("   %-40s %s\n", id, failStyle.Render("failed: "+record.Result.Error))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showItems, "items", false, "List per-project outcomes")
	return cmd
}

func newOpsResumeCmd() *cobra.Command {
	var (
		concurrency int
		maxRetries  int
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "resume [operation-id]",
		Short: "Resume an interrupted or failed operation",
		Long: `Resumes an operation, re-processing only projects with no recorded
outcome or a failed one. Without an id, the most recently updated in-progress
operation is resumed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			driver, store, err := buildDriver(cfg)
			if err != nil {
				return err
			}

			var operationID string
			if len(args) == 1 {
				operationID = args[0]
			} else {
				id, ok, err := store.GetResumable()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("No resumable operation found.")
					return nil
				}
				operationID = id
			}

			state, err := store.Load(operationID)
			if err != nil {
				return err
			}

			renderer := newProgressRenderer(!quiet)
			opts := &bulk.RunOptions{
				Config:     executorConfig(cfg, concurrency, maxRetries, false),
				OnProgress: renderer.Update,
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			started := time.Now()
			result, err := driver.Resume(ctx, operationID, opts)
			renderer.Finish()
			if err != nil {
				return err
			}

			printSummary(result, false)
			auditRecord(cfg, result, state.OperationType, subjectEmail(state), "", false, true, started)

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d projects failed", result.Failed, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel API calls (default from config)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "Retry attempts per project (default from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable the progress bar")
	return cmd
}

// subjectEmail pulls the subject email out of the persisted parameters.
// Every operation type stores one.
func subjectEmail(state *bulk.OperationState) string {
	var params struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(state.Parameters, &params); err != nil {
		return ""
	}
	return params.Email
}

func newOpsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <operation-id>",
		Short: "Mark a pending or in-progress operation cancelled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openState(cfg)
			if err != nil {
				return err
			}

			if err := store.Cancel(args[0]); err != nil {
				return err
			}
			fmt.Printf("Operation %s cancelled.\n", args[0])
			return nil
		},
	}
}

func newOpsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <operation-id>",
		Short: "Delete a stored operation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openState(cfg)
			if err != nil {
				return err
			}

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Operation %s deleted.\n", args[0])
			return nil
		},
	}
}

func newOpsHistoryCmd() *cobra.Command {
	var (
		limit  int
		opType string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished operations from the audit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Audit == nil || !cfg.Audit.Enabled {
				fmt.Println("Audit history is disabled in the configuration.")
				return nil
			}

			store, err := audit.NewStore(cfg.Audit.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var entries []*audit.Entry
			if opType != "" {
				entries, err = store.ListByType(opType, limit)
			} else {
				entries, err = store.List(limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}

			fmt.Printf("%-36s  %-20s  %-10s  %-28s  %-16s  %s\n",
				"OPERATION", "TYPE", "STATUS", "SUBJECT", "OK/SKIP/FAIL", "FINISHED")
			for _, e := range entries {
				counts := fmt.Sprintf("%d/%d/%d", e.Completed, e.Skipped, e.Failed)
				fmt.Printf("%-36s  %-20s  %-10s  %-28s  %-16s  %s\n",
					e.OperationID, e.OperationType, e.Status, e.SubjectEmail, counts,
					e.FinishedAt.Local().Format("2006-01-02 15:04:05"))
			}

			summary, err := store.Summarize()
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Printf("%d operations: %d completed, %d skipped, %d failed items\n",
				summary.Operations, summary.Completed, summary.Skipped, summary.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&opType, "type", "", "Filter by operation type (add_user, remove_user, update_role, update_folder_rights)")
	return cmd
}
