package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
	"github.com/dmytro-yemelianov/accadmin/internal/config"
)

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply a change across many projects at once",
		Long: `Bulk commands resolve a user by email, select target projects with a
filter expression, and apply the change to every match. Progress is persisted
per project; an interrupted run can be resumed with "accadmin ops resume".

Filter expressions are comma-separated key:value pairs, for example:
  --filter "name:Tower*,status:active,created:>2024-01-01"`,
	}

	cmd.AddCommand(
		newBulkAddUserCmd(),
		newBulkRemoveUserCmd(),
		newBulkUpdateRoleCmd(),
		newBulkUpdateFolderPermissionsCmd(),
	)

	return cmd
}

// bulkFlags are the flags shared by every bulk subcommand.
type bulkFlags struct {
	filter      string
	projects    []string
	exclude     []string
	concurrency int
	maxRetries  int
	dryRun      bool
	quiet       bool
}

func (f *bulkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filter, "filter", "", "Project filter expression (key:value pairs)")
	cmd.Flags().StringSliceVar(&f.projects, "project", nil, "Restrict to specific project ids (repeatable)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude-project", nil, "Exclude specific project ids (repeatable)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Parallel API calls (default from config)")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", -1, "Retry attempts per project (default from config)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report targets without applying changes")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Disable the progress bar")
}

// runOptions builds executor options from config and flags.
func (f *bulkFlags) runOptions(cfg *config.Config) (*bulk.RunOptions, *progressRenderer, error) {
	filter, err := bulk.ParseFilter(f.filter)
	if err != nil {
		return nil, nil, err
	}
	filter.IncludeIDs = f.projects
	filter.ExcludeIDs = f.exclude

	renderer := newProgressRenderer(!f.quiet)
	opts := &bulk.RunOptions{
		Filter:     filter,
		Config:     executorConfig(cfg, f.concurrency, f.maxRetries, f.dryRun),
		OnProgress: renderer.Update,
	}
	return opts, renderer, nil
}

// signalContext cancels on SIGINT/SIGTERM so an interrupted run finalizes
// its state as cancelled instead of dying mid-write.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type bulkRun func(ctx context.Context, driver *bulk.Driver, opts *bulk.RunOptions) (*bulk.BulkOperationResult, error)

// executeBulk is the shared body of the four subcommands.
func executeBulk(cmd *cobra.Command, flags *bulkFlags, opType bulk.OperationType, email string, run bulkRun) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, renderer, err := flags.runOptions(cfg)
	if err != nil {
		return err
	}

	driver, _, err := buildDriver(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	started := time.Now()
	result, err := run(ctx, driver, opts)
	renderer.Finish()
	if err != nil {
		return err
	}

	printSummary(result, flags.dryRun)
	auditRecord(cfg, result, opType, email, opts.Filter.String(), flags.dryRun, false, started)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d projects failed", result.Failed, result.Total)
	}
	return nil
}

func newBulkAddUserCmd() *cobra.Command {
	var (
		flags    bulkFlags
		roleID   string
		products []string
	)

	cmd := &cobra.Command{
		Use:   "add-user <email>",
		Short: "Add a user to every matching project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			access, err := parseProducts(products)
			if err != nil {
				return err
			}
			return executeBulk(cmd, &flags, bulk.OpAddUser, email,
				func(ctx context.Context, driver *bulk.Driver, opts *bulk.RunOptions) (*bulk.BulkOperationResult, error) {
					return driver.AddUser(ctx, email, roleID, access, opts)
				})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&roleID, "role", "", "Role id to assign on join")
	cmd.Flags().StringSliceVar(&products, "product", nil, "Product access as key=level, e.g. docs=member (repeatable)")

	return cmd
}

func newBulkRemoveUserCmd() *cobra.Command {
	var flags bulkFlags

	cmd := &cobra.Command{
		Use:   "remove-user <email>",
		Short: "Remove a user from every matching project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			return executeBulk(cmd, &flags, bulk.OpRemoveUser, email,
				func(ctx context.Context, driver *bulk.Driver, opts *bulk.RunOptions) (*bulk.BulkOperationResult, error) {
					return driver.RemoveUser(ctx, email, opts)
				})
		},
	}

	flags.register(cmd)
	return cmd
}

func newBulkUpdateRoleCmd() *cobra.Command {
	var (
		flags    bulkFlags
		fromRole string
	)

	cmd := &cobra.Command{
		Use:   "update-role <email> <new-role-id>",
		Short: "Change a user's role in every matching project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, newRole := args[0], args[1]
			return executeBulk(cmd, &flags, bulk.OpUpdateRole, email,
				func(ctx context.Context, driver *bulk.Driver, opts *bulk.RunOptions) (*bulk.BulkOperationResult, error) {
					return driver.UpdateRole(ctx, email, newRole, fromRole, opts)
				})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&fromRole, "from-role", "", "Only change members currently holding this role id")

	return cmd
}

func newBulkUpdateFolderPermissionsCmd() *cobra.Command {
	var (
		flags  bulkFlags
		folder string
		level  string
	)

	cmd := &cobra.Command{
		Use:   "update-folder-permissions <email>",
		Short: "Set a user's folder permission level in every matching project",
		Long: `Sets the user's permission level on a folder in every matching project.
--folder accepts "project-files", "plans", or a concrete folder urn.
--level accepts view-only, view-download, upload-only, view-download-upload,
view-download-upload-edit, or folder-control.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]

			folderType, err := bulk.ParseFolderType(folder)
			if err != nil {
				return err
			}
			permLevel, err := bulk.ParsePermissionLevel(level)
			if err != nil {
				return err
			}

			return executeBulk(cmd, &flags, bulk.OpUpdateFolderRights, email,
				func(ctx context.Context, driver *bulk.Driver, opts *bulk.RunOptions) (*bulk.BulkOperationResult, error) {
					return driver.UpdateFolderRights(ctx, email, folderType, permLevel, opts)
				})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&folder, "folder", "project-files", "Target folder: project-files, plans, or a folder urn")
	cmd.Flags().StringVar(&level, "level", "", "Permission level to set (required)")
	_ = cmd.MarkFlagRequired("level")

	return cmd
}

// parseProducts converts key=level pairs into product access entries.
func parseProducts(pairs []string) ([]acc.ProductAccess, error) {
	var access []acc.ProductAccess
	for _, pair := range pairs {
		key, level, found := strings.Cut(pair, "=")
		if !found || key == "" || level == "" {
			return nil, fmt.Errorf("invalid product access %q, expected key=level", pair)
		}
		access = append(access, acc.ProductAccess{Key: key, Access: level})
	}
	return access, nil
}
