package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// AdminClient is the slice of the account admin API the drivers consume.
// *acc.Client satisfies it; tests use fakes.
type AdminClient interface {
	FindUserByEmail(ctx context.Context, email string) (*acc.User, error)
	ListAllProjects(ctx context.Context) ([]acc.Project, error)
	AddUser(ctx context.Context, projectID, userID, roleID string, products []acc.ProductAccess) (*acc.ProjectUser, error)
	RemoveUser(ctx context.Context, projectID, userID string) error
	GetProjectUser(ctx context.Context, projectID, userID string) (*acc.ProjectUser, error)
	UpdateUser(ctx context.Context, projectID, userID string, update acc.UserUpdate) (*acc.ProjectUser, error)
	UserExists(ctx context.Context, projectID, userID string) (bool, error)
}

// DataClient is the slice of the data management API the folder-permission
// driver consumes.
type DataClient interface {
	GetProjectFilesFolderID(ctx context.Context, projectID string) (string, error)
	GetPlansFolderID(ctx context.Context, projectID string) (string, error)
	BatchUpdatePermissions(ctx context.Context, projectID, folderID string, updates []acc.PermissionUpdate) error
}

// Driver composes filter, state store, and executor into the four bulk
// operations, and resumes interrupted ones.
type Driver struct {
	admin    AdminClient
	data     DataClient
	store    *Store
	executor *Executor
	logger   *slog.Logger
}

// NewDriver creates a driver over the given clients and state store.
func NewDriver(admin AdminClient, data DataClient, store *Store) *Driver {
	return &Driver{
		admin:    admin,
		data:     data,
		store:    store,
		executor: NewExecutor(store),
		logger:   logging.WithComponent("bulk.driver"),
	}
}

// RunOptions carries the caller-tunable parts of a bulk run.
type RunOptions struct {
	Filter     *ProjectFilter
	Config     *ExecutorConfig
	OnProgress ProgressFunc
}

func (o *RunOptions) filter() *ProjectFilter {
	if o == nil || o.Filter == nil {
		return &ProjectFilter{}
	}
	return o.Filter
}

func (o *RunOptions) config() *ExecutorConfig {
	if o == nil || o.Config == nil {
		return DefaultExecutorConfig()
	}
	return o.Config
}

func (o *RunOptions) onProgress() ProgressFunc {
	if o == nil {
		return nil
	}
	return o.OnProgress
}

// resolveSubject translates an email into a stable user id.
func (d *Driver) resolveSubject(ctx context.Context, email string) (*acc.User, error) {
	user, err := d.admin.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return user, nil
}

// selectTargets lists account projects and applies the filter.
func (d *Driver) selectTargets(ctx context.Context, filter *ProjectFilter) ([]ProcessItem, error) {
	projects, err := d.admin.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return filter.Apply(projects), nil
}

// run is the shared driver skeleton: create state, flip to in-progress,
// drive the executor, finalize.
func (d *Driver) run(ctx context.Context, opType OperationType, params any, items []ProcessItem, processor ItemProcessor, opts *RunOptions) (*BulkOperationResult, error) {
	if len(items) == 0 {
		// Nothing matched: no state is persisted for an empty target set.
		return &BulkOperationResult{OperationID: uuid.NewString()}, nil
	}

	projectIDs := make([]string, len(items))
	for i, item := range items {
		projectIDs[i] = item.ProjectID
	}

	operationID, err := d.store.Create(opType, params, projectIDs)
	if err != nil {
		return nil, err
	}
	if err := d.store.UpdateStatus(operationID, StatusInProgress); err != nil {
		return nil, err
	}

	d.logger.Info("Starting bulk operation",
		slog.String("operation_id", operationID),
		slog.String("type", string(opType)),
		slog.Int("targets", len(items)),
		slog.Bool("dry_run", opts.config().DryRun),
	)

	result, err := d.executor.Run(ctx, operationID, items, processor, opts.onProgress(), opts.config())
	if err != nil {
		return nil, err
	}

	if err := d.finalize(ctx, operationID, result.Failed); err != nil {
		return nil, err
	}
	return result, nil
}

// finalize writes the terminal status: cancelled when the context was
// cancelled mid-run, failed when any item failed, completed otherwise.
func (d *Driver) finalize(ctx context.Context, operationID string, failed int) error {
	status := StatusCompleted
	switch {
	case ctx.Err() != nil:
		status = StatusCancelled
	case failed > 0:
		status = StatusFailed
	}
	if err := d.store.Complete(operationID, status); err != nil {
		return fmt.Errorf("failed to finalize operation %s: %w", operationID, err)
	}
	return nil
}

// Resume continues an interrupted operation, re-processing only items with
// no persisted result. Parameters, the resolved subject id included, come
// from the stored record.
func (d *Driver) Resume(ctx context.Context, operationID string, opts *RunOptions) (*BulkOperationResult, error) {
	state, err := d.store.Load(operationID)
	if err != nil {
		return nil, err
	}
	if state.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: operation %s is %s and cannot be resumed", ErrInvalidOperation, operationID, state.Status)
	}

	processor, err := d.processorFromState(state)
	if err != nil {
		return nil, err
	}

	pending := state.PendingProjects()
	if len(pending) == 0 {
		result := aggregateFromState(state, nil, 0)
		if err := d.finalize(ctx, operationID, result.Failed); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := d.store.UpdateStatus(operationID, StatusInProgress); err != nil {
		return nil, err
	}

	d.logger.Info("Resuming bulk operation",
		slog.String("operation_id", operationID),
		slog.String("type", string(state.OperationType)),
		slog.Int("pending", len(pending)),
		slog.Int("already_done", len(state.Results)),
	)

	items := make([]ProcessItem, len(pending))
	for i, id := range pending {
		items[i] = ProcessItem{ProjectID: id}
	}

	start := time.Now()
	runResult, err := d.executor.Run(ctx, operationID, items, processor, opts.onProgress(), opts.config())
	if err != nil {
		return nil, err
	}

	result := aggregateFromState(state, runResult.Details, time.Since(start))
	if err := d.finalize(ctx, operationID, result.Failed); err != nil {
		return nil, err
	}
	return result, nil
}

// processorFromState rebuilds the per-operation processor closure from the
// persisted parameters.
func (d *Driver) processorFromState(state *OperationState) (ItemProcessor, error) {
	switch state.OperationType {
	case OpAddUser:
		var params AddUserParams
		if err := json.Unmarshal(state.Parameters, &params); err != nil {
			return nil, fmt.Errorf("failed to parse %s parameters: %w", state.OperationType, err)
		}
		return d.addUserProcessor(params), nil
	case OpRemoveUser:
		var params RemoveUserParams
		if err := json.Unmarshal(state.Parameters, &params); err != nil {
			return nil, fmt.Errorf("failed to parse %s parameters: %w", state.OperationType, err)
		}
		return d.removeUserProcessor(params), nil
	case OpUpdateRole:
		var params UpdateRoleParams
		if err := json.Unmarshal(state.Parameters, &params); err != nil {
			return nil, fmt.Errorf("failed to parse %s parameters: %w", state.OperationType, err)
		}
		return d.updateRoleProcessor(params), nil
	case OpUpdateFolderRights:
		var params FolderRightsParams
		if err := json.Unmarshal(state.Parameters, &params); err != nil {
			return nil, fmt.Errorf("failed to parse %s parameters: %w", state.OperationType, err)
		}
		actions, err := params.Level.Actions()
		if err != nil {
			return nil, err
		}
		return d.folderRightsProcessor(params, actions), nil
	default:
		return nil, fmt.Errorf("%w: unknown operation type %q", ErrInvalidOperation, state.OperationType)
	}
}

// aggregateFromState merges persisted item records with the details of a
// resume run. Duration covers this invocation only.
func aggregateFromState(state *OperationState, newDetails []ItemDetail, duration time.Duration) *BulkOperationResult {
	result := &BulkOperationResult{
		OperationID: state.OperationID,
		Total:       len(state.ProjectIDs),
		Duration:    duration,
	}

	seen := make(map[string]bool, len(newDetails))
	for _, detail := range newDetails {
		seen[detail.ProjectID] = true
		result.Details = append(result.Details, detail)
	}
	for projectID, record := range state.Results {
		if seen[projectID] {
			continue
		}
		result.Details = append(result.Details, ItemDetail{
			ProjectID: projectID,
			Result:    record.Result,
			Attempts:  record.Attempts,
		})
	}

	for _, detail := range result.Details {
		switch detail.Result.Kind {
		case ResultSuccess:
			result.Completed++
		case ResultSkipped:
			result.Skipped++
		case ResultFailed:
			result.Failed++
		}
	}
	return result
}
