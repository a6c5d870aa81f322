package bulk

import (
	"context"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
)

// FolderRightsParams are the persisted inputs of an update-folder-rights
// operation.
type FolderRightsParams struct {
	Email  string          `json:"email"`
	UserID string          `json:"user_id"`
	Folder FolderType      `json:"folder"`
	Level  PermissionLevel `json:"level"`
}

// UpdateFolderRights sets the subject's folder permission level on the
// target folder of every project matching the filter. Projects without the
// requested well-known folder are skipped.
func (d *Driver) UpdateFolderRights(ctx context.Context, email string, folder FolderType, level PermissionLevel, opts *RunOptions) (*BulkOperationResult, error) {
	// Translate the level once, before the executor loop; it also validates
	// the level before any state is created.
	actions, err := level.Actions()
	if err != nil {
		return nil, err
	}

	user, err := d.resolveSubject(ctx, email)
	if err != nil {
		return nil, err
	}

	items, err := d.selectTargets(ctx, opts.filter())
	if err != nil {
		return nil, err
	}

	params := FolderRightsParams{
		Email:  email,
		UserID: user.ID,
		Folder: folder,
		Level:  level,
	}

	return d.run(ctx, OpUpdateFolderRights, params, items, d.folderRightsProcessor(params, actions), opts)
}

func (d *Driver) folderRightsProcessor(params FolderRightsParams, actions []string) ItemProcessor {
	return func(ctx context.Context, projectID string) ItemResult {
		folderID, result := d.resolveFolder(ctx, projectID, params.Folder)
		if result != nil {
			return *result
		}

		updates := []acc.PermissionUpdate{
			{
				SubjectID:   params.UserID,
				SubjectType: acc.SubjectTypeUser,
				Actions:     actions,
			},
		}
		if err := d.data.BatchUpdatePermissions(ctx, projectID, folderID, updates); err != nil {
			return FailedResult(err.Error(), IsRetryable(err))
		}
		return SuccessResult()
	}
}

// resolveFolder maps the folder selector to a concrete folder id. A non-nil
// result short-circuits the item (skip or failure).
func (d *Driver) resolveFolder(ctx context.Context, projectID string, folder FolderType) (string, *ItemResult) {
	lookup := func(id string, err error, reason string) (string, *ItemResult) {
		if err != nil {
			if acc.IsNotFound(err) {
				r := SkippedResult(reason)
				return "", &r
			}
			r := FailedResult(err.Error(), IsRetryable(err))
			return "", &r
		}
		return id, nil
	}

	switch folder.Kind {
	case FolderProjectFiles:
		id, err := d.data.GetProjectFilesFolderID(ctx, projectID)
		return lookup(id, err, "project_files_folder_not_found")
	case FolderPlans:
		id, err := d.data.GetPlansFolderID(ctx, projectID)
		return lookup(id, err, "plans_folder_not_found")
	default:
		return folder.FolderID, nil
	}
}
