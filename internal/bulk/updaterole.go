package bulk

import (
	"context"
	"fmt"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
)

// UpdateRoleParams are the persisted inputs of an update-role operation.
// FromRoleID, when set, restricts the change to members currently holding
// that role.
type UpdateRoleParams struct {
	Email      string `json:"email"`
	UserID     string `json:"user_id"`
	NewRoleID  string `json:"new_role_id"`
	FromRoleID string `json:"from_role_id,omitempty"`
}

// UpdateRole changes the subject's role in every project matching the
// filter. Non-members, members whose current role differs from FromRoleID,
// and members already holding the new role are skipped.
func (d *Driver) UpdateRole(ctx context.Context, email, newRoleID, fromRoleID string, opts *RunOptions) (*BulkOperationResult, error) {
	user, err := d.resolveSubject(ctx, email)
	if err != nil {
		return nil, err
	}

	items, err := d.selectTargets(ctx, opts.filter())
	if err != nil {
		return nil, err
	}

	params := UpdateRoleParams{
		Email:      email,
		UserID:     user.ID,
		NewRoleID:  newRoleID,
		FromRoleID: fromRoleID,
	}

	return d.run(ctx, OpUpdateRole, params, items, d.updateRoleProcessor(params), opts)
}

func (d *Driver) updateRoleProcessor(params UpdateRoleParams) ItemProcessor {
	return func(ctx context.Context, projectID string) ItemResult {
		member, err := d.admin.GetProjectUser(ctx, projectID, params.UserID)
		if err != nil {
			if acc.IsNotFound(err) {
				return SkippedResult("user_not_in_project")
			}
			return FailedResult(err.Error(), IsRetryable(err))
		}

		current := member.PrimaryRoleID()
		if params.FromRoleID != "" && current != params.FromRoleID {
			return SkippedResult(fmt.Sprintf("role_mismatch: current=%s", current))
		}
		if current == params.NewRoleID {
			return SkippedResult("already_has_role")
		}

		if _, err := d.admin.UpdateUser(ctx, projectID, params.UserID, acc.UserUpdate{RoleID: params.NewRoleID}); err != nil {
			return FailedResult(err.Error(), IsRetryable(err))
		}
		return SuccessResult()
	}
}
