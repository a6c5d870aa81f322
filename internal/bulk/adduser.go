package bulk

import (
	"context"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
)

// AddUserParams are the persisted inputs of an add-user operation. UserID is
// the resolved subject id; resume never re-queries it.
type AddUserParams struct {
	Email    string              `json:"email"`
	UserID   string              `json:"user_id"`
	RoleID   string              `json:"role_id,omitempty"`
	Products []acc.ProductAccess `json:"products,omitempty"`
}

// AddUser adds the subject to every project matching the filter. Projects
// where the subject is already a member are skipped.
func (d *Driver) AddUser(ctx context.Context, email, roleID string, products []acc.ProductAccess, opts *RunOptions) (*BulkOperationResult, error) {
	user, err := d.resolveSubject(ctx, email)
	if err != nil {
		return nil, err
	}

	items, err := d.selectTargets(ctx, opts.filter())
	if err != nil {
		return nil, err
	}

	params := AddUserParams{
		Email:    email,
		UserID:   user.ID,
		RoleID:   roleID,
		Products: products,
	}

	return d.run(ctx, OpAddUser, params, items, d.addUserProcessor(params), opts)
}

func (d *Driver) addUserProcessor(params AddUserParams) ItemProcessor {
	return func(ctx context.Context, projectID string) ItemResult {
		exists, err := d.admin.UserExists(ctx, projectID, params.UserID)
		if err != nil {
			return FailedResult(err.Error(), IsRetryable(err))
		}
		if exists {
			return SkippedResult("already_exists")
		}

		if _, err := d.admin.AddUser(ctx, projectID, params.UserID, params.RoleID, params.Products); err != nil {
			return FailedResult(err.Error(), IsRetryable(err))
		}
		return SuccessResult()
	}
}
