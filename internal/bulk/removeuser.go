package bulk

import (
	"context"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
)

// RemoveUserParams are the persisted inputs of a remove-user operation.
type RemoveUserParams struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// RemoveUser removes the subject from every project matching the filter.
// Projects where the subject is not a member are skipped.
func (d *Driver) RemoveUser(ctx context.Context, email string, opts *RunOptions) (*BulkOperationResult, error) {
	user, err := d.resolveSubject(ctx, email)
	if err != nil {
		return nil, err
	}

	items, err := d.selectTargets(ctx, opts.filter())
	if err != nil {
		return nil, err
	}

	params := RemoveUserParams{Email: email, UserID: user.ID}

	return d.run(ctx, OpRemoveUser, params, items, d.removeUserProcessor(params), opts)
}

func (d *Driver) removeUserProcessor(params RemoveUserParams) ItemProcessor {
	return func(ctx context.Context, projectID string) ItemResult {
		exists, err := d.admin.UserExists(ctx, projectID, params.UserID)
		if err != nil {
			return FailedResult(err.Error(), IsRetryable(err))
		}
		if !exists {
			return SkippedResult("user_not_in_project")
		}

		if err := d.admin.RemoveUser(ctx, projectID, params.UserID); err != nil {
			// The membership can vanish between the pre-check and the
			// delete; treat the late 404 as the same skip.
			if acc.IsNotFound(err) {
				return SkippedResult("user_not_in_project")
			}
			return FailedResult(err.Error(), IsRetryable(err))
		}
		return SuccessResult()
	}
}
