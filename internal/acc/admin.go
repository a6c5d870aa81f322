package acc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// pageLimit is the page size used for paginated account endpoints.
const pageLimit = 100

// FindUserByEmail looks up an account user by email. Returns nil when no
// user matches.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	path := fmt.Sprintf("/construction/admin/v1/accounts/%s/users?filter[email]=%s",
		c.accountID, url.QueryEscape(email))

	var resp listUsersResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Results {
		if resp.Results[i].Email == email {
			return &resp.Results[i], nil
		}
	}
	return nil, nil
}

// ListAllProjects lists every project in the account, following pagination
// internally.
func (c *Client) ListAllProjects(ctx context.Context) ([]Project, error) {
	var all []Project
	offset := 0

	for {
		path := fmt.Sprintf("/construction/admin/v1/accounts/%s/projects?limit=%d&offset=%d",
			c.accountID, pageLimit, offset)

		var resp listProjectsResponse
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		all = append(all, resp.Results...)
		offset += len(resp.Results)

		if len(resp.Results) == 0 || offset >= resp.Pagination.TotalResults {
			break
		}
	}

	return all, nil
}

// AddUser adds a user to a project, optionally with a role and product access.
func (c *Client) AddUser(ctx context.Context, projectID, userID, roleID string, products []ProductAccess) (*ProjectUser, error) {
	path := fmt.Sprintf("/construction/admin/v1/projects/%s/users", projectID)

	body := map[string]interface{}{
		"userId": userID,
	}
	if roleID != "" {
		body["roleIds"] = []string{roleID}
	}
	if len(products) > 0 {
		body["products"] = products
	}

	var user ProjectUser
	if err := c.doRequest(ctx, http.MethodPost, path, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RemoveUser removes a user from a project.
func (c *Client) RemoveUser(ctx context.Context, projectID, userID string) error {
	path := fmt.Sprintf("/construction/admin/v1/projects/%s/users/%s", projectID, userID)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// GetProjectUser fetches a user's membership in a project. A 404 surfaces as
// an *APIError so callers can distinguish absence from transport failures.
func (c *Client) GetProjectUser(ctx context.Context, projectID, userID string) (*ProjectUser, error) {
	path := fmt.Sprintf("/construction/admin/v1/projects/%s/users/%s", projectID, userID)

	var user ProjectUser
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser patches a user's project membership.
func (c *Client) UpdateUser(ctx context.Context, projectID, userID string, update UserUpdate) (*ProjectUser, error) {
	path := fmt.Sprintf("/construction/admin/v1/projects/%s/users/%s", projectID, userID)

	body := map[string]interface{}{}
	if update.RoleID != "" {
		body["roleIds"] = []string{update.RoleID}
	}
	if len(update.Products) > 0 {
		body["products"] = update.Products
	}

	var user ProjectUser
	if err := c.doRequest(ctx, http.MethodPatch, path, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether a user is a member of a project.
func (c *Client) UserExists(ctx context.Context, projectID, userID string) (bool, error) {
	_, err := c.GetProjectUser(ctx, projectID, userID)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
