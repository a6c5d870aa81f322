package acc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Well-known top folder names in ACC / BIM 360 projects.
const (
	projectFilesFolderName = "Project Files"
	plansFolderName        = "Plans"
)

type topFoldersResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"attributes"`
	} `json:"data"`
}

// GetProjectFilesFolderID returns the id of the project's "Project Files"
// top folder.
func (c *Client) GetProjectFilesFolderID(ctx context.Context, projectID string) (string, error) {
	return c.topFolderID(ctx, projectID, projectFilesFolderName)
}

// GetPlansFolderID returns the id of the project's "Plans" top folder.
func (c *Client) GetPlansFolderID(ctx context.Context, projectID string) (string, error) {
	return c.topFolderID(ctx, projectID, plansFolderName)
}

func (c *Client) topFolderID(ctx context.Context, projectID, name string) (string, error) {
	// The data management API keys projects as "b.<uuid>"
	path := fmt.Sprintf("/project/v1/hubs/b.%s/projects/b.%s/topFolders",
		c.accountID, strings.TrimPrefix(projectID, "b."))

	var resp topFoldersResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}

	for _, f := range resp.Data {
		if f.Attributes.DisplayName == name || f.Attributes.Name == name {
			return f.ID, nil
		}
	}

	return "", &APIError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("top folder %q not found", name)}
}

// BatchUpdatePermissions replaces folder permissions for the given subjects.
func (c *Client) BatchUpdatePermissions(ctx context.Context, projectID, folderID string, updates []PermissionUpdate) error {
	path := fmt.Sprintf("/bim360/docs/v1/projects/%s/folders/%s/permissions:batch-update",
		strings.TrimPrefix(projectID, "b."), folderID)

	return c.doRequest(ctx, http.MethodPost, path, updates, nil)
}
