package bulk

import (
	"fmt"
	"strings"
)

// PermissionLevel is a discrete folder permission tier. Each level maps to a
// fixed set of action tokens understood by the folder permission API.
type PermissionLevel string

const (
	PermissionViewOnly               PermissionLevel = "view_only"
	PermissionViewDownload           PermissionLevel = "view_download"
	PermissionUploadOnly             PermissionLevel = "upload_only"
	PermissionViewDownloadUpload     PermissionLevel = "view_download_upload"
	PermissionViewDownloadUploadEdit PermissionLevel = "view_download_upload_edit"
	PermissionFolderControl          PermissionLevel = "folder_control"
)

// levelActions is the wire contract between permission tiers and the action
// tokens the folder permission API accepts.
var levelActions = map[PermissionLevel][]string{
	PermissionViewOnly:               {"VIEW", "COLLABORATE"},
	PermissionViewDownload:           {"VIEW", "COLLABORATE", "DOWNLOAD"},
	PermissionUploadOnly:             {"VIEW", "COLLABORATE", "UPLOAD"},
	PermissionViewDownloadUpload:     {"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD"},
	PermissionViewDownloadUploadEdit: {"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD", "EDIT"},
	PermissionFolderControl:          {"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD", "EDIT", "PUBLISH", "CONTROL"},
}

// Actions returns the action tokens for the level.
func (l PermissionLevel) Actions() ([]string, error) {
	actions, ok := levelActions[l]
	if !ok {
		return nil, fmt.Errorf("unknown permission level %q", l)
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out, nil
}

// ParsePermissionLevel parses a user-supplied level name. Both snake_case and
// kebab-case are accepted.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	level := PermissionLevel(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := levelActions[level]; !ok {
		return "", fmt.Errorf("unknown permission level %q", s)
	}
	return level, nil
}

// FolderKind discriminates FolderType.
type FolderKind string

const (
	FolderProjectFiles FolderKind = "project_files"
	FolderPlans        FolderKind = "plans"
	FolderCustom       FolderKind = "custom"
)

// FolderType selects the target folder of a folder-permission operation:
// one of the two well-known top folders, or an explicit folder id.
type FolderType struct {
	Kind     FolderKind `json:"kind"`
	FolderID string     `json:"folder_id,omitempty"`
}

// ParseFolderType interprets a CLI folder argument: "project-files", "plans",
// or anything else as an explicit folder id.
func ParseFolderType(s string) (FolderType, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "project_files":
		return FolderType{Kind: FolderProjectFiles}, nil
	case "plans":
		return FolderType{Kind: FolderPlans}, nil
	case "":
		return FolderType{}, fmt.Errorf("folder is required")
	default:
		return FolderType{Kind: FolderCustom, FolderID: strings.TrimSpace(s)}, nil
	}
}
