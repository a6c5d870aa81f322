package bulk

import (
	"slices"
	"testing"
)

func TestPermissionLevel_Actions(t *testing.T) {
	tests := []struct {
		level PermissionLevel
		want  []string
	}{
		{PermissionViewOnly, []string{"VIEW", "COLLABORATE"}},
		{PermissionViewDownload, []string{"VIEW", "COLLABORATE", "DOWNLOAD"}},
		{PermissionUploadOnly, []string{"VIEW", "COLLABORATE", "UPLOAD"}},
		{PermissionViewDownloadUpload, []string{"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD"}},
		{PermissionViewDownloadUploadEdit, []string{"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD", "EDIT"}},
		{PermissionFolderControl, []string{"VIEW", "COLLABORATE", "DOWNLOAD", "UPLOAD", "EDIT", "PUBLISH", "CONTROL"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got, err := tt.level.Actions()
			if err != nil {
				t.Fatalf("Actions() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Actions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionLevel_ActionsUnknown(t *testing.T) {
	if _, err := PermissionLevel("root").Actions(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParsePermissionLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    PermissionLevel
		wantErr bool
	}{
		{"view_only", PermissionViewOnly, false},
		{"view-download", PermissionViewDownload, false},
		{"Folder-Control", PermissionFolderControl, false},
		{" upload_only ", PermissionUploadOnly, false},
		{"admin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePermissionLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePermissionLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePermissionLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseFolderType(t *testing.T) {
	tests := []struct {
		input string
		want  FolderType
	}{
		{"project-files", FolderType{Kind: FolderProjectFiles}},
		{"Project_Files", FolderType{Kind: FolderProjectFiles}},
		{"plans", FolderType{Kind: FolderPlans}},
		{"urn:adsk.wipprod:fs.folder:co.abc", FolderType{Kind: FolderCustom, FolderID: "urn:adsk.wipprod:fs.folder:co.abc"}},
	}

	for _, tt := range tests {
		got, err := ParseFolderType(tt.input)
		if err != nil {
			t.Fatalf("ParseFolderType(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseFolderType(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}

	if _, err := ParseFolderType(""); err == nil {
		t.Error("expected error for empty folder")
	}
}
