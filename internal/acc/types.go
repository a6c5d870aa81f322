package acc

import "time"

// Platform tags reported by the admin API
const (
	PlatformACC    = "acc"
	PlatformBIM360 = "bim360"
)

// User is an account-level user
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CompanyID string `json:"companyId,omitempty"`
}

// Project is an account project summary
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Platform  string     `json:"platform"`
	Region    string     `json:"region,omitempty"`
	Type      string     `json:"type,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ProjectUser is a user's membership in a project
type ProjectUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	RoleIDs  []string `json:"roleIds,omitempty"`
	Products []ProductAccess `json:"products,omitempty"`
}

// ProductAccess describes a user's access to one product in a project
type ProductAccess struct {
	Key    string `json:"key"`
	Access string `json:"access"`
}

// PrimaryRoleID returns the user's first role id, or "" when none is assigned.
func (u *ProjectUser) PrimaryRoleID() string {
	if len(u.RoleIDs) == 0 {
		return ""
	}
	return u.RoleIDs[0]
}

// UserUpdate carries the mutable fields of a project membership
type UserUpdate struct {
	RoleID   string          `json:"roleId,omitempty"`
	Products []ProductAccess `json:"products,omitempty"`
}

// SubjectType values accepted by the folder permission API
const (
	SubjectTypeUser    = "USER"
	SubjectTypeRole    = "ROLE"
	SubjectTypeCompany = "COMPANY"
)

// PermissionUpdate is one entry in a folder permission batch update
type PermissionUpdate struct {
	SubjectID   string   `json:"subjectId"`
	SubjectType string   `json:"subjectType"`
	Actions     []string `json:"actions"`
}

// listProjectsResponse is the paginated wire shape of the project list endpoint
type listProjectsResponse struct {
	Pagination pagination `json:"pagination"`
	Results    []Project  `json:"results"`
}

// listUsersResponse is the paginated wire shape of the account user search
type listUsersResponse struct {
	Pagination pagination `json:"pagination"`
	Results    []User     `json:"results"`
}

type pagination struct {
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
	TotalResults int `json:"totalResults"`
}
