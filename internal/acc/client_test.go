package acc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://developer.api.autodesk.com/", "acct-1", StaticTokenSource("tok"))
	if client.baseURL != "https://developer.api.autodesk.com" {
		t.Errorf("client.baseURL = %s, want no trailing slash", client.baseURL)
	}
	if client.AccountID() != "acct-1" {
		t.Errorf("AccountID() = %s, want acct-1", client.AccountID())
	}
}

func TestFindUserByEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/construction/admin/v1/accounts/acct-1/users") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}

		resp := listUsersResponse{
			Results: []User{
				{ID: "u-1", Email: "jane@example.com", Name: "Jane"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	user, err := client.FindUserByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if user == nil || user.ID != "u-1" {
		t.Errorf("user = %+v, want ID u-1", user)
	}
}

func TestFindUserByEmail_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listUsersResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	user, err := client.FindUserByEmail(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestListAllProjects_Paginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")

		var resp listProjectsResponse
		resp.Pagination.TotalResults = 3
		switch offset {
		case "0":
			resp.Results = []Project{{ID: "p-1"}, {ID: "p-2"}}
		case "2":
			resp.Results = []Project{{ID: "p-3"}}
		default:
			t.Errorf("unexpected offset %q", offset)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	projects, err := client.ListAllProjects(context.Background())
	if err != nil {
		t.Fatalf("ListAllProjects failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("got %d projects, want 3", len(projects))
	}
	if projects[2].ID != "p-3" {
		t.Errorf("projects[2].ID = %s, want p-3", projects[2].ID)
	}
}

func TestGetProjectUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"no such membership"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	_, err := client.GetProjectUser(context.Background(), "p-1", "u-1")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}

	exists, err := client.UserExists(context.Background(), "p-1", "u-1")
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if exists {
		t.Error("UserExists = true, want false")
	}
}

func TestAPIError_StringFormKeepsStatus(t *testing.T) {
	err := &APIError{StatusCode: 429, Body: "Rate limit exceeded"}
	want := "API error (status 429): Rate limit exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestGetProjectFilesFolderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/topFolders") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":[
			{"id":"urn:folder:plans","attributes":{"displayName":"Plans"}},
			{"id":"urn:folder:pf","attributes":{"displayName":"Project Files"}}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	id, err := client.GetProjectFilesFolderID(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("GetProjectFilesFolderID failed: %v", err)
	}
	if id != "urn:folder:pf" {
		t.Errorf("folder id = %s, want urn:folder:pf", id)
	}
}

func TestGetPlansFolderID_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"urn:folder:pf","attributes":{"displayName":"Project Files"}}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	_, err := client.GetPlansFolderID(context.Background(), "p-1")
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestBatchUpdatePermissions(t *testing.T) {
	var gotBody []PermissionUpdate
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/permissions:batch-update") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "acct-1", StaticTokenSource("tok"))

	updates := []PermissionUpdate{
		{SubjectID: "u-1", SubjectType: SubjectTypeUser, Actions: []string{"VIEW", "COLLABORATE"}},
	}
	if err := client.BatchUpdatePermissions(context.Background(), "p-1", "urn:folder:pf", updates); err != nil {
		t.Fatalf("BatchUpdatePermissions failed: %v", err)
	}
	if len(gotBody) != 1 || gotBody[0].SubjectID != "u-1" {
		t.Errorf("server received %+v", gotBody)
	}
}

func TestClientCredentialsTokenSource_CachesUntilExpiry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			t.Errorf("basic auth = %q:%q", user, pass)
		}
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600,"token_type":"Bearer"}`)
	}))
	defer server.Close()

	src := NewClientCredentialsTokenSource("cid", "secret", server.URL)

	for i := 0; i < 3; i++ {
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error: %v", err)
		}
		if tok != "tok-1" {
			t.Errorf("Token() = %q, want tok-1", tok)
		}
	}

	if calls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", calls)
	}
}

func TestClientCredentialsTokenSource_RefreshesExpired(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":1,"token_type":"Bearer"}`, calls)
	}))
	defer server.Close()

	src := NewClientCredentialsTokenSource("cid", "secret", server.URL)
	src.httpClient.Timeout = 5 * time.Second

	if _, err := src.Token(context.Background()); err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	// expires_in of 1s is inside the one-minute refresh margin
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if tok != "tok-2" {
		t.Errorf("Token() = %q, want refreshed tok-2", tok)
	}
	if calls != 2 {
		t.Errorf("token endpoint called %d times, want 2", calls)
	}
}
