package bulk

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
)

// ProjectFilter is a conjunction of optional predicates. A project matches
// iff every present predicate holds; the zero filter matches everything.
type ProjectFilter struct {
	NamePattern   string
	Status        string
	Platform      string
	Region        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// IncludeIDs / ExcludeIDs are programmatic predicates, not part of the
	// expression grammar.
	IncludeIDs []string
	ExcludeIDs []string
}

var validStatuses = []string{"active", "inactive", "archived"}
var validPlatforms = []string{"acc", "bim360"}
var validRegions = []string{"us", "emea"}

// ParseFilter parses a "key:value[,key:value]*" expression. Parsing is
// all-or-nothing: any unknown key or malformed value fails the whole
// expression. An empty expression yields a filter that matches everything.
func ParseFilter(expr string) (*ProjectFilter, error) {
	filter := &ProjectFilter{}
	if strings.TrimSpace(expr) == "" {
		return filter, nil
	}

	for _, part := range strings.Split(expr, ",") {
		key, value, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("%w: part %q is missing ':'", ErrInvalidFilter, strings.TrimSpace(part))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("%w: key %q has an empty value", ErrInvalidFilter, key)
		}

		switch key {
		case "name":
			if !doublestar.ValidatePattern(value) {
				return nil, fmt.Errorf("%w: invalid name pattern %q", ErrInvalidFilter, value)
			}
			filter.NamePattern = value
		case "status":
			status := strings.ToLower(value)
			if !slices.Contains(validStatuses, status) {
				return nil, fmt.Errorf("%w: status must be one of %s, got %q",
					ErrInvalidFilter, strings.Join(validStatuses, ", "), value)
			}
			filter.Status = status
		case "platform":
			platform := strings.ToLower(value)
			if !slices.Contains(validPlatforms, platform) {
				return nil, fmt.Errorf("%w: platform must be acc or bim360, got %q", ErrInvalidFilter, value)
			}
			filter.Platform = platform
		case "region":
			region := strings.ToLower(value)
			if !slices.Contains(validRegions, region) {
				return nil, fmt.Errorf("%w: region must be us or emea, got %q", ErrInvalidFilter, value)
			}
			filter.Region = region
		case "created":
			if len(value) < 2 || (value[0] != '>' && value[0] != '<') {
				return nil, fmt.Errorf("%w: created must be >YYYY-MM-DD or <YYYY-MM-DD, got %q", ErrInvalidFilter, value)
			}
			t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value[1:]), time.UTC)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid created date %q", ErrInvalidFilter, value)
			}
			if value[0] == '>' {
				filter.CreatedAfter = &t
			} else {
				filter.CreatedBefore = &t
			}
		default:
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, key)
		}
	}

	return filter, nil
}

// Matches reports whether the project satisfies every present predicate.
// A project with no createdAt passes both date predicates; a project with no
// region passes the region predicate.
func (f *ProjectFilter) Matches(p acc.Project) bool {
	if f.NamePattern != "" {
		ok, err := doublestar.Match(f.NamePattern, p.Name)
		if err != nil || !ok {
			return false
		}
	}
	if f.Status != "" && strings.ToLower(p.Status) != f.Status {
		return false
	}
	if f.Platform != "" && strings.ToLower(p.Platform) != f.Platform {
		return false
	}
	if f.Region != "" && p.Region != "" && strings.ToLower(p.Region) != f.Region {
		return false
	}
	if f.CreatedAfter != nil && p.CreatedAt != nil && !p.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && p.CreatedAt != nil && !p.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if len(f.IncludeIDs) > 0 && !slices.Contains(f.IncludeIDs, p.ID) {
		return false
	}
	if slices.Contains(f.ExcludeIDs, p.ID) {
		return false
	}
	return true
}

// Apply returns the projects matching the filter, in input order, as
// executor work items.
func (f *ProjectFilter) Apply(projects []acc.Project) []ProcessItem {
	var items []ProcessItem
	for _, p := range projects {
		if f.Matches(p) {
			items = append(items, ProcessItem{ProjectID: p.ID, ProjectName: p.Name})
		}
	}
	return items
}

// String pretty-prints the expression-representable predicates in the parse
// grammar. Include/exclude id sets have no expression form and are omitted.
func (f *ProjectFilter) String() string {
	var parts []string
	if f.NamePattern != "" {
		parts = append(parts, "name:"+f.NamePattern)
	}
	if f.Status != "" {
		parts = append(parts, "status:"+f.Status)
	}
	if f.Platform != "" {
		parts = append(parts, "platform:"+f.Platform)
	}
	if f.Region != "" {
		parts = append(parts, "region:"+f.Region)
	}
	if f.CreatedAfter != nil {
		parts = append(parts, "created:>"+f.CreatedAfter.Format("2006-01-02"))
	}
	if f.CreatedBefore != nil {
		parts = append(parts, "created:<"+f.CreatedBefore.Format("2006-01-02"))
	}
	return strings.Join(parts, ",")
}
