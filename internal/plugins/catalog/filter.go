package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hainu/catalog/internal/apperror"
)

// ServiceFilter narrows the service list. All criteria are ANDed; zero
// values impose no restriction.
type ServiceFilter struct {
	// Name is a case-insensitive substring of the service name.
	Name string

	// TagIDs must ALL be attached to a matching service.
	TagIDs []int

	// CategoryIDs must ALL be attached to a matching service.
	CategoryIDs []int
}

// TagFilter narrows the tag list.
type TagFilter struct {
	Name        string
	Description string

	// CategoryID selects tags used by services in that category.
	CategoryID int
}

// ReviewFilter narrows the review list.
type ReviewFilter struct {
	// ServiceID matches reviews whose rating belongs to this service.
	ServiceID int

	// RatingID matches reviews of one rating row.
	RatingID int
}

// Query parameter names, kept compatible with existing clients.
const (
	paramName            = "name"
	paramDescription     = "description"
	paramTags            = "tags"
	paramCategories      = "categories"
	paramCategory        = "category"
	paramReviewServiceID = "service_rating__service__id"
	paramReviewRatingID  = "service_rating"
)

// ParseServiceFilter reads name, tags and categories from query values.
// Multi-value params may repeat (?tags=1&tags=2) or be comma-separated.
func ParseServiceFilter(q url.Values) (ServiceFilter, error) {
	f := ServiceFilter{Name: strings.TrimSpace(q.Get(paramName))}

	var err error
	if f.TagIDs, err = parseIDList(q, paramTags); err != nil {
		return ServiceFilter{}, err
	}
	if f.CategoryIDs, err = parseIDList(q, paramCategories); err != nil {
		return ServiceFilter{}, err
	}
	return f, nil
}

// ParseTagFilter reads name, description and category from query values.
func ParseTagFilter(q url.Values) (TagFilter, error) {
	f := TagFilter{
		Name:        q.Get(paramName),
		Description: q.Get(paramDescription),
	}
	id, err := parseID(q, paramCategory)
	if err != nil {
		return TagFilter{}, err
	}
	f.CategoryID = id
	return f, nil
}

// ParseReviewFilter reads the owning service and rating ids.
func ParseReviewFilter(q url.Values) (ReviewFilter, error) {
	var f ReviewFilter
	var err error
	if f.ServiceID, err = parseID(q, paramReviewServiceID); err != nil {
		return ReviewFilter{}, err
	}
	if f.RatingID, err = parseID(q, paramReviewRatingID); err != nil {
		return ReviewFilter{}, err
	}
	return f, nil
}

// parseID returns 0 when the param is absent.
func parseID(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, apperror.NewBadRequest(fmt.Sprintf("%s: %q is not a valid id", key, raw))
	}
	return id, nil
}

// parseIDList collects ids from repeated and comma-separated values,
// dropping duplicates while keeping first-seen order.
func parseIDList(q url.Values, key string) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id < 1 {
				return nil, apperror.NewBadRequest(fmt.Sprintf("%s: %q is not a valid id", key, part))
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// --- SQL builders ---

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whereClause builds the WHERE clause for the service alias s. Each tag and
// category id adds its own EXISTS so a service must carry every one.
func (f ServiceFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Name != "" {
		conds = append(conds, "LOWER(s.name) LIKE LOWER(?)")
		args = append(args, containsPattern(f.Name))
	}
	for _, id := range f.TagIDs {
		conds = append(conds, "EXISTS (SELECT 1 FROM service_tag_links stl WHERE stl.service_id = s.id AND stl.tag_id = ?)")
		args = append(args, id)
	}
	for _, id := range f.CategoryIDs {
		conds = append(conds, "EXISTS (SELECT 1 FROM service_category_links scl WHERE scl.service_id = s.id AND scl.category_id = ?)")
		args = append(args, id)
	}

	return joinWhere(conds), args
}

// whereClause builds the WHERE clause for the tag alias t. The category
// criterion walks tag -> service -> category and is deduplicated by EXISTS.
func (f TagFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Name != "" {
		conds = append(conds, "t.name = ?")
		args = append(args, f.Name)
	}
	if f.Description != "" {
		conds = append(conds, "t.description = ?")
		args = append(args, f.Description)
	}
	if f.CategoryID > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM service_tag_links stl
			INNER JOIN service_category_links scl ON scl.service_id = stl.service_id
			WHERE stl.tag_id = t.id AND scl.category_id = ?)`)
		args = append(args, f.CategoryID)
	}

	return joinWhere(conds), args
}

// whereClause builds the WHERE clause for review alias rv joined to rating r.
func (f ReviewFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.ServiceID > 0 {
		conds = append(conds, "r.service_id = ?")
		args = append(args, f.ServiceID)
	}
	if f.RatingID > 0 {
		conds = append(conds, "rv.service_rating_id = ?")
		args = append(args, f.RatingID)
	}

	return joinWhere(conds), args
}

func joinWhere(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}
