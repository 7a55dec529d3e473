package domain

// Group is a community that posts may belong to.
// The slug is unique and is never rewritten once the group exists.
type Group struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
}

// String returns the group title.
func (g *Group) String() string {
	return g.Title
}

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// UpdateGroupRequest is the request body for updating a group.
// The slug is not updatable.
type UpdateGroupRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// GroupListResponse is the API representation of a page of groups.
type GroupListResponse struct {
	Groups      []*Group `json:"groups"`
	Page        int      `json:"page"`
	TotalPages  int      `json:"total_pages"`
	TotalGroups int      `json:"total_groups"`
}
