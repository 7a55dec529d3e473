package domain

import (
	"time"
	"unicode/utf8"
)

// Post is a single authored text entry.
//
// PubDate is set once when the post is created. AuthorID never changes;
// GroupID is nil when the post has no group or its group was deleted.
type Post struct {
	ID       int64     `json:"id" db:"id"`
	Text     string    `json:"text" db:"text"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
	AuthorID int64     `json:"author_id" db:"author_id"`
	GroupID  *int64    `json:"group_id,omitempty" db:"group_id"`

	// Resolved on read.
	Author string      `json:"author" db:"author"`
	Group  *GroupBrief `json:"group,omitempty" db:"-"`
}

// GroupBrief is the part of a group shown next to a post.
type GroupBrief struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// String returns the first fifteen characters of the text.
func (p *Post) String() string {
	if utf8.RuneCountInString(p.Text) <= 15 {
		return p.Text
	}
	return string([]rune(p.Text)[:15])
}

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	GroupID  int64
	AuthorID int64
	Query    string // case-insensitive substring of the text
}

// PostPatch holds the fields an edit may overwrite.
type PostPatch struct {
	Text    string
	GroupID *int64
}

// PostResponse is the API representation of a page of posts.
type PostResponse struct {
	Posts      []*Post `json:"posts"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	TotalPosts int     `json:"total_posts"`
}

// PostInput is the raw author input for creating or editing a post.
// Group holds the group id as submitted; empty means no group.
type PostInput struct {
	Text  string `json:"text"`
	Group string `json:"group,omitempty"`
}
