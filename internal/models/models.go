package models

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// CommentTimeLayout is the timestamp layout used for submitted comments.
const CommentTimeLayout = "2006-01-02T15:04:05"

// Image is an optional cover image of a post.
type Image struct {
	URL           string `json:"url"`
	AlternateText string `json:"alternateText"`
}

// Comment is a reader comment attached to a post. Comments are only ever appended.
type Comment struct {
	Author  string `json:"author" validate:"required"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

// TimeDelta renders the comment age relative to now, e.g. "3 minutes ago".
func (c Comment) TimeDelta(now time.Time) string {
	raw, _, _ := strings.Cut(c.Date, ".")
	raw = strings.TrimSuffix(raw, "Z")
	if len(raw) > len(CommentTimeLayout) {
		raw = raw[:len(CommentTimeLayout)]
	}
	date, err := time.ParseInLocation(CommentTimeLayout, raw, now.Location())
	if err != nil {
		return ""
	}
	return humanize.RelTime(date, now, "ago", "from now")
}

// Post is a single content unit. Pages share the same shape.
type Post struct {
	Author            string    `json:"author"`
	Slug              string    `json:"slug" validate:"required"`
	Title             string    `json:"title" validate:"required"`
	ContentInMarkdown string    `json:"contentInMarkdown"`
	Comments          []Comment `json:"comments" validate:"dive"`
	Excerpt           string    `json:"excerpt"`
	Tags              []string  `json:"tags"`
	Language          string    `json:"language" validate:"required"`
	CoverImage        Image     `json:"coverImage"`
	Date              string    `json:"date"`
}

// Page is a post rendered outside of the chronological feed.
type Page = Post

// Less orders posts by date. Dates compare lexicographically.
func (p Post) Less(other Post) bool {
	return p.Date < other.Date
}

// HasTag reports whether the post carries tag.
func (p Post) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// SortByDateDesc sorts posts newest first, keeping input order for equal dates.
func SortByDateDesc(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		return cmp.Compare(b.Date, a.Date)
	})
}

// MenuItem is a navigation entry for one language.
type MenuItem struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url"`
}

// PluginDeclaration names a plugin to load at bring-up together with its raw config.
type PluginDeclaration struct {
	Name   string         `json:"name" validate:"required"`
	Config map[string]any `json:"config"`
}
