//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxPostTitleLen = 255

// Post is a lodge bulletin entry shown on the dashboard feed.
type Post struct {
	ID          string     `json:"id"        db:"id"`
	LodgeID     string     `json:"lodge_id"  db:"lodge_id"`
	AuthorID    string     `json:"author_id" db:"author_id"`
	Title       string     `json:"title"     db:"title"`
	Body        string     `json:"body"      db:"body"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreatePostRequest represents parameters to create a Post.
type CreatePostRequest struct {
	LodgeID string `json:"lodge_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Publish bool   `json:"publish,omitempty"`
}

// UpdatePostRequest represents parameters to update a Post.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"`
	Body    *string `json:"body,omitempty"`
	Publish *bool   `json:"publish,omitempty"`
}

// PostsListOptions controls paging and filtering for listing posts.
type PostsListOptions struct {
	Limit         int
	Offset        int
	LodgeID       *string
	PublishedOnly bool
}

// Validate validates CreatePostRequest.
func (r *CreatePostRequest) Validate() error {
	if strings.TrimSpace(r.LodgeID) == "" {
		return errors.New("lodge_id is required")
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxPostTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if strings.TrimSpace(r.Body) == "" {
		return errors.New("body is required and cannot be empty")
	}
	return nil
}

// Validate validates UpdatePostRequest.
func (r *UpdatePostRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxPostTitleLen {
			return errors.New("title cannot exceed 255 characters")
		}
	}
	if r.Body != nil && strings.TrimSpace(*r.Body) == "" {
		return errors.New("body cannot be empty")
	}
	return nil
}
