// Package model defines core data structures and types for the blog application.
package model

import (
	"time"
)

type PostID string

type UserID string

// Post is the persisted, identified content record.
type Post struct {
	ID PostID `json:"id" db:"id"`

	Title string `json:"title" db:"title"`
	// Content is an HTML fragment produced by the editor.
	Content   string `json:"content" db:"-"`
	Published bool   `json:"published" db:"published"`

	Owner UserID `json:"owner_id" db:"user_id"`
	Views int64  `json:"views" db:"views"`

	// Used for cache busting.
	ContentHash string `json:"content_hash" db:"content_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PostSummary is a Post without its content, as listed on dashboards and handle pages.
type PostSummary struct {
	ID        PostID    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Published bool      `json:"published" db:"published"`
	Owner     UserID    `json:"owner_id" db:"user_id"`
	Views     int64     `json:"views" db:"views"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		Published: p.Published,
		Owner:     p.Owner,
		Views:     p.Views,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
