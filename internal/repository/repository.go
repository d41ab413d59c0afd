// Package repository persists posts, users and magic links behind the relational store.
package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

var (
	ErrNotFound  = db.ErrNotFound
	ErrNotOwner  = errors.New("post belongs to another user")
	ErrDuplicate = db.ErrDuplicate
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	// NewPost returns an unsaved post with a fresh id and timestamps.
	NewPost(owner model.UserID) *model.Post

	// Create inserts post, assigning an id and timestamps when missing.
	Create(ctx context.Context, post *model.Post) error
	// Update writes title, content and published for (post.ID, post.Owner).
	Update(ctx context.Context, post *model.Post) error
	// Upsert creates post or updates it when it already exists and belongs to post.Owner.
	Upsert(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id model.PostID, owner model.UserID) error

	Get(ctx context.Context, id model.PostID, owner model.UserID) (*model.Post, error)
	// ListByOwner returns the owner's posts, newest first.
	ListByOwner(ctx context.Context, owner model.UserID) ([]model.PostSummary, error)

	// GetPublished returns a published post and counts the read.
	GetPublished(ctx context.Context, id model.PostID) (*model.Post, error)
	ListPublishedByOwner(ctx context.Context, owner model.UserID) ([]model.PostSummary, error)

	// SetChangeNotifier sets a function called after every successful write.
	SetChangeNotifier(notifier func(model.PostID, model.UserID))
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id model.UserID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByHandle(ctx context.Context, handle string) (*model.User, error)
	UpdateHandle(ctx context.Context, id model.UserID, handle string) error
	UpdatePassword(ctx context.Context, id model.UserID, passwordHash string) error
	Delete(ctx context.Context, id model.UserID) error

	CreateMagicLink(ctx context.Context, link *model.MagicLink) error
	// ConsumeMagicLink marks the link used and returns its user. Unknown,
	// expired and already used links, and links issued for another purpose,
	// all yield ErrNotFound.
	ConsumeMagicLink(ctx context.Context, tokenHash, purpose string) (model.UserID, error)
}
