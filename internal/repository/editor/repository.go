// Package editor stores the single unsaved draft slot each user has while
// writing a post that has no id yet.
package editor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

var ErrDraftNotFound = errors.New("draft not found")

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

type Repository interface {
	SaveDraft(ctx context.Context, owner model.UserID, draft model.Draft) error
	// GetDraft returns ErrDraftNotFound when the owner's slot is empty.
	GetDraft(ctx context.Context, owner model.UserID) (*model.Draft, error)
	// DeleteDraft empties the slot. Deleting an empty slot is not an error.
	DeleteDraft(ctx context.Context, owner model.UserID) error
}

func slotKey(owner model.UserID) string {
	return config.DraftKey + ":" + string(owner)
}
