package editor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/util"
)

// FSRepository keeps one JSON file per user under dir. Drafts survive restarts.
type FSRepository struct {
	dir string
}

func NewFSRepository(dir string) (*FSRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "error creating draft directory")
	}
	return &FSRepository{dir: dir}, nil
}

// path hashes the owner id so arbitrary ids map to safe file names.
func (r *FSRepository) path(owner model.UserID) string {
	return filepath.Join(r.dir, util.ContentHashString(string(owner))[:32], config.DraftKey+".json")
}

func (r *FSRepository) SaveDraft(_ context.Context, owner model.UserID, draft model.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "error encoding draft")
	}

	p := r.path(owner)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return errors.Wrap(err, "error creating draft directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".draft-*")
	if err != nil {
		return errors.Wrap(err, "error creating draft file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "error writing draft")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "error writing draft")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p), "error replacing draft")
}

func (r *FSRepository) GetDraft(_ context.Context, owner model.UserID) (*model.Draft, error) {
	data, err := os.ReadFile(r.path(owner))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDraftNotFound
		}
		return nil, errors.Wrap(err, "error reading draft")
	}

	var draft model.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		draftLogger.Warn().Err(err).Str("owner", string(owner)).Msg("Discarding unreadable draft")
		return nil, ErrDraftNotFound
	}
	return &draft, nil
}

func (r *FSRepository) DeleteDraft(_ context.Context, owner model.UserID) error {
	if err := os.Remove(r.path(owner)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error deleting draft")
	}
	return nil
}
