package editor

import (
	"context"
	"sync"

	"github.com/debemdeboas/spawnwrite/internal/model"
)

type MemoryRepository struct {
	drafts sync.Map // slot key -> model.Draft
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) SaveDraft(_ context.Context, owner model.UserID, draft model.Draft) error {
	m.drafts.Store(slotKey(owner), draft)
	return nil
}

func (m *MemoryRepository) GetDraft(_ context.Context, owner model.UserID) (*model.Draft, error) {
	if v, ok := m.drafts.Load(slotKey(owner)); ok {
		d := v.(model.Draft)
		return &d, nil
	}
	return nil, ErrDraftNotFound
}

func (m *MemoryRepository) DeleteDraft(_ context.Context, owner model.UserID) error {
	m.drafts.Delete(slotKey(owner))
	return nil
}
