// Package editor runs one editing session per user on the server: it resolves
// what is being edited, buffers edits, autosaves them after a quiet period and
// moves an unsaved draft onto the id the post store assigns on first write.
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/autosave"
	"github.com/debemdeboas/spawnwrite/internal/model"
	drafts "github.com/debemdeboas/spawnwrite/internal/repository/editor"
)

var (
	ErrLoadFailed        = errors.New("error loading post")
	ErrAlreadyIdentified = errors.New("post already saved, the draft can no longer be cleared")
	ErrEmptyPost         = errors.New("title and content cannot be empty")
	ErrClosed            = errors.New("editor session closed")
)

// Notification event types.
const (
	EventRestored   = "restored"
	EventLoadFailed = "load_failed"
	EventCreated    = "created"
	EventSaved      = "saved"
	EventSaveFailed = "save_failed"
	EventCleared    = "cleared"
)

const (
	msgRestored   = "Loaded unsaved draft from your last session."
	msgLoadFailed = "Error loading post"
	msgCleared    = "Draft cleared."
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// PostStore is what a session needs from the post repository.
type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Get(ctx context.Context, id model.PostID, owner model.UserID) (*model.Post, error)
}

// Notifier delivers a user-facing notification.
type Notifier func(user model.UserID, eventType string, data any)

// State is the in-memory editing state. An empty ID means the post is still a draft.
type State struct {
	ID        model.PostID `json:"id,omitempty"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Published bool         `json:"published"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`

	// Version increases on every change to the fields above.
	Version uint64 `json:"version"`
	// Dirty is set while Version has not been persisted.
	Dirty bool `json:"dirty"`
}

func (s State) Identified() bool {
	return s.ID != ""
}

func (s State) ready() bool {
	return strings.TrimSpace(s.Title) != "" && strings.TrimSpace(s.Content) != ""
}

// Edit carries the fields that changed. Nil fields are left alone.
type Edit struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type LoadResult struct {
	State    State `json:"state"`
	Restored bool  `json:"restored"`
}

type Session struct {
	owner  model.UserID
	posts  PostStore
	drafts drafts.Repository
	notify Notifier

	scheduler    *autosave.Scheduler
	writeTimeout time.Duration

	// mu guards state, savedVersion and lastUsed.
	mu           sync.Mutex
	state        State
	savedVersion uint64
	lastUsed     time.Time
	closed       bool

	// writeMu serializes store writes so a second write observes the id adopted by the first.
	writeMu sync.Mutex
	// draftMu orders draft slot writes against the adoption that clears the slot.
	draftMu sync.Mutex

	now func() time.Time
}

type SessionOption func(*Session)

func WithSchedulerOptions(opts ...autosave.Option) SessionOption {
	return func(s *Session) {
		s.scheduler = autosave.New(s.scheduler.Interval(), s.autosave, opts...)
	}
}

func WithWriteTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

func NewSession(owner model.UserID, posts PostStore, draftRepo drafts.Repository, notify Notifier, interval time.Duration, opts ...SessionOption) *Session {
	if notify == nil {
		notify = func(model.UserID, string, any) {}
	}
	s := &Session{
		owner:        owner,
		posts:        posts,
		drafts:       draftRepo,
		notify:       notify,
		writeTimeout: 10 * time.Second,
		now:          time.Now,
	}
	s.scheduler = autosave.New(interval, s.autosave)
	for _, opt := range opts {
		opt(s)
	}
	s.lastUsed = s.now()
	return s
}

func (s *Session) Owner() model.UserID {
	return s.owner
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Dirty = s.state.Version != s.savedVersion
	return st
}

func (s *Session) touchLocked() {
	s.lastUsed = s.now()
}

// IdleSince reports when the session was last used.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Pending reports whether an autosave is scheduled.
func (s *Session) Pending() bool {
	return s.scheduler.Pending()
}

// Load picks the editing target. With an empty postID it restores the user's
// draft, if any. Otherwise it fetches the post by (postID, owner); on failure
// the state is left empty and ErrLoadFailed is returned. Load never writes the
// loaded state, though unsaved edits to the previous target are written first.
func (s *Session) Load(ctx context.Context, postID model.PostID) (LoadResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.scheduler.Cancel()

	if s.isClosed() {
		return LoadResult{}, ErrClosed
	}

	// An autosave already past its timer waits on writeMu and finds nothing dirty afterwards.
	if s.Snapshot().Dirty {
		flushCtx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		_, err := s.persistLocked(flushCtx, true)
		cancel()
		if err != nil && !errors.Is(err, ErrEmptyPost) {
			editorLogger.Error().Err(err).Str("user", string(s.owner)).Msg("Error saving previous post before load")
		}
	}

	if postID == "" {
		return s.loadDraft(ctx), nil
	}

	post, err := s.posts.Get(ctx, postID, s.owner)
	if err != nil {
		s.reset(State{})
		editorLogger.Warn().Err(err).Str("user", string(s.owner)).Str("post_id", string(postID)).Msg("Error loading post")
		s.notify(s.owner, EventLoadFailed, map[string]string{"message": msgLoadFailed, "id": string(postID)})
		return LoadResult{State: s.Snapshot()}, errors.Wrap(ErrLoadFailed, err.Error())
	}

	st := s.reset(State{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		UpdatedAt: post.UpdatedAt,
	})
	return LoadResult{State: st}, nil
}

func (s *Session) loadDraft(ctx context.Context) LoadResult {
	draft, err := s.drafts.GetDraft(ctx, s.owner)
	if err != nil {
		if !errors.Is(err, drafts.ErrDraftNotFound) {
			editorLogger.Error().Err(err).Str("user", string(s.owner)).Msg("Error reading draft")
		}
		return LoadResult{State: s.reset(State{})}
	}

	st := s.reset(State{Title: draft.Title, Content: draft.Content})
	s.notify(s.owner, EventRestored, map[string]string{"message": msgRestored})
	return LoadResult{State: st, Restored: true}
}

// reset replaces the state. The new state counts as persisted.
func (s *Session) reset(st State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Version = s.state.Version + 1
	s.state = st
	s.savedVersion = st.Version
	s.touchLocked()
	return s.snapshotLocked()
}

// Apply applies an edit. While the post is a draft the draft slot is rewritten
// on every edit. An autosave is scheduled when title and content are both non-blank.
func (s *Session) Apply(ctx context.Context, e Edit) (State, error) {
	return s.change(ctx, func(st *State) {
		if e.Title != nil {
			st.Title = *e.Title
		}
		if e.Content != nil {
			st.Content = *e.Content
		}
		if e.Published != nil {
			st.Published = *e.Published
		}
	})
}

// change runs mutate on the state under the session locks, then mirrors the
// draft and schedules an autosave the way Apply documents.
func (s *Session) change(ctx context.Context, mutate func(*State)) (State, error) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}
	mutate(&s.state)
	s.state.Version++
	s.touchLocked()
	st := s.snapshotLocked()
	s.mu.Unlock()

	if !st.Identified() {
		if err := s.drafts.SaveDraft(ctx, s.owner, model.Draft{Title: st.Title, Content: st.Content}); err != nil {
			editorLogger.Error().Err(err).Str("user", string(s.owner)).Msg("Error saving draft")
		}
	}

	if st.ready() {
		s.scheduler.Trigger()
	}
	return st, nil
}

func (s *Session) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.persistLocked(ctx, false); err != nil && !errors.Is(err, ErrEmptyPost) {
		editorLogger.Error().Err(err).Str("user", string(s.owner)).Msg("Autosave failed")
	}
}

// Save persists the current state now, cancelling any pending autosave.
// published, when set, is applied first as part of the same write.
func (s *Session) Save(ctx context.Context, published *bool) (State, error) {
	if published != nil {
		s.mu.Lock()
		if s.state.Published != *published {
			s.state.Published = *published
			s.state.Version++
		}
		s.mu.Unlock()
	}

	s.scheduler.Cancel()
	return s.persist(ctx)
}

// persist writes the latest snapshot: a create while the post has no id, an
// update by (id, owner) afterwards. The id from a create is always adopted;
// updated_at only when no newer edit arrived while the write was in flight.
func (s *Session) persist(ctx context.Context) (State, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.persistLocked(ctx, true)
}

// persistLocked is persist for callers holding writeMu. Unless force is set a
// state with nothing unsaved is left alone.
func (s *Session) persistLocked(ctx context.Context, force bool) (State, error) {
	s.mu.Lock()
	snap := s.state
	clean := s.state.Version == s.savedVersion
	s.mu.Unlock()

	if clean && !force {
		return s.Snapshot(), nil
	}
	if !snap.ready() {
		return s.Snapshot(), ErrEmptyPost
	}

	post := &model.Post{
		ID:        snap.ID,
		Owner:     s.owner,
		Title:     snap.Title,
		Content:   snap.Content,
		Published: snap.Published,
	}

	if !snap.Identified() {
		if err := s.posts.Create(ctx, post); err != nil {
			s.notify(s.owner, EventSaveFailed, map[string]string{"message": err.Error()})
			return s.Snapshot(), errors.Wrap(err, "error creating post")
		}
		s.adopt(ctx, post.ID)
		s.notify(s.owner, EventCreated, map[string]string{"id": string(post.ID)})
	} else {
		if err := s.posts.Update(ctx, post); err != nil {
			s.notify(s.owner, EventSaveFailed, map[string]string{"message": err.Error(), "id": string(post.ID)})
			return s.Snapshot(), errors.Wrap(err, "error updating post")
		}
	}

	s.mu.Lock()
	if s.state.Version == snap.Version {
		s.state.UpdatedAt = post.UpdatedAt
		s.savedVersion = snap.Version
	} else {
		editorLogger.Debug().
			Uint64("written", snap.Version).
			Uint64("current", s.state.Version).
			Msg("Discarding stale write result")
	}
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(s.owner, EventSaved, map[string]any{"id": post.ID, "updated_at": post.UpdatedAt, "version": snap.Version})
	return st, nil
}

// adopt moves the session from draft to identified post and empties the draft slot.
func (s *Session) adopt(ctx context.Context, id model.PostID) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()

	s.mu.Lock()
	s.state.ID = id
	s.mu.Unlock()

	if err := s.drafts.DeleteDraft(ctx, s.owner); err != nil {
		editorLogger.Error().Err(err).Str("user", string(s.owner)).Msg("Error clearing draft after first save")
	}
}

// ClearDraft discards the unsaved draft and resets the state. It is refused
// with ErrAlreadyIdentified once the post has an id.
func (s *Session) ClearDraft(ctx context.Context) (State, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.draftMu.Lock()
	defer s.draftMu.Unlock()

	if s.Snapshot().Identified() {
		return s.Snapshot(), ErrAlreadyIdentified
	}

	s.scheduler.Cancel()
	if err := s.drafts.DeleteDraft(ctx, s.owner); err != nil {
		return s.Snapshot(), errors.Wrap(err, "error clearing draft")
	}

	st := s.reset(State{})
	s.notify(s.owner, EventCleared, map[string]string{"message": msgCleared})
	return st, nil
}

// InsertEmbed inserts fragment into the content at rune position pos. The
// insertion applies to the content current at the time of the change.
func (s *Session) InsertEmbed(ctx context.Context, pos int, fragment string) (State, error) {
	return s.change(ctx, func(st *State) {
		st.Content = InsertAt(st.Content, pos, fragment)
	})
}

// Close flushes a pending autosave and stops the session.
func (s *Session) Close() {
	s.scheduler.Flush()
	s.scheduler.Close()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
