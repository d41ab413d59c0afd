package editor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/debemdeboas/spawnwrite/internal/autosave"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	drafts "github.com/debemdeboas/spawnwrite/internal/repository/editor"
)

const (
	alice model.UserID = "alice"
	bob   model.UserID = "bob"
)

func TestMain(m *testing.M) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.Disabled))
	goleak.VerifyTestMain(m)
}

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every callback, including superseded ones, on the calling goroutine.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

type notification struct {
	user  model.UserID
	event string
	data  any
}

type recorder struct {
	mu     sync.Mutex
	events []notification
}

func (r *recorder) notify(user model.UserID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notification{user: user, event: event, data: data})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.event)
	}
	return out
}

func (r *recorder) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// fakeStore is an in-memory post store that can fail or hold writes.
type fakeStore struct {
	mu      sync.Mutex
	posts   map[model.PostID]model.Post
	creates []model.Post
	updates []model.Post
	gets    int
	nextID  int

	createErr error
	updateErr error

	// gate, when set, holds every write until it receives a value.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[model.PostID]model.Post)}
}

func (f *fakeStore) hold() {
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 4)
}

func (f *fakeStore) wait() {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
}

func (f *fakeStore) Create(_ context.Context, post *model.Post) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	post.ID = model.PostID(fmt.Sprintf("post-%d", f.nextID))
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	f.creates = append(f.creates, *post)
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeStore) Update(_ context.Context, post *model.Post) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Owner != post.Owner {
		return repository.ErrNotOwner
	}
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	f.updates = append(f.updates, *post)
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeStore) Get(_ context.Context, id model.PostID, owner model.UserID) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	p, ok := f.posts[id]
	if !ok || p.Owner != owner {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) writes() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates), len(f.updates)
}

type fixture struct {
	session *Session
	store   *fakeStore
	drafts  *drafts.MemoryRepository
	clock   *fakeClock
	events  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newFakeStore(),
		drafts: drafts.NewMemoryRepository(),
		clock:  &fakeClock{},
		events: &recorder{},
	}
	f.session = NewSession(alice, f.store, f.drafts, f.events.notify, time.Second,
		WithSchedulerOptions(autosave.WithAfterFunc(f.clock.AfterFunc)))
	t.Cleanup(f.session.Close)
	return f
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }
