package engine_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashik0401/task-mate-client/internal/engine"
	"github.com/ashik0401/task-mate-client/internal/feed"
	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/session"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

// fakeHandle is a controllable feed.Handle for tests.
type fakeHandle struct {
	events chan model.ChangeEvent

	mu     gosync.Mutex
	err    error
	closed bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{events: make(chan model.ChangeEvent, 16)}
}

func (h *fakeHandle) Events() <-chan model.ChangeEvent { return h.events }

func (h *fakeHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
}

// emit delivers one event, pretending the server pushed it.
func (h *fakeHandle) emit(ev model.ChangeEvent) {
	h.events <- ev
}

// drop ends the stream as if the transport died.
func (h *fakeHandle) drop(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.err = err
		close(h.events)
	}
}

// fakeFeed hands out fakeHandles and can refuse a number of subscribe
// attempts first.
type fakeFeed struct {
	mu       gosync.Mutex
	failures int
	scopes   []feed.Scope

	subscribed chan *fakeHandle
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subscribed: make(chan *fakeHandle, 8)}
}

func (f *fakeFeed) Subscribe(_ context.Context, scope feed.Scope) (feed.Handle, error) {
	f.mu.Lock()
	f.scopes = append(f.scopes, scope)
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("subscribe refused")
	}
	f.mu.Unlock()

	h := newFakeHandle()
	f.subscribed <- h
	return h, nil
}

func (f *fakeFeed) waitHandle(t *testing.T) *fakeHandle {
	t.Helper()
	select {
	case h := <-f.subscribed:
		return h
	case <-time.After(waitFor):
		t.Fatal("no subscription was established")
		return nil
	}
}

// fakeProvider is an in-memory session.Provider.
type fakeProvider struct {
	mu   gosync.Mutex
	sess *model.Session
	err  error
}

func (p *fakeProvider) CurrentSession(context.Context) (*model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess, p.err
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = nil
	return nil
}

func (p *fakeProvider) set(sess *model.Session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = sess
	p.err = err
}

// fakeLoader serves a fixed task list.
type fakeLoader struct {
	mu    gosync.Mutex
	tasks []model.Task
	err   error
}

func (l *fakeLoader) ListTasks(context.Context) ([]model.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	return out, nil
}

// fakeCache records engine write-through calls.
type fakeCache struct {
	mu    gosync.Mutex
	tasks map[string]model.Task
}

func newFakeCache() *fakeCache {
	return &fakeCache{tasks: make(map[string]model.Task)}
}

func (c *fakeCache) Load(context.Context) ([]model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (c *fakeCache) ReplaceAll(_ context.Context, tasks []model.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		c.tasks[t.ID] = t
	}
	return nil
}

func (c *fakeCache) Upsert(_ context.Context, t model.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[t.ID] = t
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, id)
	return nil
}

func (c *fakeCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[id]
	return ok
}

func sessionFor(userID string) *model.Session {
	return &model.Session{UserID: userID, Email: userID + "@example.com", AccessToken: "token-" + userID}
}

type engineFixture struct {
	engine   *engine.Engine
	monitor  *session.Monitor
	feed     *fakeFeed
	provider *fakeProvider
	loader   *fakeLoader
}

func startEngine(t *testing.T, cfg func(*engine.Config), sess *model.Session) *engineFixture {
	t.Helper()

	provider := &fakeProvider{sess: sess}
	monitor := session.NewMonitor(context.Background(), provider)
	monitor.Start(time.Hour)
	t.Cleanup(monitor.Stop)

	f := newFakeFeed()
	loader := &fakeLoader{}

	c := engine.Config{
		Feed:            f,
		ScopePolicy:     feed.ScopeAll,
		Monitor:         monitor,
		Loader:          loader,
		NotificationTTL: time.Minute,
	}
	if cfg != nil {
		cfg(&c)
	}

	e := engine.New(c)
	e.Start()
	t.Cleanup(e.Close)

	return &engineFixture{engine: e, monitor: monitor, feed: f, provider: provider, loader: loader}
}

func TestEngineLoadsInitialListOnSignIn(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Start signed out so the load only happens once the list is set.
	fx := startEngine(t, nil, nil)
	fx.loader.mu.Lock()
	fx.loader.tasks = []model.Task{
		taskAt("t1", "older", base),
		taskAt("t2", "newer", base.Add(time.Minute)),
	}
	fx.loader.mu.Unlock()

	fx.provider.set(sessionFor("user-me"), nil)
	fx.monitor.Refresh()

	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 2
	}, waitFor, tick)

	snap := fx.engine.Tasks()
	assert.Equal(t, "t2", snap[0].ID)
	assert.Equal(t, "t1", snap[1].ID)
	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusOpen
	}, waitFor, tick)
}

func TestEngineFoldsFeedEvents(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, nil, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Review PR", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})

	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 1
	}, waitFor, tick)
	notes := fx.engine.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationCreated, notes[0].Kind)

	revised := other
	revised.Title = "Review PR again"
	h.emit(model.ChangeEvent{Type: model.EventUpdated, New: &revised, Old: &other, Seq: 2})

	require.Eventually(t, func() bool {
		snap := fx.engine.Tasks()
		return len(snap) == 1 && snap[0].Title == "Review PR again"
	}, waitFor, tick)

	h.emit(model.ChangeEvent{Type: model.EventDeleted, Old: &revised, Seq: 3})
	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 0
	}, waitFor, tick)

	notes = fx.engine.Notifications()
	require.Len(t, notes, 3)
	assert.Equal(t, model.NotificationDeleted, notes[0].Kind)
	assert.Equal(t, model.NotificationUpdated, notes[1].Kind)
}

func TestEngineSuppressesOwnEvents(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, nil, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	mine := model.Task{ID: "t1", Title: "My own", OwnerID: "user-me", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &mine, Seq: 1})

	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 1
	}, waitFor, tick)
	assert.Empty(t, fx.engine.Notifications())
}

func TestEngineNotificationExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, func(c *engine.Config) {
		c.NotificationTTL = 50 * time.Millisecond
	}, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Blink", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})

	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 1
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 0
	}, waitFor, tick)

	// The task itself outlives the notification.
	assert.Len(t, fx.engine.Tasks(), 1)
}

func TestEngineDismissNotification(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, nil, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Dismiss me", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})

	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 1
	}, waitFor, tick)

	fx.engine.DismissNotification(fx.engine.Notifications()[0].ID)
	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 0
	}, waitFor, tick)
}

func TestEngineSignOutClosesFeed(t *testing.T) {
	fx := startEngine(t, nil, sessionFor("user-me"))
	fx.feed.waitHandle(t)
	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusOpen
	}, waitFor, tick)

	fx.provider.set(nil, nil)
	fx.monitor.Refresh()

	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusClosed
	}, waitFor, tick)
}

func TestEngineRecoversFromSubscribeFailure(t *testing.T) {
	fx := startEngine(t, nil, nil)

	fx.feed.mu.Lock()
	fx.feed.failures = 1
	fx.feed.mu.Unlock()

	fx.provider.set(sessionFor("user-me"), nil)
	fx.monitor.Refresh()

	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusDegraded
	}, waitFor, tick)

	// The backoff retry succeeds on the second attempt.
	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusOpen
	}, 5*time.Second, 20*time.Millisecond)
}

func TestEngineReconnectsAfterStreamDrop(t *testing.T) {
	fx := startEngine(t, nil, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)
	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusOpen
	}, waitFor, tick)

	h.drop(errors.New("stream reset"))

	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusDegraded
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return fx.engine.Status() == feed.StatusOpen
	}, 5*time.Second, 20*time.Millisecond)

	// The replacement subscription delivers events as before.
	h2 := fx.feed.waitHandle(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	other := model.Task{ID: "t1", Title: "After reconnect", OwnerID: "user-other", CreatedAt: base}
	h2.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})
	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 1
	}, waitFor, tick)
}

func TestEngineLocalMutations(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, nil, sessionFor("user-me"))

	fx.engine.UpsertLocal(model.Task{ID: "t1", Title: "Local", OwnerID: "user-me", CreatedAt: base})
	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 1
	}, waitFor, tick)
	// Local mutations never notify; the user just performed them.
	assert.Empty(t, fx.engine.Notifications())

	fx.engine.RemoveLocal("t1")
	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 0
	}, waitFor, tick)
}

func TestEnginePrimesFromCache(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := newFakeCache()
	require.NoError(t, cache.Upsert(context.Background(), taskAt("cached", "From last run", base)))

	fx := startEngine(t, func(c *engine.Config) {
		c.Cache = cache
	}, nil)

	require.Eventually(t, func() bool {
		return len(fx.engine.Tasks()) == 1
	}, waitFor, tick)
	assert.Equal(t, "cached", fx.engine.Tasks()[0].ID)
}

func TestEngineWritesThroughToCache(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := newFakeCache()
	fx := startEngine(t, func(c *engine.Config) {
		c.Cache = cache
	}, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Persist me", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})
	require.Eventually(t, func() bool {
		return cache.has("t1")
	}, waitFor, tick)

	h.emit(model.ChangeEvent{Type: model.EventDeleted, Old: &other, Seq: 2})
	require.Eventually(t, func() bool {
		return !cache.has("t1")
	}, waitFor, tick)
}

func TestEngineCloseCancelsPendingExpiries(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, func(c *engine.Config) {
		c.NotificationTTL = 40 * time.Millisecond
	}, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Short lived", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})
	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 1
	}, waitFor, tick)

	// The loop drains before the timer sweep, so no expiry scheduled
	// around teardown can outlive it.
	fx.engine.Close()
	assert.Empty(t, fx.engine.Notifications())

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, fx.engine.Notifications())
	assert.Equal(t, feed.StatusClosed, fx.engine.Status())
}

func TestEngineCloseIsIdempotentAndQuiesces(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := startEngine(t, nil, sessionFor("user-me"))
	h := fx.feed.waitHandle(t)

	other := model.Task{ID: "t1", Title: "Before close", OwnerID: "user-other", CreatedAt: base}
	h.emit(model.ChangeEvent{Type: model.EventInserted, New: &other, Seq: 1})
	require.Eventually(t, func() bool {
		return len(fx.engine.Notifications()) == 1
	}, waitFor, tick)

	fx.engine.Close()
	fx.engine.Close()

	assert.Equal(t, feed.StatusClosed, fx.engine.Status())
	assert.Empty(t, fx.engine.Notifications())

	// Work submitted after teardown is dropped, not queued.
	before := len(fx.engine.Tasks())
	fx.engine.UpsertLocal(model.Task{ID: "t2", Title: "Too late", OwnerID: "user-me", CreatedAt: base})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, fx.engine.Tasks(), before)
}
