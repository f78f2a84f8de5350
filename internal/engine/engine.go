// Package engine is the real-time task synchronization engine: it
// keeps an in-memory task collection consistent with the remote change
// feed, ties the subscription's lifetime to the session, and drives
// the transient notification queue.
package engine

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/ashik0401/task-mate-client/internal/feed"
	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/session"
)

// loadTimeout bounds the initial full task list fetch.
const loadTimeout = 30 * time.Second

// Loader fetches the full task list when a subscription opens, so the
// store starts from the server's current state before events stream in.
type Loader interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
}

// Cache persists the last-known task snapshot between runs. Optional;
// purely a render-first cache, never a source of truth.
type Cache interface {
	Load(ctx context.Context) ([]model.Task, error)
	ReplaceAll(ctx context.Context, tasks []model.Task) error
	Upsert(ctx context.Context, task model.Task) error
	Delete(ctx context.Context, id string) error
}

// Config wires an engine's collaborators.
type Config struct {
	// Feed is the change feed client. Required.
	Feed feed.Feed

	// ScopePolicy is feed.ScopeAll or feed.ScopeOwned.
	ScopePolicy string

	// Monitor supplies session state transitions. Required.
	Monitor *session.Monitor

	// Loader fetches the initial task list. Required.
	Loader Loader

	// Cache persists snapshots across runs. Optional.
	Cache Cache

	// NotificationTTL is how long notifications stay visible.
	// Zero uses the default.
	NotificationTTL time.Duration
}

// Engine is one explicitly owned synchronization engine instance. All
// feed events, session transitions, and notification expiries are
// submitted to a single serializing loop, so the store and queue are
// never mutated concurrently. Consumers read snapshots and listen on
// Updates for change signals.
type Engine struct {
	cfg Config

	mu       gosync.Mutex
	store    *TaskStore
	notices  *NotificationQueue
	rec      *Reconciler
	sub      *feed.Subscriber
	identity string
	status   feed.Status
	closed   bool

	loopCh  chan func()
	loopWG  gosync.WaitGroup
	updates chan struct{}
}

// New creates an engine. Call Start to begin processing and Close to
// tear it down.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg:     cfg,
		store:   NewTaskStore(),
		status:  feed.StatusClosed,
		loopCh:  make(chan func(), 64),
		updates: make(chan struct{}, 1),
	}

	e.notices = NewNotificationQueue(cfg.NotificationTTL, func(id int64) {
		e.submit(func() {
			if e.notices.Expire(id) {
				e.publish()
			}
		})
	})
	e.rec = NewReconciler(e.store, e.notices)

	e.sub = feed.NewSubscriber(cfg.Feed, cfg.ScopePolicy,
		func(ev model.ChangeEvent) {
			e.submit(func() { e.reconcile(ev) })
		},
		func(st feed.Status) {
			e.submit(func() {
				e.status = st
				e.publish()
			})
		},
	)

	cfg.Monitor.Subscribe(func(_, new *model.Session) {
		e.submit(func() { e.onSession(new) })
	})

	return e
}

// Start launches the serializing loop, primes the store from the
// cache, and processes the monitor's current session state.
func (e *Engine) Start() {
	e.loopWG.Add(1)
	go e.run()

	if e.cfg.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		cached, err := e.cfg.Cache.Load(ctx)
		cancel()
		if err != nil {
			slog.Warn("loading task cache failed", "error", err)
		} else if len(cached) > 0 {
			e.submit(func() {
				if e.store.Len() == 0 {
					e.store.Replace(cached)
					e.publish()
				}
			})
		}
	}

	sess := e.cfg.Monitor.Current()
	e.submit(func() { e.onSession(sess) })
}

// Close tears the engine down: the subscription closes first so no
// further events are dispatched, then the loop drains and stops, and
// only then are the notification timers cancelled. The queue shuts
// down last because a loop function mid-flight when Close begins can
// still push a notification; draining first means no timer is
// scheduled after the sweep. Callbacks arriving after Close are
// dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.sub.Close()

	close(e.loopCh)
	e.loopWG.Wait()

	e.mu.Lock()
	e.notices.Shutdown()
	e.status = feed.StatusClosed
	e.mu.Unlock()
}

// Updates signals (coalesced) whenever a snapshot may have changed.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Tasks returns the ordered task snapshot.
func (e *Engine) Tasks() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Notifications returns the live notification snapshot, most recent
// first.
func (e *Engine) Notifications() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notices.Snapshot(time.Now())
}

// Status returns the feed connectivity status.
func (e *Engine) Status() feed.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// DismissNotification removes a notification before its TTL elapses.
func (e *Engine) DismissNotification(id int64) {
	e.submit(func() {
		if e.notices.Dismiss(id) {
			e.publish()
		}
	})
}

// UpsertLocal applies a task mutation made through the CRUD API by
// this client, so the UI reflects it before the feed event
// round-trips. The eventual self-originated event overwrites it
// idempotently.
func (e *Engine) UpsertLocal(task model.Task) {
	e.submit(func() {
		e.store.Upsert(task)
		e.cacheWrite(func(ctx context.Context, c Cache) error {
			return c.Upsert(ctx, task)
		})
		e.publish()
	})
}

// RemoveLocal applies a local deletion, mirroring UpsertLocal.
func (e *Engine) RemoveLocal(id string) {
	e.submit(func() {
		e.store.Remove(id)
		e.cacheWrite(func(ctx context.Context, c Cache) error {
			return c.Delete(ctx, id)
		})
		e.publish()
	})
}

// run executes submitted work one task at a time.
func (e *Engine) run() {
	defer e.loopWG.Done()
	for fn := range e.loopCh {
		e.mu.Lock()
		closed := e.closed
		e.mu.Unlock()
		if closed {
			continue
		}
		fn()
	}
}

// submit queues work for the loop. Work submitted after Close is
// dropped.
func (e *Engine) submit(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	defer func() {
		// The loop channel closes during teardown; a racing submit
		// must not crash the producer.
		_ = recover()
	}()
	e.loopCh <- fn
}

// reconcile folds one feed event into the store and cache.
func (e *Engine) reconcile(ev model.ChangeEvent) {
	e.mu.Lock()
	identity := e.identity
	changed := e.rec.Apply(ev, identity)
	e.mu.Unlock()

	if changed {
		switch ev.Type {
		case model.EventDeleted:
			e.cacheWrite(func(ctx context.Context, c Cache) error {
				return c.Delete(ctx, ev.Old.ID)
			})
		default:
			e.cacheWrite(func(ctx context.Context, c Cache) error {
				return c.Upsert(ctx, *ev.New)
			})
		}
	}
	e.publish()
}

// onSession reacts to a session transition: a present identity opens
// the subscription and triggers a full list load, absence closes it.
func (e *Engine) onSession(sess *model.Session) {
	if sess == nil {
		e.mu.Lock()
		e.identity = ""
		e.mu.Unlock()
		e.sub.Close()
		e.publish()
		return
	}

	e.mu.Lock()
	e.identity = sess.UserID
	e.mu.Unlock()

	e.sub.Open(sess)
	go e.loadInitial(sess.UserID)
}

// loadInitial replaces the store with the server's current list,
// unless the identity changed while the fetch was in flight.
//
// An event that lands between the server building the list and the
// replace executing is overwritten by the older list until the feed
// redelivers or the next session transition reloads. The window is
// one round trip wide and self-heals, so events are not buffered and
// folded over the load.
func (e *Engine) loadInitial(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	tasks, err := e.cfg.Loader.ListTasks(ctx)
	if err != nil {
		// Recoverable: the cache or feed events still populate the
		// view; the next session transition retries.
		slog.Warn("initial task list load failed", "error", err)
		return
	}

	e.submit(func() {
		e.mu.Lock()
		stale := e.identity != userID
		if !stale {
			e.store.Replace(tasks)
		}
		e.mu.Unlock()
		if stale {
			return
		}
		e.cacheWrite(func(ctx context.Context, c Cache) error {
			return c.ReplaceAll(ctx, tasks)
		})
		e.publish()
	})
}

// cacheWrite persists a store mutation to the cache, logging rather
// than propagating failures.
func (e *Engine) cacheWrite(op func(context.Context, Cache) error) {
	if e.cfg.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := op(ctx, e.cfg.Cache); err != nil {
		slog.Warn("task cache write failed", "error", err)
	}
}

// publish signals snapshot consumers, coalescing bursts.
func (e *Engine) publish() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}
