package session

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// fetchTimeout bounds a single session check against the provider.
const fetchTimeout = 10 * time.Second

// TransitionFunc is invoked synchronously on every session transition.
// Exactly one call is made per actual change of state; a re-fetch that
// observes the same identity does not notify.
type TransitionFunc func(old, new *model.Session)

// Monitor tracks the current session state and notifies subscribers of
// transitions. Construction performs one initial fetch before any
// callback can fire, so consumers never observe an undefined state.
type Monitor struct {
	provider Provider

	mu          gosync.Mutex
	current     *model.Session
	subscribers []TransitionFunc
	stopCh      chan struct{}
	refreshCh   chan struct{}
	running     bool
}

// NewMonitor creates a monitor and performs the initial session fetch.
// A provider error during the initial fetch is treated as signed out;
// the watcher re-checks on its next tick.
func NewMonitor(ctx context.Context, provider Provider) *Monitor {
	m := &Monitor{
		provider:  provider,
		stopCh:    make(chan struct{}),
		refreshCh: make(chan struct{}, 1),
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	sess, err := provider.CurrentSession(fetchCtx)
	if err != nil {
		slog.Warn("initial session fetch failed", "error", err)
		sess = nil
	}
	m.current = sess
	return m
}

// Current returns the session state as of the last fetch, or nil when
// signed out.
func (m *Monitor) Current() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a transition callback. Callbacks run
// synchronously on the goroutine that detected the transition and must
// not call back into the monitor.
func (m *Monitor) Subscribe(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Start launches the watcher goroutine that re-checks the provider
// every interval and on explicit Refresh calls. Starting an already
// running monitor is a no-op.
func (m *Monitor) Start(interval time.Duration) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.watch(interval)
}

// Stop halts the watcher goroutine. No transition callbacks fire after
// Stop returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

// Refresh triggers an immediate re-check of the provider, used after a
// sign-in or sign-out initiated by this client.
func (m *Monitor) Refresh() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

// SignOut revokes the session with the provider and immediately
// notifies subscribers of the resulting transition.
func (m *Monitor) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		return err
	}
	m.check(ctx)
	return nil
}

// watch is the watcher goroutine's loop.
func (m *Monitor) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
		case <-m.refreshCh:
		}

		select {
		case <-m.stopCh:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		m.check(ctx)
		cancel()
	}
}

// check re-fetches the session and notifies subscribers when the
// identity actually changed. Provider errors keep the previous state;
// a transient failure must not masquerade as a sign-out.
func (m *Monitor) check(ctx context.Context) {
	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		slog.Warn("session re-fetch failed", "error", err)
		return
	}

	m.mu.Lock()
	old := m.current
	if sess.Same(old) {
		m.mu.Unlock()
		return
	}
	m.current = sess
	subscribers := make([]TransitionFunc, len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	slog.Info("session transition",
		"from", identityOf(old), "to", identityOf(sess))
	for _, fn := range subscribers {
		fn(old, sess)
	}
}

// identityOf renders a session's identity for logging.
func identityOf(s *model.Session) string {
	if s == nil {
		return "signed-out"
	}
	return s.UserID
}
