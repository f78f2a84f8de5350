package feed

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// Status is the subscriber's connectivity state as seen by the UI.
type Status int

const (
	// StatusClosed means no subscription exists (signed out or torn
	// down).
	StatusClosed Status = iota

	// StatusOpen means the subscription is established and events are
	// flowing.
	StatusOpen

	// StatusDegraded means the last subscribe attempt failed and a
	// retry is pending. Recoverable, never fatal.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusDegraded:
		return "degraded"
	default:
		return "closed"
	}
}

// ScopeAll and ScopeOwned are the deployment policies for which events
// a subscription receives.
const (
	ScopeAll   = "all"
	ScopeOwned = "owned"
)

const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 30 * time.Second
)

// Subscriber owns the single change feed subscription for one engine
// instance. Open and Close follow the session's presence; opening
// while already open for the same identity is a no-op, so transitions
// can never stack duplicate subscriptions. Subscribe failures degrade
// and retry with capped exponential backoff.
type Subscriber struct {
	feed        Feed
	scopePolicy string
	handler     func(model.ChangeEvent)
	onStatus    func(Status)

	mu         gosync.Mutex
	status     Status
	session    *model.Session
	handle     Handle
	gen        uint64
	attempts   int
	retryTimer *time.Timer
}

// NewSubscriber creates a subscriber in the Closed state. handler
// receives every event delivered while the subscription that produced
// it is still current; onStatus (optional) observes connectivity
// changes. Both are called from the subscriber's own goroutines.
func NewSubscriber(f Feed, scopePolicy string, handler func(model.ChangeEvent), onStatus func(Status)) *Subscriber {
	if scopePolicy != ScopeOwned {
		scopePolicy = ScopeAll
	}
	return &Subscriber{
		feed:        f,
		scopePolicy: scopePolicy,
		handler:     handler,
		onStatus:    onStatus,
	}
}

// Status returns the current connectivity state.
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Open establishes a subscription for the given session. Already being
// open (or mid-retry) for the same identity is a no-op. A different
// identity replaces the existing subscription.
func (s *Subscriber) Open(sess *model.Session) {
	if sess == nil {
		s.Close()
		return
	}

	s.mu.Lock()
	if s.status != StatusClosed && s.session != nil && s.session.UserID == sess.UserID {
		s.mu.Unlock()
		return
	}

	s.releaseLocked()
	s.session = sess
	s.attempts = 0
	gen := s.gen
	s.mu.Unlock()

	go s.connect(gen)
}

// Close releases the subscription. Events arriving after Close are
// dropped. Closing an already closed subscriber is a no-op.
func (s *Subscriber) Close() {
	s.mu.Lock()
	s.releaseLocked()
	s.session = nil
	changed := s.status != StatusClosed
	s.status = StatusClosed
	s.mu.Unlock()

	if changed {
		s.notify(StatusClosed)
	}
}

// releaseLocked tears down any live handle and pending retry, and
// bumps the generation so in-flight connects and deliveries for the
// old subscription are discarded. Caller holds s.mu.
func (s *Subscriber) releaseLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	s.gen++
}

// connect performs one subscribe attempt for the given generation.
func (s *Subscriber) connect(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.session == nil {
		s.mu.Unlock()
		return
	}
	scope := Scope{Token: s.session.AccessToken}
	if s.scopePolicy == ScopeOwned {
		scope.OwnerID = s.session.UserID
	}
	s.mu.Unlock()

	h, err := s.feed.Subscribe(context.Background(), scope)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if err == nil {
			h.Close()
		}
		return
	}

	if err != nil {
		delay := s.backoffLocked()
		slog.Warn("feed subscribe failed, retrying",
			"error", err, "retry_in", delay)
		s.status = StatusDegraded
		s.retryTimer = time.AfterFunc(delay, func() {
			s.retry(gen)
		})
		s.mu.Unlock()
		s.notify(StatusDegraded)
		return
	}

	s.handle = h
	s.attempts = 0
	s.status = StatusOpen
	s.mu.Unlock()

	s.notify(StatusOpen)
	go s.pump(gen, h)
}

// retry re-attempts a failed subscribe if its generation is still
// current.
func (s *Subscriber) retry(gen uint64) {
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if current {
		s.connect(gen)
	}
}

// pump forwards events from an established handle to the handler until
// the handle ends. A handle that ends while still current is a
// transport drop: the subscriber degrades and retries.
func (s *Subscriber) pump(gen uint64, h Handle) {
	for ev := range h.Events() {
		s.mu.Lock()
		current := gen == s.gen
		s.mu.Unlock()
		if !current {
			return
		}
		s.handler(ev)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	err := h.Err()
	s.handle = nil
	delay := s.backoffLocked()
	s.status = StatusDegraded
	s.retryTimer = time.AfterFunc(delay, func() {
		s.retry(gen)
	})
	s.mu.Unlock()

	slog.Warn("feed stream dropped, reconnecting",
		"error", err, "retry_in", delay)
	s.notify(StatusDegraded)
}

// backoffLocked returns the next retry delay and advances the attempt
// counter. The shift is clamped so a long outage cannot overflow the
// duration into an immediate retry. Caller holds s.mu.
func (s *Subscriber) backoffLocked() time.Duration {
	shift := s.attempts
	if shift > 5 {
		shift = 5
	}
	delay := baseBackoff << uint(shift)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	s.attempts++
	return delay
}

// notify reports a status change to the observer, if any.
func (s *Subscriber) notify(st Status) {
	if s.onStatus != nil {
		s.onStatus(st)
	}
}
