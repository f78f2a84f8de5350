package session_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/session"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

type stubProvider struct {
	mu       gosync.Mutex
	sess     *model.Session
	err      error
	signOuts int
}

func (p *stubProvider) CurrentSession(context.Context) (*model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess, p.err
}

func (p *stubProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	p.sess = nil
	return nil
}

func (p *stubProvider) set(sess *model.Session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = sess
	p.err = err
}

type transition struct {
	old *model.Session
	new *model.Session
}

func recordTransitions(m *session.Monitor) chan transition {
	ch := make(chan transition, 16)
	m.Subscribe(func(old, new *model.Session) {
		ch <- transition{old: old, new: new}
	})
	return ch
}

func sessionFor(userID string) *model.Session {
	return &model.Session{UserID: userID, Email: userID + "@example.com", AccessToken: "token-" + userID}
}

func TestMonitorInitialFetch(t *testing.T) {
	p := &stubProvider{sess: sessionFor("user-me")}
	m := session.NewMonitor(context.Background(), p)

	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "user-me", cur.UserID)
}

func TestMonitorInitialFetchErrorMeansSignedOut(t *testing.T) {
	p := &stubProvider{err: errors.New("keyring unavailable")}
	m := session.NewMonitor(context.Background(), p)

	assert.Nil(t, m.Current())
}

func TestMonitorNotifiesOnSignIn(t *testing.T) {
	p := &stubProvider{}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	m.Start(time.Hour)
	defer m.Stop()

	p.set(sessionFor("user-me"), nil)
	m.Refresh()

	select {
	case tr := <-transitions:
		assert.Nil(t, tr.old)
		require.NotNil(t, tr.new)
		assert.Equal(t, "user-me", tr.new.UserID)
	case <-time.After(waitFor):
		t.Fatal("no transition observed")
	}

	require.Eventually(t, func() bool {
		cur := m.Current()
		return cur != nil && cur.UserID == "user-me"
	}, waitFor, tick)
}

func TestMonitorDedupsSameIdentity(t *testing.T) {
	p := &stubProvider{sess: sessionFor("user-me")}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	m.Start(time.Hour)
	defer m.Stop()

	// Re-fetching the same identity is not a transition.
	m.Refresh()
	m.Refresh()

	select {
	case tr := <-transitions:
		t.Fatalf("unexpected transition %+v", tr)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitorKeepsStateOnProviderError(t *testing.T) {
	p := &stubProvider{sess: sessionFor("user-me")}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	m.Start(time.Hour)
	defer m.Stop()

	// A transient failure must not masquerade as a sign-out.
	p.set(nil, errors.New("identity provider unreachable"))
	m.Refresh()

	select {
	case tr := <-transitions:
		t.Fatalf("unexpected transition %+v", tr)
	case <-time.After(100 * time.Millisecond):
	}
	require.NotNil(t, m.Current())
	assert.Equal(t, "user-me", m.Current().UserID)
}

func TestMonitorIdentitySwitch(t *testing.T) {
	p := &stubProvider{sess: sessionFor("user-a")}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	m.Start(time.Hour)
	defer m.Stop()

	p.set(sessionFor("user-b"), nil)
	m.Refresh()

	select {
	case tr := <-transitions:
		require.NotNil(t, tr.old)
		require.NotNil(t, tr.new)
		assert.Equal(t, "user-a", tr.old.UserID)
		assert.Equal(t, "user-b", tr.new.UserID)
	case <-time.After(waitFor):
		t.Fatal("no transition observed")
	}
}

func TestMonitorSignOut(t *testing.T) {
	p := &stubProvider{sess: sessionFor("user-me")}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	require.NoError(t, m.SignOut(context.Background()))

	p.mu.Lock()
	assert.Equal(t, 1, p.signOuts)
	p.mu.Unlock()

	select {
	case tr := <-transitions:
		require.NotNil(t, tr.old)
		assert.Nil(t, tr.new)
	case <-time.After(waitFor):
		t.Fatal("no transition observed")
	}
	assert.Nil(t, m.Current())
}

func TestMonitorStopHaltsWatcher(t *testing.T) {
	p := &stubProvider{}
	m := session.NewMonitor(context.Background(), p)
	transitions := recordTransitions(m)

	m.Start(time.Hour)
	m.Stop()

	p.set(sessionFor("user-me"), nil)
	m.Refresh()

	select {
	case tr := <-transitions:
		t.Fatalf("transition %+v after Stop", tr)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionSame(t *testing.T) {
	var none *model.Session
	a := sessionFor("user-a")

	assert.True(t, none.Same(nil))
	assert.False(t, a.Same(nil))
	assert.False(t, none.Same(a))
	assert.True(t, a.Same(sessionFor("user-a")))
	assert.False(t, a.Same(sessionFor("user-b")))
}
