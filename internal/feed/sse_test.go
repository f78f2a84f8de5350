package feed_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashik0401/task-mate-client/internal/feed"
	"github.com/ashik0401/task-mate-client/internal/model"
)

func TestSSEFeedDeliversEvents(t *testing.T) {
	t.Parallel()

	type requestInfo struct {
		accept string
		auth   string
		owner  string
	}
	requests := make(chan requestInfo, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- requestInfo{
			accept: r.Header.Get("Accept"),
			auth:   r.Header.Get("Authorization"),
			owner:  r.URL.Query().Get("owner"),
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"type":"inserted","new":{"id":"t1","title":"From feed","owner_id":"user-other"},"seq":1}`+"\n\n")
		// A payload split across data lines is joined before decoding.
		fmt.Fprint(w, "data: {\"type\":\"deleted\",\ndata: \"old\":{\"id\":\"t1\",\"owner_id\":\"user-other\"},\"seq\":2}\n\n")
		// Undecodable payloads are dropped without ending the stream.
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, `data: {"type":"updated","new":{"id":"t2","title":"Last","owner_id":"user-other"},"seq":3}`+"\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	f := feed.NewSSEFeed(srv.URL)
	h, err := f.Subscribe(t.Context(), feed.Scope{OwnerID: "user me", Token: "secret"})
	require.NoError(t, err)
	defer h.Close()

	req := <-requests
	assert.Equal(t, "text/event-stream", req.accept)
	assert.Equal(t, "Bearer secret", req.auth)
	assert.Equal(t, "user me", req.owner)

	var events []model.ChangeEvent
	for ev := range h.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, model.EventInserted, events[0].Type)
	assert.Equal(t, "t1", events[0].New.ID)
	assert.Equal(t, model.EventDeleted, events[1].Type)
	assert.Equal(t, "t1", events[1].Old.ID)
	assert.Equal(t, model.EventUpdated, events[2].Type)
	assert.Equal(t, int64(3), events[2].Seq)

	// The handler returned, so the server dropped us mid-subscription.
	assert.Error(t, h.Err())
}

func TestSSEFeedRejectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"no feed for you"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	f := feed.NewSSEFeed(srv.URL)
	h, err := f.Subscribe(t.Context(), feed.Scope{Token: "secret"})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "403")
}

func TestSSEFeedCloseEndsStreamWithoutError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := feed.NewSSEFeed(srv.URL)
	h, err := f.Subscribe(t.Context(), feed.Scope{Token: "secret"})
	require.NoError(t, err)

	h.Close()

	select {
	case _, ok := <-h.Events():
		assert.False(t, ok, "expected the events channel to close")
	case <-time.After(3 * time.Second):
		t.Fatal("events channel did not close after Close")
	}

	// A deliberate close is not a stream failure.
	assert.NoError(t, h.Err())
}

func TestSSEFeedOmitsOwnerParamForAllScope(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
	}))
	defer srv.Close()

	f := feed.NewSSEFeed(srv.URL)
	h, err := f.Subscribe(t.Context(), feed.Scope{Token: "secret"})
	require.NoError(t, err)
	defer h.Close()

	assert.Empty(t, <-queries)
}
