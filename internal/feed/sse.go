package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	gosync "sync"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// SSEFeed implements Feed over a server-sent-events stream. Each
// event's data payload is a JSON-encoded change event.
type SSEFeed struct {
	baseURL    string
	httpClient *http.Client
}

// NewSSEFeed creates a feed client for the given service root URL.
// The HTTP client carries no timeout: the stream stays open for the
// subscription's lifetime and is torn down via context cancellation.
func NewSSEFeed(baseURL string) *SSEFeed {
	return &SSEFeed{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Subscribe opens the event stream and returns once the server has
// acknowledged it. Delivery happens on the returned handle's channel.
func (f *SSEFeed) Subscribe(ctx context.Context, scope Scope) (Handle, error) {
	streamURL := f.baseURL + "/feed/tasks"
	if scope.OwnerID != "" {
		streamURL += "?owner=" + url.QueryEscape(scope.OwnerID)
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating feed request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if scope.Token != "" {
		req.Header.Set("Authorization", "Bearer "+scope.Token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening feed stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("feed stream rejected with status %d", resp.StatusCode)
	}

	h := &sseHandle{
		events: make(chan model.ChangeEvent, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go h.read(resp.Body)
	return h, nil
}

// sseHandle is one open SSE subscription.
type sseHandle struct {
	events chan model.ChangeEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu     gosync.Mutex
	err    error
	closed bool
}

func (h *sseHandle) Events() <-chan model.ChangeEvent {
	return h.events
}

func (h *sseHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close tears the stream down. Events still in flight are discarded;
// the Events channel closes shortly after.
func (h *sseHandle) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()
	h.cancel()
}

// read parses the SSE stream and forwards decoded events until the
// body ends or the handle is closed.
func (h *sseHandle) read(body io.ReadCloser) {
	defer close(h.events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		// A blank line terminates one SSE event.
		if line == "" {
			if data.Len() > 0 {
				h.dispatch(data.String())
				data.Reset()
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if data.Len() > 0 {
		h.dispatch(data.String())
	}

	if err := scanner.Err(); err != nil {
		h.mu.Lock()
		if !h.closed {
			h.err = fmt.Errorf("reading feed stream: %w", err)
		}
		h.mu.Unlock()
		return
	}

	// A clean EOF while still subscribed means the server dropped us.
	h.mu.Lock()
	if !h.closed {
		h.err = fmt.Errorf("feed stream ended unexpectedly")
	}
	h.mu.Unlock()
}

// dispatch decodes one event payload and forwards it. Payloads that do
// not decode at all are dropped here; shape validation of decoded
// events belongs to the reconciler.
func (h *sseHandle) dispatch(payload string) {
	var ev model.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		slog.Warn("dropping undecodable feed payload", "error", err)
		return
	}

	select {
	case h.events <- ev:
	case <-h.done:
	}
}
