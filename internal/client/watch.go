package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/realtime"
)

// Watcher follows a workspace's change feed and calls back once things
// settle. It reconnects until its context is cancelled.
type Watcher struct {
	client       *Client
	workspaceID  string
	debounceTime time.Duration
	retryTime    time.Duration

	mu       sync.Mutex
	onChange func([]realtime.Event)
	lastErr  error
	online   bool
}

// NewWatcher creates a watcher for workspaceID
func (c *Client) NewWatcher(workspaceID string) *Watcher {
	return &Watcher{
		client:       c,
		workspaceID:  workspaceID,
		debounceTime: 300 * time.Millisecond, // Coalesce bursts such as a multi-task move
		retryTime:    5 * time.Second,
	}
}

// SetDebounce changes how long the watcher waits for more events
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceTime = d
}

// SetOnChange sets the callback. It receives the events of one burst.
func (w *Watcher) SetOnChange(callback func([]realtime.Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// LastError returns the error that ended the previous connection
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Online reports whether the feed is connected
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Run blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) {
	for {
		err := w.watchOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		w.mu.Lock()
		w.lastErr = err
		w.online = false
		w.mu.Unlock()
		logger.Debug("Change feed disconnected", logger.F("workspace", w.workspaceID), logger.F("error", err))

		timer := time.NewTimer(w.retryTime)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (w *Watcher) feedURL() (string, error) {
	creds := w.client.Credentials()
	u, err := url.Parse(creds.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/workspaces/" + url.PathEscape(w.workspaceID) + "/events"
	u.RawQuery = url.Values{"token": {creds.Token}}.Encode()
	return u.String(), nil
}

func (w *Watcher) watchOnce(ctx context.Context) error {
	if err := w.client.authed(); err != nil {
		return err
	}
	feed, err := w.feedURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feed, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	w.mu.Lock()
	w.online = true
	w.lastErr = nil
	w.mu.Unlock()

	events := make(chan realtime.Event)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var ev realtime.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var pending []realtime.Event
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return ctx.Err()

		case err := <-readErr:
			if timer != nil {
				timer.Stop()
			}
			w.flush(pending)
			return err

		case ev := <-events:
			pending = append(pending, ev)
			if timer == nil {
				w.mu.Lock()
				d := w.debounceTime
				w.mu.Unlock()
				timer = time.NewTimer(d)
				fire = timer.C
			}

		case <-fire:
			w.flush(pending)
			pending = nil
			timer = nil
			fire = nil
		}
	}
}

func (w *Watcher) flush(events []realtime.Event) {
	if len(events) == 0 {
		return
	}
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	if callback != nil {
		callback(events)
	}
}
