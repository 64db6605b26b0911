package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/flemzord/every/internal/schedule"
)

const (
	eventBuffer       = 32
	eventWriteTimeout = 5 * time.Second
)

// Event types.
const (
	EventJobSucceeded = "job.succeeded"
	EventJobFailed    = "job.failed"
)

// Event is the JSON message broadcast for each job run.
type Event struct {
	Type     string    `json:"type"`
	JobID    string    `json:"job_id"`
	Job      string    `json:"job"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Duration float64   `json:"duration_seconds"`
	NextRun  time.Time `json:"next_run"`
	Error    string    `json:"error,omitempty"`
}

func eventOf(r schedule.RunRecord) Event {
	ev := Event{
		Type:     EventJobSucceeded,
		JobID:    r.JobID,
		Job:      r.Job,
		Started:  r.Started,
		Finished: r.Finished,
		Duration: r.Duration().Seconds(),
		NextRun:  r.NextRun,
	}
	if r.Err != nil {
		ev.Type = EventJobFailed
		ev.Error = r.Err.Error()
	}
	return ev
}

// Hub broadcasts run events to websocket subscribers. It implements
// schedule.Observer. A subscriber that falls behind loses events rather
// than stalling the scheduler.
type Hub struct {
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[*subscriber]struct{}
	closed  bool
}

type subscriber struct {
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*subscriber]struct{}),
	}
}

// JobRan implements schedule.Observer.
func (h *Hub) JobRan(r schedule.RunRecord) {
	data, err := json.Marshal(eventOf(r))
	if err != nil {
		h.logger.Error("gateway: marshal event failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("gateway: event subscriber lagging, event dropped", "job", r.Job)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.clients {
		close(sub.send)
		delete(h.clients, sub)
	}
}

func (h *Hub) subscribe() (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	sub := &subscriber{send: make(chan []byte, eventBuffer)}
	h.clients[sub] = struct{}{}
	return sub, true
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, sub)
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client goes away or the hub closes. Client messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(sub)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("gateway: websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.send:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.write(ctx, conn, data); err != nil {
				h.logger.Warn("gateway: write event failed", "error", err)
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
