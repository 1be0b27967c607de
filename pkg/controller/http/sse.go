package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/errutil"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/secmon-lab/itemdeck/pkg/utils/safe"
)

// eventHub fans store snapshots out to event stream clients. Each client holds
// at most one unread snapshot; a newer one replaces it, so a client that falls
// behind skips intermediate states but always ends on the latest.
type eventHub struct {
	mu          sync.Mutex
	clients     map[uuid.UUID]chan []byte
	closed      bool
	unsubscribe func()
}

func newEventHub(store *usecase.ItemStore) *eventHub {
	h := &eventHub{
		clients: make(map[uuid.UUID]chan []byte),
	}
	h.unsubscribe = store.Subscribe(h.broadcast)
	return h
}

func encodeSnapshot(snap usecase.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal snapshot")
	}
	return data, nil
}

func (h *eventHub) broadcast(snap usecase.Snapshot) {
	data, err := encodeSnapshot(snap)
	if err != nil {
		logging.Default().Error("failed to encode state event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- data:
		default:
			// only broadcast sends, under h.mu, so the slot is free after draining
			select {
			case <-ch:
			default:
			}
			ch <- data
			logging.Default().Debug("event client is slow, replaced unread state", "client_id", id)
		}
	}
}

func (h *eventHub) register() (uuid.UUID, <-chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return uuid.Nil, nil, false
	}
	id := uuid.New()
	ch := make(chan []byte, 1)
	h.clients[id] = ch
	return id, ch, true
}

func (h *eventHub) deregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
}

func (h *eventHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *eventHub) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
		return goerr.Wrap(err, "failed to write event")
	}
	if err := rc.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush event")
	}
	return nil
}

// eventsHandler streams a "state" event on connect and one per store change.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ch, ok := s.events.register()
	if !ok {
		errutil.HandleHTTP(ctx, w, goerr.New("event hub closed"), http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	defer s.events.deregister(id)

	logger := logging.From(ctx).With("client_id", id.String())
	logger.Debug("event client connected")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	initial, err := encodeSnapshot(s.uc.Items.Snapshot())
	if err != nil {
		logger.Error("failed to encode initial state", "error", err)
		return
	}
	if err := writeEvent(w, rc, initial); err != nil {
		logger.Debug("event client gone", "error", err)
		return
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("event client disconnected")
			return

		case data, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, data); err != nil {
				logger.Debug("event client gone", "error", err)
				return
			}

		case <-ticker.C:
			safe.Write(ctx, w, []byte(": keep-alive\n\n"))
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
