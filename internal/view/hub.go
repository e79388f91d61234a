package view

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/presenter"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 64
)

// client wraps a websocket connection. Only writePump writes to conn; pending
// holds at most one model and a newer one replaces it.
type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	pending chan []byte
	done    chan struct{}
	once    sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:      uuid.New(),
		conn:    conn,
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
}

// enqueue must only be called from one goroutine at a time.
func (c *client) enqueue(data []byte) {
	select {
	case c.pending <- data:
		return
	default:
	}
	select {
	case <-c.pending:
	default:
	}
	c.pending <- data
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) write(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub subscribes to the presenter store and pushes a fresh Model to every
// connected page on each state change.
type Hub struct {
	log      *slog.Logger
	store    *presenter.Store
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	events   <-chan presenter.Event
	cancel   func()

	mu      sync.RWMutex
	clients map[uuid.UUID]*client
}

// NewHub creates a hub subscribed to store; call Run to start forwarding events.
func NewHub(log *slog.Logger, store *presenter.Store, metrics *metrics.Metrics) *Hub {
	events, cancel := store.Subscribe(eventBuffer)

	return &Hub{
		log:     log,
		store:   store,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		events:  events,
		cancel:  cancel,
		clients: make(map[uuid.UUID]*client),
	}
}

// Run forwards store events until ctx is canceled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.cancel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event, ok := <-h.events:
			if !ok {
				return
			}
			h.broadcast(ctx, NewModel(event.Snapshot, event.Status))
		}
	}
}

// ServeWS upgrades the request and sends the current model right away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(ctx, "WebSocket upgrade failed", "error", err)
		return
	}

	cli := newClient(conn)
	data, err := json.Marshal(NewModel(h.store.Current(), h.store.Status()))
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to marshal view model", "error", err)
		_ = conn.Close()
		return
	}
	// Queued before registration so any broadcast replaces or follows it.
	cli.enqueue(data)
	h.register(cli)
	h.log.DebugContext(ctx, "Map view connected", "client", cli.id)

	go h.writePump(cli)

	// The page never sends anything; reading only detects the close.
	go func() {
		defer h.unregister(cli)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writePump delivers queued models so a stalled connection only delays itself.
func (h *Hub) writePump(cli *client) {
	for {
		select {
		case <-cli.done:
			return
		case data := <-cli.pending:
			if err := cli.write(data); err != nil {
				h.log.Debug("Dropping map view", "client", cli.id, "error", err)
				h.unregister(cli)
				return
			}
		}
	}
}

func (h *Hub) register(cli *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[cli.id] = cli
	h.metrics.Subscribers.Set(float64(len(h.clients)))
}

func (h *Hub) unregister(cli *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[cli.id]; !ok {
		return
	}
	delete(h.clients, cli.id)
	cli.close()
	h.metrics.Subscribers.Set(float64(len(h.clients)))
}

func (h *Hub) broadcast(ctx context.Context, model Model) {
	data, err := json.Marshal(model)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to marshal view model", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, cli := range h.clients {
		clients = append(clients, cli)
	}
	h.mu.RUnlock()

	for _, cli := range clients {
		cli.enqueue(data)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, cli := range h.clients {
		cli.close()
		delete(h.clients, id)
	}
	h.metrics.Subscribers.Set(0)
}
