package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trustpeer/internal/models"
	"trustpeer/internal/services"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 16
)

// Event is the envelope pushed to websocket clients on every committed
// engine mutation.
type Event struct {
	Source string      `json:"source"`
	State  interface{} `json:"state"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub fans engine state-change notifications out to websocket clients,
// preserving commit order per engine.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient

	unsubscribe []func()
	log         *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*wsClient),
		log:     logrus.WithField("component", "ws_hub"),
	}
}

// Watch subscribes the hub to all three engines. Call Stop to detach.
func (h *Hub) Watch(wallet *services.WalletService, escrow *services.EscrowService, ratings *services.RatingService) {
	h.unsubscribe = append(h.unsubscribe,
		wallet.Subscribe(func(state models.MultiWalletState) {
			h.broadcast(Event{Source: "wallet", State: state})
		}),
		escrow.Subscribe(func(state models.EscrowState) {
			h.broadcast(Event{Source: "escrow", State: state})
		}),
		ratings.Subscribe(func(state models.RatingState) {
			h.broadcast(Event{Source: "rating", State: state})
		}),
	)
}

// Stop detaches the hub from the engines and closes every client.
func (h *Hub) Stop() {
	for _, fn := range h.unsubscribe {
		fn()
	}
	h.unsubscribe = nil

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

// Serve upgrades the request and streams engine events to the client
// GET /ws
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, wsSendBuffer),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.log.WithField("client", client.id).Info("websocket client connected")

	go h.writePump(client)
	h.readPump(client)
}

// broadcast queues the event for every client. Slow clients are dropped
// rather than blocking the engines.
func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		select {
		case client.send <- event:
		default:
			h.log.WithField("client", id).Warn("client too slow, dropping")
			close(client.send)
			delete(h.clients, id)
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	defer client.conn.Close()
	for event := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := client.conn.WriteJSON(event); err != nil {
			h.drop(client)
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound frames; the stream is one-way. Returns when the
// client disconnects.
func (h *Hub) readPump(client *wsClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			h.drop(client)
			return
		}
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.id]; ok {
		close(client.send)
		delete(h.clients, client.id)
		h.log.WithField("client", client.id).Info("websocket client disconnected")
	}
}
