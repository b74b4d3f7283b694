package ws

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Event is the server→client push envelope.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

type outbound struct {
	userID string
	data   []byte
}

// Hub tracks connected clients per user and fans events out to all of a
// user's live connections. It satisfies service.Broadcaster.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	send       chan outbound

	log *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan outbound, 256),
		log:        log,
	}
}

// Run owns the client maps; all membership changes and sends go through
// its channel loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			conns := h.clients[client.userID]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.userID] = conns
			}
			conns[client] = true

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.out)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}

		case msg := <-h.send:
			for client := range h.clients[msg.userID] {
				select {
				case client.out <- msg.data:
				default:
					// slow client, drop the connection
					delete(h.clients[msg.userID], client)
					close(client.out)
				}
			}
		}
	}
}

// EmitToUser queues an event to every live connection of the user.
// Best-effort: an offline user simply misses the push and catches up by
// re-reading session state.
func (h *Hub) EmitToUser(userID string, event string, payload interface{}) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("failed to encode event")
		return
	}
	h.send <- outbound{userID: userID, data: data}
}
