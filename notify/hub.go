package notify

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live websocket connection for a member.
type Client struct {
	MemberID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub routes in-app messages to connected members. A member has at most one
// registered connection; a newer one replaces the old.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message
	mu         sync.Mutex
}

type Message struct {
	MemberID string `json:"member_id"`
	Content  string `json:"content"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			// A reconnect displaces the old connection; closing its Send
			// releases that connection's write pump.
			if old, ok := h.clients[client.MemberID]; ok && old != client {
				close(old.Send)
			}
			h.clients[client.MemberID] = client
			h.mu.Unlock()
		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.MemberID]; ok && current == client {
				delete(h.clients, client.MemberID)
				close(client.Send)
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			if client, ok := h.clients[message.MemberID]; ok {
				select {
				case client.Send <- []byte(message.Content):
				default:
					close(client.Send)
					delete(h.clients, message.MemberID)
				}
			}
			h.mu.Unlock()
		}
	}
}
