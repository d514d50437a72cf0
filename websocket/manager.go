package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// PresenceFunc is called when a user's first connection opens or last
// connection closes. The wiring in main flips the user's online flag.
type PresenceFunc func(userID string, online bool)

type Manager struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	Presence PresenceFunc
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			if m.byUser[client.userID] == nil {
				m.byUser[client.userID] = make(map[*Client]bool)
			}
			first := len(m.byUser[client.userID]) == 0
			m.byUser[client.userID][client] = true
			m.mu.Unlock()
			if first && m.Presence != nil {
				m.Presence(client.userID, true)
			}
			log.Printf("WebSocket client registered. Total clients: %d", m.GetConnectedClients())

		case client := <-m.unregister:
			m.mu.Lock()
			last := false
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				if conns := m.byUser[client.userID]; conns != nil {
					delete(conns, client)
					if len(conns) == 0 {
						delete(m.byUser, client.userID)
						last = true
					}
				}
			}
			m.mu.Unlock()
			if last && m.Presence != nil {
				m.Presence(client.userID, false)
			}
			log.Printf("WebSocket client unregistered. Total clients: %d", m.GetConnectedClients())
		}
	}
}

func (m *Manager) envelope(event string, payload interface{}) []byte {
	data := map[string]interface{}{
		"type":    event,
		"payload": payload,
	}
	msg, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return nil
	}
	return msg
}

// SendToUser delivers an event to every open connection of one user.
func (m *Manager) SendToUser(userID, event string, payload interface{}) {
	msg := m.envelope(event, payload)
	if msg == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for client := range m.byUser[userID] {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// Broadcast delivers an event to every connected client. Fan-out is
// direct rather than through the hub loop, so the presence callback
// running on that loop can broadcast safely. A client with a full send
// buffer drops the frame; disconnect handling belongs to its pumps.
func (m *Manager) Broadcast(event string, payload interface{}) {
	msg := m.envelope(event, payload)
	if msg == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for client := range m.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// IsOnline reports whether a user has at least one open connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser[userID]) > 0
}

func (m *Manager) GetConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// TokenValidator turns a bearer token into a user id. The HTTP layer wires
// this to the JWT middleware so websocket upgrades share its validation.
type TokenValidator func(token string) (string, error)

func WebSocketHandler(manager *Manager, validate TokenValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			log.Printf("WebSocket connection rejected: no token provided")
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}

		userID, err := validate(token)
		if err != nil {
			log.Printf("WebSocket connection rejected: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, 256),
			manager: manager,
		}

		manager.register <- client

		welcome := map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"userId": userID,
				"time":   time.Now().Unix(),
			},
		}
		if msg, err := json.Marshal(welcome); err == nil {
			client.send <- msg
		}

		go client.writePump()
		go client.readPump()
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		// Clients only listen; inbound frames keep the connection alive.
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
