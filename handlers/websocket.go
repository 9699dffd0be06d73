package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub fans tally updates out to WebSocket subscribers, grouped by poll ID.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *tallyMessage

	mu               sync.RWMutex
	totalConnections int
	maxConnections   int

	// last broadcast per poll, replayed to new subscribers so they start
	// from the current tally instead of waiting for the next vote
	lastMessage map[string][]byte
	lastMu      sync.RWMutex
}

// Client is one WebSocket subscriber watching a single poll.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	pollID       string
	lastActivity time.Time
}

type tallyMessage struct {
	pollID string
	data   []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are handled by the CORS layer.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var (
	GlobalHub *Hub
	hubOnce   sync.Once
)

func init() {
	hubOnce.Do(func() {
		GlobalHub = &Hub{
			clients:        make(map[string]map[*Client]bool),
			register:       make(chan *Client),
			unregister:     make(chan *Client),
			broadcast:      make(chan *tallyMessage, 64),
			maxConnections: 10000,
			lastMessage:    make(map[string][]byte),
		}
		go GlobalHub.run()
	})
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.pollID]; !ok {
				h.clients[client.pollID] = make(map[*Client]bool)
			}
			h.clients[client.pollID][client] = true
			h.totalConnections++
			h.mu.Unlock()

			h.replayLast(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.pollID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					h.totalConnections--
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.pollID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.lastMu.Lock()
			h.lastMessage[message.pollID] = message.data
			h.lastMu.Unlock()

			h.mu.Lock()
			for client := range h.clients[message.pollID] {
				select {
				case client.send <- message.data:
				default:
					// slow consumer, drop the connection
					close(client.send)
					delete(h.clients[message.pollID], client)
					h.totalConnections--
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) replayLast(client *Client) {
	h.lastMu.RLock()
	data, ok := h.lastMessage[client.pollID]
	h.lastMu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
	}
}

// HandleWebSocket upgrades the connection and subscribes the client to
// tally updates for the poll in the path.
func HandleWebSocket(c *gin.Context) {
	pollID := c.Param("id")
	if pollID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing poll ID"})
		return
	}

	GlobalHub.mu.RLock()
	full := GlobalHub.totalConnections >= GlobalHub.maxConnections
	GlobalHub.mu.RUnlock()
	if full {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Connection limit reached, please retry later"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:          GlobalHub,
		conn:         conn,
		send:         make(chan []byte, 256),
		pollID:       pollID,
		lastActivity: time.Now(),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastTally pushes a tally event to every subscriber of its poll. Safe
// to call from any goroutine; never blocks the caller.
func BroadcastTally(event service.TallyEvent) {
	payload := map[string]interface{}{
		"type": "VOTE_UPDATE",
		"data": map[string]interface{}{
			"poll_id":   event.PollID,
			"question":  event.Question,
			"counts":    event.Counts,
			"timestamp": time.Now().UnixNano(),
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal tally broadcast: %v", err)
		return
	}

	select {
	case GlobalHub.broadcast <- &tallyMessage{pollID: event.PollID, data: data}:
	default:
		log.Printf("broadcast channel full, dropping tally update for poll %s", event.PollID)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.lastActivity = time.Now()
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}
		c.lastActivity = time.Now()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
