package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const broadcastBuffer = 256

// Hub fans stock update events out to every connected browser.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Publish encodes the event and queues it for broadcast. It never blocks the
// caller; when the queue is full the event is dropped.
func (h *Hub) Publish(event interface{}) {
	message, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("ws event not serializable", zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- message:
	default:
		zap.L().Warn("ws broadcast queue full, event dropped")
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			n := len(h.Clients)
			h.mutex.Unlock()
			zap.L().Debug("ws client connected", zap.Int("clients", n))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

// Serve is the per-connection handler mounted on the websocket route. It
// holds the connection until the client goes away.
func (h *Hub) Serve(c *websocket.Conn) {
	select {
	case h.Register <- c:
	case <-h.done:
		return
	}
	defer func() {
		select {
		case h.Unregister <- c:
		case <-h.done:
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
