package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mindmesh-labs/mindmesh/coordinator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// TurnFeed broadcasts completed dialogue turns to connected websocket
// clients.
type TurnFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewTurnFeed(coord *coordinator.Coordinator) *TurnFeed {
	f := &TurnFeed{clients: make(map[*websocket.Conn]bool)}
	coord.OnTurn(f.broadcast)
	return f
}

func (f *TurnFeed) broadcast(dialogueID string, t coordinator.Turn) {
	payload := gin.H{
		"dialogueId":  dialogueID,
		"participant": t.ParticipantID,
		"round":       t.Round,
		"message":     t.Message,
		"timestamp":   t.Timestamp,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		if err := conn.WriteJSON(payload); err != nil {
			conn.Close()
			delete(f.clients, conn)
		}
	}
}

// Handle upgrades the connection and registers the client.
func (f *TurnFeed) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()

	// Drain reads to detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.mu.Lock()
				delete(f.clients, conn)
				f.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
