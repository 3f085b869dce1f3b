package ws

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/chat"
	"github.com/themobileprof/paintrack-be/internal/fetch"
	"github.com/themobileprof/paintrack-be/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	engine    *chat.Engine
	store     store.Store
	jwtSecret string
}

// NewChatHandler creates a new chat handler
func NewChatHandler(engine *chat.Engine, st store.Store, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		engine:    engine,
		store:     st,
		jwtSecret: jwtSecret,
	}
}

// IncomingMessage represents a frame from the client. Type defaults to
// "message"; "confirm_locations" carries the body-map selection,
// "watch_range" subscribes the connection to live entry updates,
// "suggest" asks for typing suggestions on a draft.
type IncomingMessage struct {
	Type      string     `json:"type,omitempty"`
	Content   string     `json:"content,omitempty"`
	Locations []string   `json:"locations,omitempty"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
}

// OutgoingMessage represents a frame to the client
type OutgoingMessage struct {
	Type    string      `json:"type"` // "message", "suggestions", "navigate", "saved", "entries", "error", "done"
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// wsResponder adapts a WebSocket connection to the chat engine's
// responder interface. Writes are serialized; gorilla connections do
// not allow concurrent writers.
type wsResponder struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (r *wsResponder) write(msg OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.WriteJSON(msg)
}

func (r *wsResponder) SendMessage(content string) error {
	return r.write(OutgoingMessage{Type: "message", Content: content})
}

func (r *wsResponder) SendSuggestions(suggestions []string) error {
	return r.write(OutgoingMessage{Type: "suggestions", Data: suggestions})
}

func (r *wsResponder) SendSaved(entryID string) error {
	return r.write(OutgoingMessage{Type: "saved", Data: map[string]string{"entry_id": entryID}})
}

func (r *wsResponder) SendNavigate(destination string) error {
	return r.write(OutgoingMessage{Type: "navigate", Content: destination})
}

func (r *wsResponder) SendError(message string) error {
	return r.write(OutgoingMessage{Type: "error", Content: message})
}

func (r *wsResponder) SendDone() error {
	return r.write(OutgoingMessage{Type: "done"})
}

// HandleChat handles WebSocket chat connections
func (h *ChatHandler) HandleChat(c *gin.Context) {
	// Validate JWT from query parameter or header
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			token = strings.TrimPrefix(token, "Bearer ")
		}
	}

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	// Parse JWT
	claims := &middleware.JWTClaims{}
	jwtToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.jwtSecret), nil
	})

	if err != nil || !jwtToken.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	userID := claims.UserID
	responder := &wsResponder{conn: conn}

	log.Printf("WebSocket connected: user=%s", userID)

	// One fetcher per connection, created on the first watch_range frame.
	// Change events and later watch_range frames supersede in-flight
	// loads; only the latest window's entries ever reach the client.
	fetcher := fetch.New(h.store, h.store.Changes(), userID,
		fetch.WithDebounce(150*time.Millisecond))
	defer fetcher.Close()
	go h.forwardEntries(fetcher, responder)

	// Listen for frames
	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		ctx := c.Request.Context()
		switch msg.Type {
		case "confirm_locations":
			err = h.engine.ConfirmLocations(ctx, userID, msg.Locations, responder)
		case "watch_range":
			if msg.Start == nil || msg.End == nil || !msg.Start.Before(*msg.End) {
				responder.SendError("watch_range needs start before end")
				continue
			}
			fetcher.SetRange(*msg.Start, *msg.End)
			err = nil
		case "suggest":
			err = responder.write(OutgoingMessage{
				Type: "suggestions",
				Data: h.engine.Suggestions(ctx, userID, msg.Content),
			})
		default:
			err = h.engine.ProcessMessage(ctx, chat.ProcessRequest{
				UserID:    userID,
				Message:   msg.Content,
				Responder: responder,
			})
		}
		if err != nil {
			log.Printf("Error processing frame: %v", err)
			responder.SendError("Something went wrong. Please try again.")
		}
	}
}

// forwardEntries relays fetch results to the client until the fetcher
// closes with the connection.
func (h *ChatHandler) forwardEntries(fetcher *fetch.Fetcher, responder *wsResponder) {
	for {
		select {
		case <-fetcher.Done():
			return
		case result := <-fetcher.Results():
			if result.Err != nil {
				responder.SendError("Failed to load entries")
				continue
			}
			if err := responder.write(OutgoingMessage{
				Type: "entries",
				Data: gin.H{
					"start":   result.Start,
					"end":     result.End,
					"entries": result.Entries,
				},
			}); err != nil {
				return
			}
		}
	}
}
