package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"bitsbarter/internal/auth"
	"bitsbarter/internal/observability"
	"bitsbarter/internal/repositories"
)

// ChatWebSocketHandler handles chat websocket connections. Only a chat's
// two participants may subscribe to its events.
type ChatWebSocketHandler struct {
	hub      *Hub
	chatRepo repositories.ChatRepository
	sessions *auth.Manager
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, sessions *auth.Manager) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chatRepo: chatRepo, sessions: sessions}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the chat room.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID, err := h.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// Keep the connection alive and clean up on close.
	go func() {
		defer func() {
			h.hub.RemoveClient(chatID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("chat_id", chatID).Str("conn_id", info.ConnID).Msg("websocket closed")
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}

func (h *ChatWebSocketHandler) authenticate(c *gin.Context) (string, error) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 {
				token = parts[1]
			}
		}
	}
	if token == "" {
		if cookie, err := c.Cookie("session"); err == nil {
			token = cookie
		}
	}
	return h.sessions.VerifyToken(token)
}
