package handlers

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bitsbarter/internal/models"
	"bitsbarter/internal/observability"
	"bitsbarter/internal/repositories"
	"bitsbarter/internal/telemetry"
	"bitsbarter/internal/ws"
)

// ChatHandler manages conversation and message endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	listingRepo repositories.ListingRepository
	hub         *ws.Hub
	events      *telemetry.EventEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, listingRepo repositories.ListingRepository, hub *ws.Hub, events *telemetry.EventEmitter) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		hub:         hub,
		events:      events,
	}
}

// SendMessage handles POST /chat/send. The contract predates session auth:
// the caller identifies by userEmail, and when chatId is absent the chat is
// resolved or created from listingId + otherUserId.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ChatID      string `json:"chatId"`
		Text        string `json:"text"`
		ListingID   string `json:"listingId"`
		OtherUserID string `json:"otherUserId"`
		UserEmail   string `json:"userEmail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.UserEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "userEmail required"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}
	if utf8.RuneCountInString(req.Text) > models.MaxMessageLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be at most 1000 characters"})
		return
	}
	if req.ChatID == "" && (req.ListingID == "" || req.OtherUserID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listingId and otherUserId required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.userRepo.GetByEmail(ctx, req.UserEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	var chat models.Chat
	if req.ChatID != "" {
		chat, err = h.chatRepo.GetChat(ctx, req.ChatID)
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		listing, err := h.listingRepo.GetListing(ctx, req.ListingID)
		if err != nil {
			respondError(c, err)
			return
		}
		buyerID, sellerID := user.ID, req.OtherUserID
		if listing.SellerID == user.ID {
			buyerID, sellerID = req.OtherUserID, user.ID
		}
		chat, err = h.chatRepo.ResolveChat(ctx, listing.ID, buyerID, sellerID)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	if !chat.HasParticipant(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(ctx, chat.ID, user.ID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	// The message is already durable; a failed activity touch must not
	// make the caller resend it.
	if err := h.userRepo.TouchLastActive(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("touch last active failed")
	}

	observability.IncMessageSent()
	h.hub.BroadcastMessage(chat.ID, msg)
	h.events.Emit(ctx, "chat_message", "chat.message.sent", requestIDFromContext(c), &user.ID, gin.H{
		"chat_id":    chat.ID,
		"message_id": msg.ID,
		"listing_id": chat.ListingID,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"messageId": msg.ID,
		"chatId":    chat.ID,
		"timestamp": msg.CreatedAt,
	})
}

// GetMessages handles GET /chat/:chat_id. Listing page 1 marks the
// counterpart's unread messages as read; older pages never touch read state.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID := c.Param("chat_id")

	email := c.Query("userEmail")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "userEmail required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		respondError(c, err)
		return
	}

	chat, err := h.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !chat.HasParticipant(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.messageRepo.ListMessages(ctx, chatID, user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]models.MessageView, 0, len(result.Messages))
	for _, m := range result.Messages {
		views = append(views, m.ViewFor(user.ID))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": views,
		"userId":   user.ID,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.Limit,
			"total":      result.Total,
			"totalPages": result.TotalPages,
			"hasMore":    result.HasMore,
		},
	})
}

// ListChats returns the chats visible to the authenticated user: hidden
// conversations and blocked counterparts are filtered out.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := userIDFromContext(c)

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// HideChat hides the chat for the requester only.
func (h *ChatHandler) HideChat(c *gin.Context) {
	h.setHidden(c, true)
}

// UnhideChat makes a hidden chat visible again for the requester.
func (h *ChatHandler) UnhideChat(c *gin.Context) {
	h.setHidden(c, false)
}

func (h *ChatHandler) setHidden(c *gin.Context, hidden bool) {
	chatID := c.Param("chat_id")
	userID := userIDFromContext(c)

	ctx := c.Request.Context()
	chat, err := h.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	if hidden {
		err = h.chatRepo.HideChatForUser(ctx, chatID, userID)
	} else {
		err = h.chatRepo.UnhideChatForUser(ctx, chatID, userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
