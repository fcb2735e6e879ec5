package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/models"
	"bitsbarter/internal/observability"
	"bitsbarter/internal/repositories"
	"bitsbarter/internal/telemetry"
	"bitsbarter/internal/ws"
)

// OfferHandler manages the offer negotiation endpoints.
type OfferHandler struct {
	offerRepo   repositories.OfferRepository
	chatRepo    repositories.ChatRepository
	listingRepo repositories.ListingRepository
	hub         *ws.Hub
	events      *telemetry.EventEmitter
}

// NewOfferHandler builds an OfferHandler.
func NewOfferHandler(offerRepo repositories.OfferRepository, chatRepo repositories.ChatRepository, listingRepo repositories.ListingRepository, hub *ws.Hub, events *telemetry.EventEmitter) *OfferHandler {
	return &OfferHandler{
		offerRepo:   offerRepo,
		chatRepo:    chatRepo,
		listingRepo: listingRepo,
		hub:         hub,
		events:      events,
	}
}

// SendOffer handles POST /offers/send: propose an amount in an existing
// chat. The amount must be positive and, when the listing carries a fixed
// nonzero price, must not exceed it.
func (h *OfferHandler) SendOffer(c *gin.Context) {
	var req struct {
		ChatID    string `json:"chatId" binding:"required"`
		ListingID string `json:"listingId" binding:"required"`
		AmountSat int64  `json:"amountSat"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFromContext(c)
	ctx := c.Request.Context()

	chat, err := h.chatRepo.GetChat(ctx, req.ChatID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	listing, err := h.listingRepo.GetListing(ctx, req.ListingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if listing.ID != chat.ListingID {
		respondError(c, apperrors.New(apperrors.Validation, "listing does not match chat"))
		return
	}
	if listing.Status != models.ListingActive {
		respondError(c, apperrors.New(apperrors.Validation, "listing is not active"))
		return
	}
	if req.AmountSat <= 0 {
		respondError(c, apperrors.New(apperrors.Validation, "amount must be positive"))
		return
	}
	if listing.PriceSats > 0 && req.AmountSat > listing.PriceSats {
		respondError(c, apperrors.New(apperrors.Validation, "amount exceeds listing price"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			respondError(c, apperrors.New(apperrors.Validation, "expiresAt must be RFC3339"))
			return
		}
		expiresAt = &t
	}

	offer, err := h.offerRepo.ProposeOffer(ctx, chat, userID, req.AmountSat, expiresAt)
	if err != nil {
		respondError(c, err)
		return
	}

	observability.IncOffer("proposed")
	h.hub.BroadcastOffer(chat.ID, "offer_proposed", offer)
	h.events.Emit(ctx, "offer", "offer.proposed", requestIDFromContext(c), &userID, gin.H{
		"offer_id":    offer.ID,
		"chat_id":     offer.ChatID,
		"listing_id":  offer.ListingID,
		"amount_sats": offer.AmountSats,
	})

	c.JSON(http.StatusCreated, gin.H{"ok": true, "offer": offer})
}

// ActOnOffer handles POST /offers/action: accept, decline or revoke a
// pending offer through one dispatch point so the status, expiry and actor
// checks run identically for every transition.
func (h *OfferHandler) ActOnOffer(c *gin.Context) {
	var req struct {
		OfferID string `json:"offerId" binding:"required"`
		Action  string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidAction(req.Action) {
		respondError(c, apperrors.New(apperrors.Validation, "invalid action"))
		return
	}

	userID := userIDFromContext(c)
	ctx := c.Request.Context()

	offer, err := h.offerRepo.ActOnOffer(ctx, req.OfferID, userID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	observability.IncOffer(req.Action)
	h.hub.BroadcastOffer(offer.ChatID, "offer_"+offer.Status, offer)
	h.events.Emit(ctx, "offer", "offer."+offer.Status, requestIDFromContext(c), &userID, gin.H{
		"offer_id": offer.ID,
		"chat_id":  offer.ChatID,
		"status":   offer.Status,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "offer": offer})
}

// CheckOffer handles GET /offers/check: whether the user may propose a new
// offer, plus the most recent offer in the chat.
func (h *OfferHandler) CheckOffer(c *gin.Context) {
	chatID := c.Query("chatId")
	listingID := c.Query("listingId")
	if chatID == "" || listingID == "" {
		respondError(c, apperrors.New(apperrors.Validation, "listingId and chatId required"))
		return
	}

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

	check, err := h.offerRepo.CheckOffer(ctx, chatID, listingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}
