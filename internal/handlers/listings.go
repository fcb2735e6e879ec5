package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/repositories"
	"bitsbarter/internal/telemetry"
)

// ListingHandler manages listing endpoints, including the admin bulk
// delete that cascades a listing's chats and messages.
type ListingHandler struct {
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	events      *telemetry.EventEmitter
}

// NewListingHandler builds a ListingHandler.
func NewListingHandler(listingRepo repositories.ListingRepository, userRepo repositories.UserRepository, events *telemetry.EventEmitter) *ListingHandler {
	return &ListingHandler{listingRepo: listingRepo, userRepo: userRepo, events: events}
}

// CreateListing handles POST /listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		PriceSats int64  `json:"priceSats"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PriceSats < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priceSats must not be negative"})
		return
	}

	listing, err := h.listingRepo.CreateListing(c.Request.Context(), userIDFromContext(c), req.Title, req.PriceSats)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListing handles GET /listings/:listing_id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingRepo.GetListing(c.Request.Context(), c.Param("listing_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// AdminDeleteListing handles DELETE /admin/listings/:listing_id. The
// listing's chats, messages and offers are removed by the cascading
// foreign keys.
func (h *ListingHandler) AdminDeleteListing(c *gin.Context) {
	userID := userIDFromContext(c)
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
		return
	}

	listingID := c.Param("listing_id")
	if err := h.listingRepo.DeleteListing(ctx, listingID); err != nil {
		respondError(c, err)
		return
	}

	h.events.Emit(ctx, "admin", "listing.deleted", requestIDFromContext(c), &userID, gin.H{
		"listing_id": listingID,
	})

	c.Status(http.StatusNoContent)
}
