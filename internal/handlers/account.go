package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/repositories"
)

// AccountHandler manages the authenticated user's own account and blocks.
type AccountHandler struct {
	userRepo  repositories.UserRepository
	blockRepo repositories.BlockRepository
}

// NewAccountHandler builds an AccountHandler.
func NewAccountHandler(userRepo repositories.UserRepository, blockRepo repositories.BlockRepository) *AccountHandler {
	return &AccountHandler{userRepo: userRepo, blockRepo: blockRepo}
}

// Me handles GET /me.
func (h *AccountHandler) Me(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.UsernameOrEmpty(),
		"verified": user.Verified,
		"is_admin": user.IsAdmin,
	})
}

// SetUsername handles PUT /me/username. The username is assigned exactly
// once; a second attempt fails with Conflict.
func (h *AccountHandler) SetUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 30 {
		respondError(c, apperrors.New(apperrors.Validation, "username must be 3-30 characters"))
		return
	}

	if err := h.userRepo.SetUsername(c.Request.Context(), userIDFromContext(c), req.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Block handles POST /blocks/:user_id. Blocking filters the blocker's chat
// list only; the other participant is unaffected.
func (h *AccountHandler) Block(c *gin.Context) {
	userID := userIDFromContext(c)
	target := c.Param("user_id")
	if target == userID {
		respondError(c, apperrors.New(apperrors.Validation, "cannot block yourself"))
		return
	}

	if err := h.blockRepo.Block(c.Request.Context(), userID, target); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unblock handles DELETE /blocks/:user_id.
func (h *AccountHandler) Unblock(c *gin.Context) {
	if err := h.blockRepo.Unblock(c.Request.Context(), userIDFromContext(c), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
