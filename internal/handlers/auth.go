package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/auth"
	"bitsbarter/internal/middleware"
	"bitsbarter/internal/repositories"
)

// AuthHandler exchanges a verified login for a session cookie. The OAuth
// provider round trip happens upstream; by the time this runs the email is
// trusted. The account is created on first login.
type AuthHandler struct {
	userRepo repositories.UserRepository
	sessions *auth.Manager
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, sessions *auth.Manager) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, sessions: sessions}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.EnsureUser(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, 60*60*24*30, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "userId": user.ID})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
