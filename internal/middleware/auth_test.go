package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitsbarter/internal/auth"
)

func setupAuthRouter(t *testing.T, manager *auth.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AuthMiddleware(manager))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userID")})
	})
	return r
}

func TestAuthMiddlewareCookie(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)
	router := setupAuthRouter(t, manager)

	token, err := manager.IssueToken("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)
	router := setupAuthRouter(t, manager)

	token, err := manager.IssueToken("u2")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u2"`)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	router := setupAuthRouter(t, auth.NewManager("test-secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing session")
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	router := setupAuthRouter(t, auth.NewManager("test-secret", time.Hour))

	other := auth.NewManager("other-secret", time.Hour)
	token, err := other.IssueToken("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid session")
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	manager := auth.NewManager("test-secret", -time.Minute)
	router := setupAuthRouter(t, manager)

	token, err := manager.IssueToken("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	router := setupAuthRouter(t, auth.NewManager("test-secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
