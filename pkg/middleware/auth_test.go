package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"astro-soulmate/backend/pkg/errors"
	"astro-soulmate/backend/pkg/jwt"
	"astro-soulmate/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := jwt.NewService("test-secret", time.Hour)
	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.GET("/protected", JWTAuthMiddleware(svc, logger.GetGlobal()), func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r, svc
}

func TestJWTAuthMiddlewareValidToken(t *testing.T) {
	r, svc := newAuthTestRouter(t)

	token, err := svc.GenerateToken(42, "me@example.com")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestJWTAuthMiddlewareMissingHeader(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")
}

func TestJWTAuthMiddlewareBadToken(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}
