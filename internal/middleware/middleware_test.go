package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"actionlink-platform/internal/config"
	"actionlink-platform/internal/identity"
	auth "actionlink-platform/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func echoIdentity(c *gin.Context) {
	email, ok := identity.EmailFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"email": email, "authenticated": ok})
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newToken(t *testing.T, m *auth.TokenManager) string {
	t.Helper()
	token, err := m.GenerateToken(7, "alice", "alice@example.com", "user")
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := auth.NewManager("secret", "test", 1)
	router := gin.New()
	router.GET("/whoami", RequireAuth(m), echoIdentity)

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer abc").Code)

	other := auth.NewManager("other-secret", "test", 1)
	assert.Equal(t, http.StatusUnauthorized, serve(router, newToken(t, other)).Code)

	w := serve(router, newToken(t, m))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"alice@example.com","authenticated":true}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := auth.NewManager("secret", "test", 1)
	router := gin.New()
	router.GET("/whoami", OptionalAuth(m), echoIdentity)

	w := serve(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"","authenticated":false}`, w.Body.String())

	w = serve(router, newToken(t, m))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"alice@example.com","authenticated":true}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer garbage").Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(&config.Limit{Enabled: true, Requests: 1, Burst: 2, SkipPaths: []string{"/health"}}))
	router.GET("/whoami", echoIdentity)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, "").Code)
	assert.Equal(t, http.StatusOK, serve(router, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "").Code)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(&config.Limit{Enabled: false}))
	router.GET("/whoami", echoIdentity)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "").Code)
	}
}

func TestGinZapRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	router := gin.New()
	router.Use(GinZapRecovery(logger, false), GinZapLogger(logger), Metrics())
	router.GET("/whoami", func(*gin.Context) { panic("boom") })

	w := serve(router, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
