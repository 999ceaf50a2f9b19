package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"actionlink-platform/internal/actionlink"
	"actionlink-platform/internal/identity"
	"actionlink-platform/internal/middleware"
	"actionlink-platform/internal/model"
	"actionlink-platform/internal/repository"
	"actionlink-platform/internal/shortcode"
	"actionlink-platform/internal/testdb"
	auth "actionlink-platform/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.TokenManager
}

// setupTest 为集成测试初始化一个干净的环境，不依赖 Redis
func setupTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.New(t)
	logger := zaptest.NewLogger(t).Sugar()
	testdb.SeedUser(t, db, identity.SystemEmail)

	links := repository.NewActionLinkRepository(db)
	users := repository.NewUserRepository(db)
	provider := shortcode.NewProvider(db, shortcode.NewGenerator(db, logger), nil, "http://short.test", logger)
	svc := actionlink.NewService(links, repository.NewUsageLogRepository(db), users, provider,
		repository.NewTransactor(db), logger)

	tokens := auth.NewManager("test-secret", "actionlink-test", 1)
	router := gin.New()
	router.Use(middleware.Metrics())
	// 点击计数在后台 goroutine 中执行，可能晚于测试结束，因此短链接处理器不使用 zaptest
	Routes{
		Links:        NewActionLinkHandler(svc, logger),
		ShortLinks:   NewShortLinkHandler(db, nil, zap.NewNop().Sugar()),
		Auth:         NewAuthHandler(users),
		RequireAuth:  middleware.RequireAuth(tokens),
		OptionalAuth: middleware.OptionalAuth(tokens),
	}.Register(router)

	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) tokenFor(t *testing.T, email string) string {
	t.Helper()
	user := testdb.SeedUser(t, s.db, email)
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Email, user.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func verifyBody(limit int) map[string]any {
	return map[string]any{
		"name":         "verify attendance",
		"entity_type":  "Opportunity",
		"action":       "Verify",
		"entity_id":    "opp-7",
		"url":          "https://app.example.com/verify",
		"usages_limit": limit,
	}
}

func TestActionLinkHandler_CreateAndRedirect(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "creator@example.com")

	w := s.do(t, http.MethodPost, "/api/action-links", token, verifyBody(5))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "Active", created["status"])
	assert.Equal(t, "https://app.example.com/verify/"+id, created["url"])

	shortURL := created["short_url"].(string)
	require.True(t, strings.HasPrefix(shortURL, "http://short.test/"), shortURL)
	code := shortURL[strings.LastIndex(shortURL, "/")+1:]

	w = s.do(t, http.MethodGet, "/"+code, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example.com/verify/"+id, w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/api/action-links/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActionLinkHandler_CreateRequiresAuth(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodPost, "/api/action-links", "", verifyBody(5))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/action-links", "not-a-token", verifyBody(5))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActionLinkHandler_ErrorMapping(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "creator@example.com")

	w := s.do(t, http.MethodGet, "/api/action-links/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "LINK_NOT_FOUND", decode(t, w)["code"])

	body := verifyBody(5)
	body["action"] = "Redeem"
	w = s.do(t, http.MethodPost, "/api/action-links", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_LINK", decode(t, w)["code"])

	share := map[string]any{
		"name":        "share",
		"entity_type": "Opportunity",
		"action":      "Share",
		"entity_id":   "opp-7",
		"url":         "https://app.example.com/o/7",
	}
	w = s.do(t, http.MethodPost, "/api/action-links", token, share)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	firstID := decode(t, w)["id"]

	w = s.do(t, http.MethodPost, "/api/action-links", token, share)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, firstID, decode(t, w)["id"])

	share["url"] = "https://app.example.com/o/other"
	w = s.do(t, http.MethodPost, "/api/action-links", token, share)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SHARE_URL_MISMATCH", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/action-links", token, map[string]any{"name": "missing fields"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActionLinkHandler_LogUsage(t *testing.T) {
	s := setupTest(t)
	creator := s.tokenFor(t, "creator@example.com")
	alice := s.tokenFor(t, "alice@example.com")
	bob := s.tokenFor(t, "bob@example.com")

	w := s.do(t, http.MethodPost, "/api/action-links", creator, verifyBody(2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/action-links/"+id+"/usage", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["usages_total"])

	// 同一用户重复使用不计数
	w = s.do(t, http.MethodPost, "/action-links/"+id+"/usage", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["usages_total"])

	// 匿名调用只校验可用性
	w = s.do(t, http.MethodPost, "/action-links/"+id+"/usage", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["usages_total"])

	w = s.do(t, http.MethodPost, "/action-links/"+id+"/usage", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.EqualValues(t, 2, got["usages_total"])
	assert.Equal(t, "LimitReached", got["status"])

	w = s.do(t, http.MethodGet, "/action-links/"+id+"/active", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LINK_LIMIT_REACHED", decode(t, w)["code"])

	carol := s.tokenFor(t, "carol@example.com")
	w = s.do(t, http.MethodPost, "/action-links/"+id+"/usage", carol, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/action-links/"+id+"/usages", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])
}

func TestActionLinkHandler_AssertActive(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "creator@example.com")

	w := s.do(t, http.MethodPost, "/api/action-links", token, verifyBody(3))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/action-links/"+id+"/active", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/action-links/missing/active", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "alice@example.com")

	w := s.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode(t, w)["Email"])
}

func TestShortLinkHandler_HealthAndUnknownCode(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/nope123", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShortLinkHandler_GetStats(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "creator@example.com")

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/action-links", token, verifyBody(5))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	require.NoError(t, s.db.Model(&model.ShortLink{}).Where("1 = 1").Update("click_count", 3).Error)

	w := s.do(t, http.MethodGet, "/api/short-links/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	assert.EqualValues(t, 2, got["total_links"])
	assert.EqualValues(t, 6, got["total_clicks"])
	assert.EqualValues(t, 2, got["active_links"])
}

func TestShortLinkHandler_GetStatsQueryFailure(t *testing.T) {
	s := setupTest(t)
	token := s.tokenFor(t, "creator@example.com")
	require.NoError(t, s.db.Migrator().DropTable(&model.ShortLink{}))

	w := s.do(t, http.MethodGet, "/api/short-links/stats", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "获取统计失败", decode(t, w)["error"])
}
