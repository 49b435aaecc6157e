package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/config"
	"qwiktest/internal/model"
	"qwiktest/internal/pkg/database"
)

func setupConfig(t *testing.T) {
	t.Helper()
	prev := config.GlobalConfig
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = 3600
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	config.GlobalConfig = cfg
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetUint("userId"), "role": c.GetString("role")})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	setupConfig(t)
	db := database.SetupTest(t)

	active := model.User{UserName: "alice", Email: "alice@example.com", Role: model.RoleStudent, IsActive: true}
	disabled := model.User{UserName: "bob", Email: "bob@example.com", Role: model.RoleStudent}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&disabled).Error)

	r := newRouter(JWT())

	token, _, err := GenerateToken(&active)
	require.NoError(t, err)
	w := do(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"student"`)

	w = do(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, map[string]string{"Authorization": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err = GenerateToken(&disabled)
	require.NoError(t, err)
	w = do(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, _, err = GenerateToken(&active)
	require.NoError(t, err)
	require.NoError(t, db.Delete(&active).Error)
	w = do(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseToken_RejectsOtherSecret(t *testing.T) {
	setupConfig(t)
	token, _, err := GenerateToken(&model.User{ID: 7, Role: model.RoleAdmin})
	require.NoError(t, err)

	claims, err := parseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	_, err = parseToken(token, "other")
	assert.Error(t, err)
}

func TestRoleAuth(t *testing.T) {
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set("role", role) }
	}

	r := newRouter(withRole(model.RoleInstructor), RoleAuth(model.RoleAdmin, model.RoleInstructor))
	assert.Equal(t, http.StatusOK, do(r, nil).Code)

	r = newRouter(withRole(model.RoleStudent), RoleAuth(model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, do(r, nil).Code)

	r = newRouter(RoleAuth(model.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, do(r, nil).Code)
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(NewIPRateLimiter(0.001, 2)))

	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	w := do(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestCors(t *testing.T) {
	setupConfig(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Cors())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecovery(t *testing.T) {
	r := newRouter(Recovery(), func(c *gin.Context) { panic("boom") })
	w := do(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
