package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/exams/:slug", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/exams/:slug", "418"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exams/maths-mock", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/exams/:slug", "418"))
	assert.Equal(t, before+1, after)

	healthBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/health", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, healthBefore, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/health", "200")))
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	SessionsStarted.WithLabelValues("exam").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "qwiktest_sessions_started_total"))
}
