package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/logger"
	"github.com/zfogg/menuboard/internal/metrics"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func serve(r *gin.Engine, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = RequestID(c) })

	w := serve(r, "/", nil)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	w = serve(r, "/", http.Header{"X-Request-Id": {"abc-123"}})
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestOwnerMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(OwnerMiddleware("owner"))
	var owner bool
	r.GET("/", func(c *gin.Context) { owner = IsOwner(c) })

	cases := map[string]bool{
		"/?owner=true":  true,
		"/":             false,
		"/?owner=false": false,
		"/?owner=1":     false,
		"/?owner=TRUE":  false,
	}
	for target, want := range cases {
		serve(r, target, nil)
		assert.Equal(t, want, owner, target)
	}
}

func TestOwnerMiddleware_CustomParam(t *testing.T) {
	r := gin.New()
	r.Use(OwnerMiddleware("admin"))
	var owner bool
	r.GET("/", func(c *gin.Context) { owner = IsOwner(c) })

	serve(r, "/?admin=true", nil)
	assert.True(t, owner)
	serve(r, "/?owner=true", nil)
	assert.False(t, owner)
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := metrics.Initialize()
	m.HTTPRequestsTotal.Reset()

	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/edit/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, "/edit/1", nil)
	serve(r, "/edit/2", nil)
	serve(r, "/boom", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/edit/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "500")))
}

func TestGinLoggerMiddleware_DoesNotPanic(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), OwnerMiddleware("owner"), GinLoggerMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusTeapot, "short and stout") })

	w := serve(r, "/?owner=true", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(TracingMiddleware("menuboard-test"))
	r.GET("/edit/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

	w := serve(r, "/edit/9", nil)
	assert.Equal(t, "9", w.Body.String())
}
