package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/tabs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/tabs/:id", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tabs/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tabs/def", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/tabs/:id", "200"))
	assert.Equal(t, 2.0, after-before)

	before = testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))-before)
}

func TestRecorders(t *testing.T) {
	SetTabs(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(tabsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(tabsDirty))

	before := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("write", "error"))
	RecordStoreOperation("write", time.Millisecond, false)
	assert.Equal(t, 1.0, testutil.ToFloat64(storeOperationsTotal.WithLabelValues("write", "error"))-before)

	before = testutil.ToFloat64(assistantRequestsTotal.WithLabelValues("stream", "success"))
	RecordAssistantRequest(true, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(assistantRequestsTotal.WithLabelValues("stream", "success"))-before)
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetTreeSize(7)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "codehub_tree_size 7"), "tree gauge missing")
}
