package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/atendimentos/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/atendimentos/1", "/api/atendimentos/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/atendimentos/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LoginAttempt(true)
	m.LoginAttempt(false)
	m.LoginAttempt(false)
	m.CaseCreated()
	m.SetWebsocketClients(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.casesCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.wsClients))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var m *Metrics

	m.LoginAttempt(true)
	m.CaseCreated()
	m.SetWebsocketClients(1)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
