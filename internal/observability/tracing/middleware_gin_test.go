package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/flowdesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(ginMiddleware(provider.Tracer("test")))
	return r, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestGinMiddleware_TagsEditorSession(t *testing.T) {
	r, recorder := newTracedEngine(t)

	var sessionID string
	r.POST("/api/v1/editor/sessions/:id/commit", func(c *gin.Context) {
		sessionID = obscontext.SessionIDFromContext(c.Request.Context())
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/editor/sessions/01JSESSION/commit", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "01JSESSION", sessionID)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "HTTP POST /api/v1/editor/sessions/:id/commit", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())

	v, ok := spanAttr(span, "editor.session_id")
	require.True(t, ok)
	assert.Equal(t, "01JSESSION", v.AsString())
	v, ok = spanAttr(span, "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusCreated), v.AsInt64())
}

func TestGinMiddleware_MarksServerErrors(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.GET("/api/v1/exports/:id", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/exports/01JJOB", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	v, ok := spanAttr(spans[0], "export.job_id")
	require.True(t, ok)
	assert.Equal(t, "01JJOB", v.AsString())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
	assert.Len(t, spans[0].Events(), 1, "error recorded on the span")
}

func TestGinMiddleware_SkipsHealthAndMetrics(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, recorder.Ended())
}

func TestRouteAttributes(t *testing.T) {
	cases := []struct {
		route  string
		params gin.Params
		want   []attribute.KeyValue
	}{
		{"/api/v1/invoices/:id/export", gin.Params{{Key: "id", Value: "42"}}, []attribute.KeyValue{attribute.String("invoice.id", "42")}},
		{"/api/v1/clients/:id", gin.Params{{Key: "id", Value: "7"}}, []attribute.KeyValue{attribute.String("client.id", "7")}},
		{"/api/v1/profile/assets/:kind", gin.Params{{Key: "kind", Value: "logo"}}, []attribute.KeyValue{attribute.String("profile.asset_kind", "logo")}},
		{"/api/v1/exports/active", nil, nil},
		{"/api/v1/analytics/revenue", nil, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RouteAttributes(tc.route, tc.params), tc.route)
	}
}
