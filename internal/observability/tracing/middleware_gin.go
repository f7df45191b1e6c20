package tracing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/flowdesk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const apiPrefix = "/api/v1"

// routeParams maps a route's :id or :kind segment onto the span attribute
// that names the flowdesk resource it addresses.
var routeParams = []struct {
	prefix string
	param  string
	key    string
}{
	{apiPrefix + "/editor/sessions/", "id", "editor.session_id"},
	{apiPrefix + "/exports/", "id", "export.job_id"},
	{apiPrefix + "/invoices/", "id", "invoice.id"},
	{apiPrefix + "/clients/", "id", "client.id"},
	{apiPrefix + "/profile/assets/", "kind", "profile.asset_kind"},
}

// GinMiddleware starts a server span per API request and tags it with the
// editor session, export job, invoice or client the route addresses. The
// editor session id is also put on the request context so session logs and
// spans below the handler share it.
func GinMiddleware() gin.HandlerFunc {
	return ginMiddleware(otel.Tracer("flowdesk/http"))
}

func ginMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if untraced(route) {
			c.Next()
			return
		}
		if route == "" {
			route = "unknown"
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		resource := RouteAttributes(route, c.Params)
		for _, attr := range resource {
			if attr.Key == "editor.session_id" {
				ctx = obscontext.WithSessionID(ctx, attr.Value.AsString())
			}
		}
		ctx = withCorrelationBaggage(ctx)

		ctx, span := tracer.Start(ctx, "HTTP "+strings.ToUpper(c.Request.Method)+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(SafeAttributes(append(resource,
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("request_id", obscontext.RequestIDFromContext(ctx)),
			)...)...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status < http.StatusInternalServerError {
			return
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if safeErr := SafeError(lastErr.Err); safeErr != nil {
				span.RecordError(safeErr)
			}
		}
		span.SetStatus(codes.Error, "request error")
	}
}

// RouteAttributes returns the resource identifiers carried by route.
func RouteAttributes(route string, params gin.Params) []attribute.KeyValue {
	for _, rp := range routeParams {
		if !strings.HasPrefix(route, rp.prefix) {
			continue
		}
		value := strings.TrimSpace(params.ByName(rp.param))
		if value == "" {
			return nil
		}
		return []attribute.KeyValue{attribute.String(rp.key, value)}
	}
	return nil
}

// untraced skips probes and scrapes; only the API is worth a span.
func untraced(route string) bool {
	return route == "/health" || route == "/metrics"
}

func withCorrelationBaggage(ctx context.Context) context.Context {
	bag := baggage.FromContext(ctx)
	for key, value := range map[string]string{
		"request_id": obscontext.RequestIDFromContext(ctx),
		"session_id": obscontext.SessionIDFromContext(ctx),
	} {
		if value == "" {
			continue
		}
		member, err := baggage.NewMember(key, value)
		if err != nil {
			continue
		}
		if next, err := bag.SetMember(member); err == nil {
			bag = next
		}
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
