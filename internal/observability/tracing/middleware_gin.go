package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/dairypay/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const unmatchedRoute = "unmatched"

// GinMiddleware opens one server span per request. Spans are named after the
// matched route as an operation, e.g. "POST payroll.runs.mark-paid".
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("dairypay/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)
		ctx, span := tracer.Start(ctx, method+" "+operationName(c.FullPath()), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			ctx = withRequestBaggage(ctx, requestID)
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		attrs = append(attrs, payrollAttributes(c)...)
		span.SetAttributes(SafeAttributes(attrs...)...)

		if c.Writer.Status() >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

// operationName turns a gin route into a dotted operation: the /api prefix
// and path parameters are dropped.
func operationName(route string) string {
	if route == "" {
		return unmatchedRoute
	}
	parts := make([]string, 0, 4)
	for _, segment := range strings.Split(strings.Trim(route, "/"), "/") {
		if segment == "" || segment == "api" || strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			continue
		}
		parts = append(parts, segment)
	}
	if len(parts) == 0 {
		return "root"
	}
	return strings.Join(parts, ".")
}

// payrollAttributes reads what the handlers resolved: the caller account,
// the actor and the targeted resource id.
func payrollAttributes(c *gin.Context) []attribute.KeyValue {
	ctx := c.Request.Context()
	var attrs []attribute.KeyValue
	if accountID := obscontext.AccountIDFromContext(ctx); accountID != "" {
		attrs = append(attrs, attribute.String("dairypay.account_id", accountID))
	}
	if _, actorID := obscontext.ActorFromContext(ctx); actorID != "" {
		attrs = append(attrs, attribute.String("dairypay.actor_id", actorID))
	}
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		attrs = append(attrs, attribute.String("dairypay."+resourceKind(c.FullPath())+"_id", id))
	}
	return attrs
}

func resourceKind(route string) string {
	switch {
	case strings.Contains(route, "/payroll/runs/"):
		return "payroll_run"
	case strings.Contains(route, "/payroll/suppliers/"):
		return "payroll_supplier"
	case strings.Contains(route, "/charges/"):
		return "charge"
	default:
		return "resource"
	}
}

func withRequestBaggage(ctx context.Context, requestID string) context.Context {
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
