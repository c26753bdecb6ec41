package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/dairypay/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestNewProviderDisabledExport(t *testing.T) {
	provider, err := NewProvider(nil, Config{ServiceName: "test"}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)
}

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/charges"),
		attribute.String("http.request.header.authorization", "Bearer x"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorMasksDatabaseErrors(t *testing.T) {
	assert.EqualError(t, SafeError(errors.New("SQL logic error near supplier 42")), "database error")
	assert.EqualError(t, SafeError(errors.New("boom")), "boom")
	assert.Nil(t, SafeError(nil))
}

func TestSamplingRatioBounds(t *testing.T) {
	assert.Equal(t, 1.0, samplingRatio(0))
	assert.Equal(t, 1.0, samplingRatio(2))
	assert.Equal(t, 0.25, samplingRatio(0.25))
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "payroll.runs.mark-paid", operationName("/api/payroll/runs/:id/mark-paid"))
	assert.Equal(t, "charges", operationName("/api/charges/:id"))
	assert.Equal(t, "health", operationName("/health"))
	assert.Equal(t, "root", operationName("/"))
	assert.Equal(t, unmatchedRoute, operationName(""))
}

func TestGinMiddlewareNamesSpanAfterPayrollRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(GinMiddleware())
	r.POST("/api/payroll/runs/:id/mark-paid", func(c *gin.Context) {
		ctx := obscontext.WithAccountID(c.Request.Context(), "100")
		c.Request = c.Request.WithContext(obscontext.WithActor(ctx, "user", "user-1"))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payroll/runs/42/mark-paid", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST payroll.runs.mark-paid", spans[0].Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "/api/payroll/runs/:id/mark-paid", attrs["http.route"])
	assert.Equal(t, "100", attrs["dairypay.account_id"])
	assert.Equal(t, "user-1", attrs["dairypay.actor_id"])
	assert.Equal(t, "42", attrs["dairypay.payroll_run_id"])
}
