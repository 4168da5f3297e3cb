package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func setupTracer(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTextMapPropagator(prev)
		_ = tp.Shutdown(context.Background())
	})
	return tp
}

func TestDoRequestPropagatesTraceparent(t *testing.T) {
	tp := setupTracer(t)

	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("traceparent")
	}))
	defer server.Close()

	ctx, span := tp.Tracer("test").Start(context.Background(), "embed")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := NewClient(time.Second, 0).DoRequest(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// version-traceid-spanid-flags
	assert.Len(t, got, 55)
	assert.Contains(t, got, span.SpanContext().TraceID().String())
}

func TestInjectTraceContextWithoutSpan(t *testing.T) {
	setupTracer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	NewClient(time.Second, 0).injectTraceContext(req)
	assert.Empty(t, req.Header.Get("traceparent"))

	assert.NotPanics(t, func() { NewClient(time.Second, 0).injectTraceContext(nil) })
}
