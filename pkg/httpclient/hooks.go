package httpclient

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/utafrali/catalog-admin/pkg/logger"
)

// CorrelationIDHeader carries the request correlation id to the upstream.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationHook copies the correlation id stored in ctx onto the request.
func CorrelationHook(ctx context.Context, req *http.Request) {
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(CorrelationIDHeader, id)
	}
}

// TraceHook injects the active span context using the global propagator.
func TraceHook(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// UserAgentHook returns a hook that sets a fixed User-Agent.
func UserAgentHook(agent string) RequestHook {
	return func(_ context.Context, req *http.Request) {
		req.Header.Set("User-Agent", agent)
	}
}
