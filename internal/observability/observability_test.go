package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestIPFromRequestPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "203.0.113.7", IPFromRequest(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.1", IPFromRequest(req))
}

func TestBuildHeadersSkipsEmpty(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "r1", "trace_id": "t1"}, BuildHeaders("r1", "t1"))
}

func TestSplitFullMethod(t *testing.T) {
	service, method := splitFullMethod("/identity.v1.Directory/GetUser")
	assert.Equal(t, "identity.v1.Directory", service)
	assert.Equal(t, "GetUser", method)

	service, method = splitFullMethod("bogus")
	assert.Equal(t, "unknown", service)
	assert.Equal(t, "unknown", method)
}

func TestSetupTracingWithoutExporter(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "bee-social", "test", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
