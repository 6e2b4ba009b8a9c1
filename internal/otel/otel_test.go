package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/schemasubset/internal/eventbus"
	events "github.com/hanpama/schemasubset/internal/events"
	reqid "github.com/hanpama/schemasubset/internal/reqid"
)

func setup(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(Register(tp.Tracer("test")))
	return rec
}

func TestSubsetSpanNestsUnderRequest(t *testing.T) {
	rec := setup(t)
	ctx, _ := reqid.NewContext(context.Background())
	r := httptest.NewRequest("POST", "/subset", nil)

	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	eventbus.Publish(ctx, events.SubsetStart{Documents: 2, Types: 10})
	eventbus.Publish(ctx, events.SubsetPass{Pass: "types", Removed: 4})
	eventbus.Publish(ctx, events.SubsetFinish{TypesBefore: 10, TypesAfter: 6})
	eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: 200})

	spans := rec.Ended()
	require.Len(t, spans, 2)
	subset, http := spans[0], spans[1]
	require.Equal(t, "schema.subset", subset.Name())
	require.Equal(t, "http.request", http.Name())
	require.Equal(t, http.SpanContext().SpanID(), subset.Parent().SpanID())
	require.Len(t, subset.Events(), 1)
	require.Equal(t, "prune.types", subset.Events()[0].Name)
}

func TestSubsetSpanRecordsError(t *testing.T) {
	rec := setup(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.SubsetStart{Documents: 1})
	eventbus.Publish(ctx, events.SubsetFinish{Err: errors.New("boom")})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
