package observability //nolint:testpackage // testing internal implementation.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

func TestNewWalkMetrics(t *testing.T) {
	t.Parallel()

	wm, err := NewWalkMetrics(noopmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, wm)
}

func TestWalkMetrics_RecordWalk(t *testing.T) {
	t.Parallel()

	wm, err := NewWalkMetrics(noopmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	outcome := WalkOutcome{
		FilesParsed:  10,
		CacheHits:    3,
		ParseErrors:  1,
		BytesScanned: 4096,
		Resolved:     20,
		Missing:      5,
		Excluded:     2,
	}

	// Recording against no-op instruments must not panic.
	wm.RecordWalk(context.Background(), outcome, 250*time.Millisecond)
	wm.RecordWalk(context.Background(), WalkOutcome{Err: errors.New("entry unreadable")}, time.Millisecond)
}
