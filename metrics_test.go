//go:build unix

package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectSums returns every int64 sum data point, keyed by metric name then
// by the single attribute value of the point ("" if it has none).
func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != instrumentationName {
			continue
		}
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			points := make(map[string]int64)
			for _, dp := range sum.DataPoints {
				var key string
				if iter := dp.Attributes.Iter(); iter.Next() {
					key = iter.Attribute().Value.Emit()
				}
				points[key] = dp.Value
			}
			out[m.Name] = points
		}
	}
	return out
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r := newTestReactor(t, WithMeterProvider(provider))
	rfd, wfd := testCreatePipe(t)

	r.SetReader(rfd, Func(func() { testDrain(rfd) }))
	r.SetTimer(0, Func(func() {}))
	testWrite(t, wfd, []byte("x"))

	ok, err := r.Wait()
	require.NoError(t, err)
	require.True(t, ok)

	r.Notify()
	ok, err = r.Wait()
	require.NoError(t, err)
	require.False(t, ok)

	r.SetTimer(0, func() error { return errors.New("fail") })
	_, err = r.Wait()
	require.Error(t, err)

	sums := collectSums(t, reader)

	assert.Equal(t, map[string]int64{
		outcomeContinue: 1,
		outcomeStop:     1,
		outcomeError:    1,
	}, sums["reactor.waits"])

	assert.Equal(t, int64(1), sums["reactor.callbacks"][KindReader.String()])
	assert.Equal(t, int64(2), sums["reactor.callbacks"][KindTimer.String()])

	// registrations only wake a Wait that holds the lock on another goroutine
	assert.Zero(t, sums["reactor.wakeups"]["wake"])
	assert.Equal(t, int64(1), sums["reactor.wakeups"]["notify"])

	assert.Equal(t, int64(0), sums["reactor.timers.pending"][""])
}

func TestMetrics_PendingTimers(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r := newTestReactor(t, WithMeterProvider(provider))
	a := r.SetTimer(time.Hour, nil)
	r.SetTimer(time.Hour, nil)
	r.UnsetTimer(a)
	r.UnsetTimer(a)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(1), sums["reactor.timers.pending"][""])
}

func TestMetrics_PendingTimersDroppedOnClose(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(WithMeterProvider(provider))
	require.NoError(t, err)
	r.SetTimer(time.Hour, nil)
	r.SetTimer(time.Hour, nil)
	require.Equal(t, int64(2), collectSums(t, reader)["reactor.timers.pending"][""])

	require.NoError(t, r.Close())
	assert.Equal(t, int64(0), collectSums(t, reader)["reactor.timers.pending"][""])
	assert.Zero(t, r.Stats().Timers)
}

func TestMetrics_AttributeSets(t *testing.T) {
	m, err := newReactorMetrics(sdkmetric.NewMeterProvider())
	require.NoError(t, err)
	for _, kind := range []Kind{KindReader, KindWriter, KindError, KindTimer} {
		assert.Contains(t, m.callbackAttrs, kind)
	}
	for _, outcome := range []string{outcomeContinue, outcomeStop, outcomeError} {
		assert.Contains(t, m.waitAttrs, outcome)
	}
}
