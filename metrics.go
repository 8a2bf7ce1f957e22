package reactor

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instrumentationName is the OpenTelemetry meter name used by every reactor.
const instrumentationName = "github.com/joeycumines/go-reactor"

// Wait outcomes, as recorded on the reactor.waits counter.
const (
	outcomeContinue = "continue"
	outcomeStop     = "stop"
	outcomeError    = "error"
)

// reactorMetrics records reactor activity via OpenTelemetry.
// Attribute options are built once, the hot path only adds to counters.
type reactorMetrics struct {
	waits         metric.Int64Counter
	callbacks     metric.Int64Counter
	wakeups       metric.Int64Counter
	pendingTimers metric.Int64UpDownCounter

	waitAttrs     map[string]metric.AddOption
	callbackAttrs map[Kind]metric.AddOption
	notifyAttrs   metric.AddOption
	wakeAttrs     metric.AddOption
}

func newReactorMetrics(provider metric.MeterProvider) (*reactorMetrics, error) {
	meter := provider.Meter(instrumentationName)

	waits, err := meter.Int64Counter("reactor.waits",
		metric.WithDescription("Number of completed Wait iterations"),
	)
	if err != nil {
		return nil, err
	}

	callbacks, err := meter.Int64Counter("reactor.callbacks",
		metric.WithDescription("Number of dispatched callbacks"),
	)
	if err != nil {
		return nil, err
	}

	wakeups, err := meter.Int64Counter("reactor.wakeups",
		metric.WithDescription("Number of wake-up signals written to the wakeup channel"),
	)
	if err != nil {
		return nil, err
	}

	pendingTimers, err := meter.Int64UpDownCounter("reactor.timers.pending",
		metric.WithDescription("Number of scheduled timers that have not fired or been cancelled"),
	)
	if err != nil {
		return nil, err
	}

	m := &reactorMetrics{
		waits:         waits,
		callbacks:     callbacks,
		wakeups:       wakeups,
		pendingTimers: pendingTimers,
		waitAttrs:     make(map[string]metric.AddOption),
		callbackAttrs: make(map[Kind]metric.AddOption),
		notifyAttrs:   metric.WithAttributeSet(attribute.NewSet(attribute.String("source", "notify"))),
		wakeAttrs:     metric.WithAttributeSet(attribute.NewSet(attribute.String("source", "wake"))),
	}
	for _, outcome := range []string{outcomeContinue, outcomeStop, outcomeError} {
		m.waitAttrs[outcome] = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", outcome)))
	}
	for _, kind := range []Kind{KindReader, KindWriter, KindError, KindTimer} {
		m.callbackAttrs[kind] = metric.WithAttributeSet(attribute.NewSet(attribute.String("kind", kind.String())))
	}
	return m, nil
}

func (m *reactorMetrics) recordWait(outcome string) {
	m.waits.Add(context.Background(), 1, m.waitAttrs[outcome])
}

func (m *reactorMetrics) recordCallback(kind Kind) {
	m.callbacks.Add(context.Background(), 1, m.callbackAttrs[kind])
}

func (m *reactorMetrics) recordWakeup(notify bool) {
	if notify {
		m.wakeups.Add(context.Background(), 1, m.notifyAttrs)
	} else {
		m.wakeups.Add(context.Background(), 1, m.wakeAttrs)
	}
}

func (m *reactorMetrics) addPendingTimers(delta int64) {
	m.pendingTimers.Add(context.Background(), delta)
}
