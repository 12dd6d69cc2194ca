package llm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
)

// BreakerProvider wraps a Provider with a circuit breaker. After the
// configured number of consecutive failures, calls fail immediately with
// gobreaker.ErrOpenState until the open timeout elapses.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[string]
}

// NewBreakerProvider wraps p. failures <= 0 defaults to 3.
func NewBreakerProvider(p Provider, failures uint32, openFor time.Duration) *BreakerProvider {
	if failures == 0 {
		failures = 3
	}
	if openFor <= 0 {
		openFor = 60 * time.Second
	}
	name := ProviderName(p)

	settings := gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A canceled or expired caller context says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			ev := logging.Info()
			if to == gobreaker.StateOpen {
				ev = logging.Warn()
			}
			ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("LLM circuit breaker state changed")
		},
	}
	metrics.BreakerState.WithLabelValues(settings.Name).Set(0)

	return &BreakerProvider{
		inner: p,
		cb:    gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerProvider) Name() string { return ProviderName(b.inner) }

func (b *BreakerProvider) IsConfigured() bool { return b.inner.IsConfigured() }

// Generate runs the wrapped provider through the breaker.
func (b *BreakerProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.inner.Generate(ctx, prompt, maxTokens)
	})
}

// State reports the breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
