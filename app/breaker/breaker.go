package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/config"
)

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// ErrOpen is returned without calling the dependency while the breaker is open.
var ErrOpen = errors.New("circuit breaker open")

// Breaker guards calls to one external dependency. It opens after
// FailureThreshold consecutive failures and lets a probe through after Cooldown.
type Breaker[T any] struct {
	cb   *gobreaker.CircuitBreaker[T]
	name string
}

func New[T any](name string, cfg config.BreakerConfig, logger *slog.Logger) *Breaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = 1
	}

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not a sign the dependency is unhealthy.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state transition",
				slog.String("breaker", name),
				slog.String("from", StateString(from)),
				slog.String("to", StateString(to)))
			metrics.Get().BreakerTransitionsTotal.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("breaker", name),
				attribute.String("to", StateString(to)),
			))
		},
	})

	return &Breaker[T]{cb: cb, name: name}
}

// Execute runs fn through the breaker. Rejections are reported as ErrOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%s: %w", b.name, ErrOpen)
	}
	return result, err
}

func (b *Breaker[T]) Name() string { return b.name }

func (b *Breaker[T]) State() string { return StateString(b.cb.State()) }

func StateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
