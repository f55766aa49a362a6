package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-day-planner/config"
)

func newTestBreaker(threshold uint32, cooldown time.Duration) *Breaker[string] {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New[string]("test", config.BreakerConfig{FailureThreshold: threshold, Cooldown: cooldown}, logger)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(3, time.Minute)
	boom := errors.New("upstream down")

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := b.Execute(func() (string, error) {
		called = true
		return "ok", nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker must not call the dependency")
}

func TestBreaker_SuccessResetsConsecutiveCount(t *testing.T) {
	b := newTestBreaker(2, time.Minute)
	boom := errors.New("flaky")

	_, _ = b.Execute(func() (string, error) { return "", boom })
	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	_, _ = b.Execute(func() (string, error) { return "", boom })

	assert.Equal(t, "closed", b.State())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b := newTestBreaker(1, 20*time.Millisecond)

	_, _ = b.Execute(func() (string, error) { return "", errors.New("down") })
	require.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "half-open", b.State())

	v, err := b.Execute(func() (string, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_CanceledContextDoesNotTrip(t *testing.T) {
	b := newTestBreaker(1, time.Minute)

	_, err := b.Execute(func() (string, error) { return "", context.Canceled })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", b.State())
}
