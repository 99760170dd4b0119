package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(st Settings) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New(st)
	cb.now = c.now
	return cb, c
}

func fail() (interface{}, error)    { return nil, errBoom }
func succeed() (interface{}, error) { return "ok", nil }

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := New(Settings{Name: "x"})
	assert.Equal(t, uint32(5), cb.settings.FailureThreshold)
	assert.Equal(t, 30*time.Second, cb.settings.OpenTimeout)
	assert.Equal(t, uint32(1), cb.settings.HalfOpenRequests)
	assert.Equal(t, "x", cb.Name())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	cb, _ := newTestBreaker(Settings{
		Name:             "redis",
		FailureThreshold: 3,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(fail)
		assert.ErrorIs(t, err, errBoom)
	}
	// A success in between resets the streak.
	_, err := cb.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cb.Counts().ConsecutiveFailures)

	for i := 0; i < 3; i++ {
		cb.Execute(fail)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, []string{"closed->open"}, transitions)

	_, err = cb.Execute(succeed)
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clk := newTestBreaker(Settings{FailureThreshold: 1, OpenTimeout: time.Minute})

	cb.Execute(fail)
	require.Equal(t, StateOpen, cb.State())

	clk.advance(time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())

	result, err := cb.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(Settings{FailureThreshold: 1, OpenTimeout: time.Minute})

	cb.Execute(fail)
	clk.advance(2 * time.Minute)

	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())

	clk.advance(30 * time.Second)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb, clk := newTestBreaker(Settings{FailureThreshold: 1, OpenTimeout: time.Second})

	cb.Execute(fail)
	clk.advance(time.Second)

	// Hold the single probe slot open while a second call arrives.
	_, err := cb.Execute(func() (interface{}, error) {
		_, inner := cb.Execute(succeed)
		assert.ErrorIs(t, inner, ErrTooManyRequests)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CustomSuccess(t *testing.T) {
	ignorable := errors.New("ignorable")
	cb, _ := newTestBreaker(Settings{
		FailureThreshold: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ignorable)
		},
	})

	_, err := cb.Execute(func() (interface{}, error) { return nil, ignorable })
	assert.ErrorIs(t, err, ignorable)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	cb, _ := newTestBreaker(Settings{FailureThreshold: 1})

	assert.Panics(t, func() {
		cb.Execute(func() (interface{}, error) { panic("kaboom") })
	})
	assert.Equal(t, StateOpen, cb.State())

	stats := cb.Stats()
	assert.Equal(t, "open", stats["state"])
}
