package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrTooManyRequests    = errors.New("too many requests")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Settings configures a breaker. Zero values mean: trip after 5 consecutive
// failures, stay open for 30s, let 1 probe through while half-open.
type Settings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	IsSuccessful     func(err error) bool
	OnStateChange    func(name string, from State, to State)
}

type Counts struct {
	Requests             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

type CircuitBreaker struct {
	settings Settings
	now      func() time.Time

	mutex    sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
}

func New(st Settings) *CircuitBreaker {
	if st.FailureThreshold == 0 {
		st.FailureThreshold = 5
	}
	if st.OpenTimeout <= 0 {
		st.OpenTimeout = 30 * time.Second
	}
	if st.HalfOpenRequests == 0 {
		st.HalfOpenRequests = 1
	}
	if st.IsSuccessful == nil {
		st.IsSuccessful = func(err error) bool { return err == nil }
	}

	return &CircuitBreaker{
		settings: st,
		now:      time.Now,
	}
}

// Execute runs req unless the breaker is open. A panic inside req counts as
// a failure and is re-raised.
func (cb *CircuitBreaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	if err := cb.beforeRequest(); err != nil {
		return nil, err
	}

	defer func() {
		if e := recover(); e != nil {
			cb.afterRequest(false)
			panic(e)
		}
	}()

	result, err := req()
	cb.afterRequest(cb.settings.IsSuccessful(err))
	return result, err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.currentState() {
	case StateOpen:
		return ErrCircuitBreakerOpen
	case StateHalfOpen:
		if cb.counts.Requests >= cb.settings.HalfOpenRequests {
			return ErrTooManyRequests
		}
	}

	cb.counts.Requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState()

	if success {
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.settings.HalfOpenRequests {
			cb.setState(StateClosed)
		}
		return
	}

	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0
	if state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.settings.FailureThreshold {
		cb.setState(StateOpen)
	}
}

// currentState moves an expired open breaker to half-open. Callers hold the
// mutex.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.settings.OpenTimeout {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(state State) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.counts = Counts{}
	if state == StateOpen {
		cb.openedAt = cb.now()
	}

	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, prev, state)
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.settings.Name
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return cb.currentState()
}

func (cb *CircuitBreaker) Counts() Counts {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return cb.counts
}

func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return map[string]interface{}{
		"name":                 cb.settings.Name,
		"state":                cb.currentState().String(),
		"consecutive_failures": cb.counts.ConsecutiveFailures,
	}
}
