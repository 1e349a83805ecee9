package syncengine

import (
	"context"
	"sync"
	"time"
)

// Ticker is an interface for time.Ticker to allow mocking.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeProvider provides time-related functionality for dependency injection.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealTicker wraps time.Ticker to implement the Ticker interface.
type RealTicker struct {
	ticker *time.Ticker
}

// C returns the ticker's channel.
func (r *RealTicker) C() <-chan time.Time {
	return r.ticker.C
}

// Stop stops the ticker.
func (r *RealTicker) Stop() {
	r.ticker.Stop()
}

// RealTimeProvider implements TimeProvider using real time functions.
type RealTimeProvider struct{}

// NewTicker creates a new ticker.
func (r *RealTimeProvider) NewTicker(d time.Duration) Ticker {
	return &RealTicker{ticker: time.NewTicker(d)}
}

// Now returns the current time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Sleep waits for d unless ctx ends first.
func (r *RealTimeProvider) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockTicker is a mock implementation of Ticker for testing.
type MockTicker struct {
	TickChan chan time.Time
	stopOnce sync.Once
}

// C returns the ticker's channel.
func (m *MockTicker) C() <-chan time.Time {
	return m.TickChan
}

// Stop stops the ticker.
func (m *MockTicker) Stop() {
	m.stopOnce.Do(func() {
		if m.TickChan != nil {
			close(m.TickChan)
		}
	})
}

// MockTimeProvider is a TimeProvider whose clock only moves when told to.
// Sleep returns immediately and advances the clock.
type MockTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	ticker *MockTicker
}

// NewMockTimeProvider creates a MockTimeProvider starting at now.
func NewMockTimeProvider(now time.Time) *MockTimeProvider {
	return &MockTimeProvider{
		now:    now,
		ticker: &MockTicker{TickChan: make(chan time.Time)},
	}
}

// Advance moves the clock forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// NewTicker returns the provider's single MockTicker.
func (m *MockTimeProvider) NewTicker(time.Duration) Ticker {
	return m.ticker
}

// Now returns the mock clock's current time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// Sleep records d and advances the clock without blocking.
func (m *MockTimeProvider) Sleep(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)
	m.mu.Unlock()

	return ctx.Err()
}

// Sleeps returns every duration passed to Sleep, in call order.
func (m *MockTimeProvider) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]time.Duration(nil), m.sleeps...)
}

// Tick delivers t on the ticker channel, blocking until it is received.
func (m *MockTimeProvider) Tick(t time.Time) {
	m.ticker.TickChan <- t
}
