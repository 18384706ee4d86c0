package session

import (
	"fmt"
	"sync"
	"time"
)

// Ticker is the tick source a Timer runs on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.Ticker.
func NewRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

type TimerOption func(*timerConfig)

type timerConfig struct {
	newTicker TickerFactory
	interval  time.Duration
}

// WithTicker swaps the tick source, mostly for tests.
func WithTicker(f TickerFactory) TimerOption {
	return func(c *timerConfig) { c.newTicker = f }
}

// Timer counts down whole seconds. Each handle owns its own ticker.
type Timer struct {
	mu        sync.Mutex
	remaining int
	stopped   bool

	ticker   Ticker
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	onTick   func(remaining int)
	onExpire func()
}

// StartTimer begins ticking once per second. onTick receives the new
// remaining value after every tick; onExpire runs exactly once when the
// count reaches zero, unless Stop ran first. A non-positive duration
// expires on the first tick.
func StartTimer(seconds int, onTick func(remaining int), onExpire func(), opts ...TimerOption) *Timer {
	cfg := timerConfig{newTicker: NewRealTicker, interval: time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	if seconds < 0 {
		seconds = 0
	}
	t := &Timer{
		remaining: seconds,
		ticker:    cfg.newTicker(cfg.interval),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		onTick:    onTick,
		onExpire:  onExpire,
	}
	go t.run()
	return t
}

func (t *Timer) run() {
	defer close(t.done)
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C():
		}

		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		if t.remaining > 0 {
			t.remaining--
		}
		rem := t.remaining
		expired := rem == 0
		if expired {
			t.stopped = true
		}
		t.mu.Unlock()

		if t.onTick != nil {
			t.onTick(rem)
		}
		if expired {
			t.halt()
			if t.onExpire != nil {
				t.onExpire()
			}
			return
		}
	}
}

// Stop cancels the countdown. Safe to call more than once and from the callbacks.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.halt()
}

func (t *Timer) halt() {
	t.stopOnce.Do(func() {
		t.ticker.Stop()
		close(t.quit)
	})
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Done is closed once the tick goroutine has exited.
func (t *Timer) Done() <-chan struct{} { return t.done }

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
