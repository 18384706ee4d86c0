package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (fc *fakeClock) factory(time.Duration) Ticker {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	ft := &fakeTicker{ch: make(chan time.Time)}
	fc.tickers = append(fc.tickers, ft)
	return ft
}

func (fc *fakeClock) last() *fakeTicker {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.tickers[len(fc.tickers)-1]
}

// sendTick delivers one tick; false if nobody is listening anymore.
func sendTick(ft *fakeTicker, wait time.Duration) bool {
	select {
	case ft.ch <- time.Now():
		return true
	case <-time.After(wait):
		return false
	}
}

// advance sends n ticks and waits until each one has been observed.
func advance(t *testing.T, ft *fakeTicker, observed <-chan int, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if !sendTick(ft, time.Second) {
			t.Fatalf("tick %d not accepted", i+1)
		}
		select {
		case <-observed:
		case <-time.After(time.Second):
			t.Fatalf("tick %d not observed", i+1)
		}
	}
}
