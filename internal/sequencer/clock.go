package sequencer

import (
	"sync"
	"time"
)

// Clock schedules a repeating callback.
type Clock interface {
	Every(d time.Duration, fn func()) Task
}

// Task is a cancellable repeating callback.
type Task interface {
	Stop()
}

// SystemClock runs callbacks from a time.Ticker goroutine.
type SystemClock struct{}

// Every runs fn every d until the task is stopped.
func (SystemClock) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{ticker: time.NewTicker(d), done: make(chan struct{})}
	go t.run(fn)
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

// Stop does not wait for a callback already in progress.
func (t *tickerTask) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// ManualClock fires callbacks only when Advance is called. Tests use it in
// place of wall-clock waits.
type ManualClock struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	clock    *ManualClock
	interval time.Duration
	fn       func()
	stopped  bool
}

// Every registers fn to run on each Advance.
func (c *ManualClock) Every(d time.Duration, fn func()) Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTask{clock: c, interval: d, fn: fn}
	c.tasks = append(c.tasks, t)
	return t
}

func (t *manualTask) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

// Advance fires every live task n times.
func (c *ManualClock) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, fn := range c.live() {
			fn()
		}
	}
}

func (c *ManualClock) live() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fns []func()
	kept := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.stopped {
			fns = append(fns, t.fn)
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	return fns
}

// Tasks returns the number of running tasks.
func (c *ManualClock) Tasks() int {
	return len(c.live())
}

// Interval returns the period of the most recently scheduled running task.
func (c *ManualClock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.tasks) - 1; i >= 0; i-- {
		if !c.tasks[i].stopped {
			return c.tasks[i].interval
		}
	}
	return 0
}
