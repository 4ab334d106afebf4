package session

import (
	"sync"
	"time"
)

// Countdown is the OTP resend cooldown: it ticks down once per interval
// until zero and is cancellable so no tick fires after disposal.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	stopped   bool
	stop      chan struct{}
	onTick    func(remaining int)
}

// StartCountdown arms a countdown from seconds down to zero. onTick, if
// non-nil, is invoked after every decrement with the new value.
func StartCountdown(seconds int, interval time.Duration, onTick func(remaining int)) *Countdown {
	c := &Countdown{
		remaining: seconds,
		stop:      make(chan struct{}),
		onTick:    onTick,
	}
	go c.run(interval)
	return c
}

func (c *Countdown) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.tick() {
				return
			}
		}
	}
}

// tick decrements once and reports whether the countdown should keep
// running.
func (c *Countdown) tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.remaining == 0 {
		return false
	}
	c.remaining--
	if c.onTick != nil {
		c.onTick(c.remaining)
	}
	return c.remaining > 0
}

// Remaining returns the seconds left; zero means resend is available.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop cancels the countdown. Safe to call more than once; no tick is
// delivered after Stop returns.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}
