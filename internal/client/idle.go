package client

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// IdleState is the phase of the idle-logout machine.
type IdleState int

const (
	// IdlePaused: no timers run. Initial state and the state while logged out.
	IdlePaused IdleState = iota
	// IdleActive: the user is present; activity restarts the countdown.
	IdleActive
	// IdlePrompted: the warning is showing; only Continue resumes.
	IdlePrompted
	// IdleIdle: the timeout elapsed and the idle handler ran.
	IdleIdle
)

func (s IdleState) String() string {
	switch s {
	case IdlePaused:
		return "paused"
	case IdleActive:
		return "active"
	case IdlePrompted:
		return "prompted"
	case IdleIdle:
		return "idle"
	}
	return "unknown"
}

// IdleConfig times the machine. The prompt shows PromptBefore ahead of
// Timeout; a non-positive PromptBefore skips the prompt phase.
type IdleConfig struct {
	Timeout      time.Duration
	PromptBefore time.Duration
}

// IdleOption customizes an IdleController.
type IdleOption func(*IdleController)

// OnPrompt is called when the warning should be shown, with the time left.
func OnPrompt(fn func(remaining time.Duration)) IdleOption {
	return func(c *IdleController) { c.onPrompt = fn }
}

// OnIdle is called once the timeout elapses.
func OnIdle(fn func()) IdleOption {
	return func(c *IdleController) { c.onIdle = fn }
}

// IdleController logs the user out after a period without activity.
type IdleController struct {
	cfg   IdleConfig
	clock clockwork.Clock

	mu       sync.Mutex
	state    IdleState
	epoch    uint64
	deadline time.Time
	timers   []clockwork.Timer
	onPrompt func(time.Duration)
	onIdle   func()
}

// NewIdleController builds a paused controller. clock may be nil.
func NewIdleController(cfg IdleConfig, clock clockwork.Clock, opts ...IdleOption) *IdleController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.PromptBefore >= cfg.Timeout {
		cfg.PromptBefore = 0
	}
	c := &IdleController{cfg: cfg, clock: clock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current phase.
func (c *IdleController) State() IdleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the time until the idle timeout, zero unless counting down.
func (c *IdleController) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != IdleActive && c.state != IdlePrompted {
		return 0
	}
	if left := c.deadline.Sub(c.clock.Now()); left > 0 {
		return left
	}
	return 0
}

// Start moves a paused or idle controller to Active. It is a no-op while
// already counting down.
func (c *IdleController) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == IdleActive || c.state == IdlePrompted {
		return
	}
	c.state = IdleActive
	c.scheduleLocked()
}

// Activity restarts the countdown while Active. It is ignored once the
// prompt is showing.
func (c *IdleController) Activity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != IdleActive {
		return
	}
	c.scheduleLocked()
}

// Continue dismisses the prompt and resumes.
func (c *IdleController) Continue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != IdlePrompted {
		return
	}
	c.state = IdleActive
	c.scheduleLocked()
}

// Pause stops every timer.
func (c *IdleController) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.state = IdlePaused
}

// Bind ties the controller to a session: counting while authenticated,
// paused otherwise, and logging out on idle. It returns the unbind func.
func (c *IdleController) Bind(ctx context.Context, session *SessionController) func() {
	c.mu.Lock()
	c.onIdle = func() { _ = session.LogOut(ctx) }
	c.mu.Unlock()

	follow := func(st State) {
		if st.Authenticated() && !st.Loading && !st.IsLoggingOut {
			c.Start()
			return
		}
		c.Pause()
	}
	unsubscribe := session.Subscribe(follow)
	follow(session.State())
	return func() {
		unsubscribe()
		c.Pause()
	}
}

func (c *IdleController) stopLocked() {
	c.epoch++
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

// scheduleLocked restarts the countdown. Timer callbacks carry the epoch they
// were scheduled in and do nothing once it has moved on.
func (c *IdleController) scheduleLocked() {
	c.stopLocked()
	epoch := c.epoch
	c.deadline = c.clock.Now().Add(c.cfg.Timeout)

	if c.cfg.PromptBefore > 0 {
		c.timers = append(c.timers, c.clock.AfterFunc(c.cfg.Timeout-c.cfg.PromptBefore, func() { c.prompt(epoch) }))
		return
	}
	c.timers = append(c.timers, c.clock.AfterFunc(c.cfg.Timeout, func() { c.expire(epoch) }))
}

func (c *IdleController) prompt(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.state != IdleActive {
		c.mu.Unlock()
		return
	}
	c.state = IdlePrompted
	c.timers = append(c.timers, c.clock.AfterFunc(c.cfg.PromptBefore, func() { c.expire(epoch) }))
	onPrompt := c.onPrompt
	c.mu.Unlock()

	if onPrompt != nil {
		onPrompt(c.cfg.PromptBefore)
	}
}

func (c *IdleController) expire(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || (c.state != IdleActive && c.state != IdlePrompted) {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.state = IdleIdle
	onIdle := c.onIdle
	c.mu.Unlock()

	if onIdle != nil {
		onIdle()
	}
}
