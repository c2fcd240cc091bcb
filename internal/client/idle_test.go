package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-auth/internal/domain"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
)

func newIdle(t *testing.T, cfg IdleConfig) (*IdleController, *clockwork.FakeClock, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	var prompts, idles atomic.Int32
	c := NewIdleController(cfg, clock,
		OnPrompt(func(time.Duration) { prompts.Add(1) }),
		OnIdle(func() { idles.Add(1) }),
	)
	return c, clock, &prompts, &idles
}

func TestIdle_StartsPaused(t *testing.T) {
	c, clock, _, idles := newIdle(t, IdleConfig{Timeout: time.Minute})
	clock.Advance(time.Hour)
	assert.Equal(t, IdlePaused, c.State())
	assert.Zero(t, idles.Load())
	assert.Zero(t, c.Remaining())
}

func TestIdle_PromptThenIdle(t *testing.T) {
	c, clock, prompts, idles := newIdle(t, IdleConfig{Timeout: time.Minute, PromptBefore: 15 * time.Second})
	c.Start()
	assert.Equal(t, IdleActive, c.State())
	assert.Equal(t, time.Minute, c.Remaining())

	clock.Advance(45 * time.Second)
	require.Eventually(t, func() bool { return c.State() == IdlePrompted }, waitFor, tick)
	assert.Equal(t, int32(1), prompts.Load())

	clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return c.State() == IdleIdle }, waitFor, tick)
	assert.Equal(t, int32(1), idles.Load())
}

func TestIdle_ActivityResetsCountdown(t *testing.T) {
	c, clock, _, idles := newIdle(t, IdleConfig{Timeout: time.Minute})
	c.Start()

	clock.Advance(50 * time.Second)
	c.Activity()
	clock.Advance(50 * time.Second)
	assert.Equal(t, IdleActive, c.State())
	assert.Equal(t, 10*time.Second, c.Remaining())

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return idles.Load() == 1 }, waitFor, tick)
}

func TestIdle_ActivityIgnoredWhilePrompted(t *testing.T) {
	c, clock, _, idles := newIdle(t, IdleConfig{Timeout: time.Minute, PromptBefore: 15 * time.Second})
	c.Start()
	clock.Advance(45 * time.Second)
	require.Eventually(t, func() bool { return c.State() == IdlePrompted }, waitFor, tick)

	c.Activity()
	assert.Equal(t, IdlePrompted, c.State())

	clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return idles.Load() == 1 }, waitFor, tick)
}

func TestIdle_ContinueResumes(t *testing.T) {
	c, clock, _, idles := newIdle(t, IdleConfig{Timeout: time.Minute, PromptBefore: 15 * time.Second})
	c.Start()
	clock.Advance(45 * time.Second)
	require.Eventually(t, func() bool { return c.State() == IdlePrompted }, waitFor, tick)

	c.Continue()
	assert.Equal(t, IdleActive, c.State())
	clock.Advance(30 * time.Second)
	assert.Equal(t, IdleActive, c.State())
	assert.Zero(t, idles.Load())
}

func TestIdle_PauseStopsTimers(t *testing.T) {
	c, clock, _, idles := newIdle(t, IdleConfig{Timeout: time.Minute})
	c.Start()
	c.Pause()
	clock.Advance(time.Hour)
	assert.Equal(t, IdlePaused, c.State())
	assert.Zero(t, idles.Load())
}

func TestIdle_BoundToSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	api := &fakeAPI{session: &domain.Session{ID: "u1", Role: domain.RoleUser}}
	session := NewSessionController(api, WithSessionClock(clock))
	idle := NewIdleController(IdleConfig{Timeout: time.Minute}, clock)

	unbind := idle.Bind(context.Background(), session)
	defer unbind()
	assert.Equal(t, IdlePaused, idle.State(), "paused while loading")

	require.NoError(t, session.Load(context.Background()))
	assert.Equal(t, IdleActive, idle.State())

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return !session.State().Authenticated() && idle.State() == IdlePaused
	}, waitFor, tick)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.logouts)
}

func TestIdle_CancelledRefreshKeepsCounting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := NewSessionController(&fakeAPI{session: admin}, WithSessionClock(clock))
	session.HandleAuthSuccess(admin)

	idle := NewIdleController(IdleConfig{Timeout: time.Minute}, clock)
	unbind := idle.Bind(context.Background(), session)
	defer unbind()
	require.Equal(t, IdleActive, idle.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, session.Load(ctx), context.Canceled)

	st := session.State()
	assert.False(t, st.Loading)
	assert.Equal(t, admin, st.Session)
	assert.Equal(t, Decision{Kind: Render}, session.Guard("/admin", domain.RoleAdmin))
	assert.Equal(t, IdleActive, idle.State())
}
