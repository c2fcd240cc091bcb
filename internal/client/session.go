package client

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/domain"
)

// DefaultLogoutWindow is how long IsLoggingOut stays set after a logout.
const DefaultLogoutWindow = 1500 * time.Millisecond

const logoutWarning = "You have been logged out on this device, but the server could not be reached. " +
	"The session may remain active until it expires."

// State is the client's view of its session.
type State struct {
	Session *domain.Session
	// Loading is true until the first whoami query resolves.
	Loading bool
	// IsLoggingOut is set while an intentional logout settles, so guards
	// send the user to a plain /login instead of a return-url redirect.
	IsLoggingOut bool
}

// Authenticated reports whether a session is held.
func (s State) Authenticated() bool {
	return s.Session != nil
}

// SessionOption customizes a SessionController.
type SessionOption func(*SessionController)

// WithSessionClock injects the time source.
func WithSessionClock(clock clockwork.Clock) SessionOption {
	return func(c *SessionController) { c.clock = clock }
}

// WithNotifier sets where logout notices go.
func WithNotifier(n Notifier) SessionOption {
	return func(c *SessionController) { c.notifier = n }
}

// WithLogoutWindow overrides DefaultLogoutWindow.
func WithLogoutWindow(d time.Duration) SessionOption {
	return func(c *SessionController) {
		if d > 0 {
			c.window = d
		}
	}
}

// SessionController owns local session state. Local state is authoritative
// for the UI: logout clears it even when the server cannot be reached.
type SessionController struct {
	api      API
	clock    clockwork.Clock
	notifier Notifier
	cache    *Cache
	window   time.Duration

	// authMu orders Login, Register and LogOut so a logout that settles
	// late never clears a session or cookie issued after it started.
	authMu sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	loads      uint64
	resolved   bool
	loggingOut bool
	pulse      clockwork.Timer
	subs       map[int]func(State)
	nextSub    int
}

// NewSessionController starts in the Loading state; call Load to resolve it.
func NewSessionController(api API, opts ...SessionOption) *SessionController {
	c := &SessionController{
		api:      api,
		clock:    clockwork.NewRealClock(),
		notifier: nopNotifier{},
		cache:    NewCache(),
		window:   DefaultLogoutWindow,
		state:    State{Loading: true},
		subs:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot.
func (c *SessionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cache is the authenticated-only data cache.
func (c *SessionController) Cache() *Cache {
	return c.cache
}

// Subscribe registers fn for every state change and returns its cancel func.
func (c *SessionController) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// update mutates state under the lock and notifies subscribers outside it.
func (c *SessionController) update(fn func(*State) bool) {
	c.mu.Lock()
	if !fn(&c.state) {
		c.mu.Unlock()
		return
	}
	snapshot := c.state
	subs := make([]func(State), 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// Load resolves the session with the whoami query. A result that arrives
// after a login, logout or newer Load started is dropped. A cancelled Load
// leaves the session as it was and is Loading only if nothing has resolved
// the session yet.
func (c *SessionController) Load(ctx context.Context) error {
	var gen, seq uint64
	c.update(func(s *State) bool {
		c.loads++
		gen, seq = c.generation, c.loads
		s.Loading = true
		return true
	})

	sess, err := c.api.Session(ctx)

	c.update(func(s *State) bool {
		if gen != c.generation || seq != c.loads {
			return false
		}
		if ctx.Err() != nil {
			s.Loading = !c.resolved
			return true
		}
		c.resolved = true
		s.Loading = false
		s.Session = sess
		return true
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Login signs in and stores the returned session without another round-trip.
// It waits for a logout in flight to settle first.
func (c *SessionController) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	sess, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.HandleAuthSuccess(sess)
	return sess, nil
}

// Register creates an account and stores the returned session.
func (c *SessionController) Register(ctx context.Context, req dto.UserRegisterRequest) (*domain.Session, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	sess, err := c.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	c.HandleAuthSuccess(sess)
	return sess, nil
}

// HandleAuthSuccess writes sess into local state.
func (c *SessionController) HandleAuthSuccess(sess *domain.Session) {
	c.update(func(s *State) bool {
		c.generation++
		c.resolved = true
		s.Session = sess
		s.Loading = false
		return true
	})
}

// LogOut clears local state unconditionally. The server call is best-effort:
// on failure the user is warned but stays logged out locally. Calls made
// while a logout is in flight return immediately.
func (c *SessionController) LogOut(ctx context.Context) error {
	started := false
	c.update(func(s *State) bool {
		if c.loggingOut {
			return false
		}
		c.loggingOut = true
		started = true
		s.IsLoggingOut = true
		return true
	})
	if !started {
		return nil
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()

	var gen uint64
	c.update(func(*State) bool {
		c.generation++
		gen = c.generation
		return false
	})

	err := c.api.Logout(ctx)

	cleared := false
	c.update(func(s *State) bool {
		c.loggingOut = false
		if gen == c.generation {
			cleared = true
			c.resolved = true
			s.Session = nil
			s.Loading = false
		}
		if c.pulse != nil {
			c.pulse.Stop()
		}
		c.pulse = c.clock.AfterFunc(c.window, c.endLogoutWindow)
		return true
	})
	if cleared {
		c.api.ResetCookies()
		c.cache.Purge()
	}

	if err != nil {
		c.notifier.Warn(logoutWarning)
		return err
	}
	c.notifier.Success("You have been logged out.")
	return nil
}

func (c *SessionController) endLogoutWindow() {
	c.update(func(s *State) bool {
		if c.loggingOut || !s.IsLoggingOut {
			return false
		}
		s.IsLoggingOut = false
		return true
	})
}

// DecisionKind is what a guarded route should do.
type DecisionKind int

const (
	Render DecisionKind = iota
	Spinner
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Render:
		return "render"
	case Spinner:
		return "spinner"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome of Guard. To is set for redirects.
type Decision struct {
	Kind DecisionKind
	To   string
}

// Guard decides what a private route at path should do. roles lists the
// roles allowed in, USER and ADMIN when empty; ADMIN is always allowed.
func (c *SessionController) Guard(path string, roles ...domain.Role) Decision {
	return Decide(c.State(), path, roles...)
}

// Decide is Guard over an explicit state.
func Decide(st State, path string, roles ...domain.Role) Decision {
	if st.Loading && !st.IsLoggingOut {
		return Decision{Kind: Spinner}
	}
	if st.Session == nil {
		if st.IsLoggingOut {
			return Decision{Kind: Redirect, To: "/login"}
		}
		return Decision{Kind: Redirect, To: "/login?redirect=" + url.QueryEscape(path)}
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser, domain.RoleAdmin}
	}
	if st.Session.Role == domain.RoleAdmin {
		return Decision{Kind: Render}
	}
	for _, role := range roles {
		if st.Session.Role == role {
			return Decision{Kind: Render}
		}
	}
	return Decision{Kind: Redirect, To: "/unauthorized"}
}
