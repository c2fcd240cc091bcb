package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/observability"
	"github.com/spec-kit/todo-auth/internal/repository"
	"github.com/spec-kit/todo-auth/internal/session"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

const unauthenticatedMessage = "Authentication is required."

// PrincipalFinder loads the current principal record.
type PrincipalFinder interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// OutcomeRecorder counts authentication outcomes.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Authenticator verifies the cookie token, checks the allow-list and loads
// the principal. Every failure looks the same to the caller.
type Authenticator struct {
	tokens   *TokenCodec
	sessions session.Store
	users    PrincipalFinder
	cookie   CookieConfig
	metrics  OutcomeRecorder
	logger   *zap.Logger
}

// AuthenticatorDeps groups the collaborators of an Authenticator.
type AuthenticatorDeps struct {
	Tokens   *TokenCodec
	Sessions session.Store
	Users    PrincipalFinder
	Cookie   CookieConfig
	Metrics  OutcomeRecorder
	Logger   *zap.Logger
}

// NewAuthenticator constructs middleware.
func NewAuthenticator(deps AuthenticatorDeps) *Authenticator {
	a := &Authenticator{
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		users:    deps.Users,
		cookie:   deps.Cookie,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = (*observability.Metrics)(nil)
	}
	return a
}

// Resolve runs the per-request state machine:
//
//	no token                    -> UNAUTHORIZED
//	token fails verification    -> UNAUTHORIZED
//	token verified, not stored  -> UNAUTHORIZED
//	token verified and stored   -> current principal from the repository
//
// The role on the returned user is the stored one, never the token claim.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, a.reject(observability.AuthOutcomeNoToken, nil)
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		outcome := observability.AuthOutcomeInvalidToken
		if errors.Is(err, ErrTokenExpired) {
			outcome = observability.AuthOutcomeExpiredToken
		}
		return nil, a.reject(outcome, err)
	}

	valid, err := a.sessions.IsValid(ctx, claims.Subject, token)
	if err != nil {
		a.metrics.RecordAuthOutcome(observability.AuthOutcomeStoreError)
		return nil, apperrors.NewInternalError(err)
	}
	if !valid {
		return nil, a.reject(observability.AuthOutcomeRevoked, nil)
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, a.reject(observability.AuthOutcomeUnknownUser, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	a.metrics.RecordAuthOutcome(observability.AuthOutcomeOK)
	return user, nil
}

func (a *Authenticator) reject(outcome string, err error) error {
	a.metrics.RecordAuthOutcome(outcome)
	a.logger.Debug("authentication rejected", zap.String("outcome", outcome), zap.Error(err))
	return apperrors.NewUnauthorized(unauthenticatedMessage)
}

// Authenticate wraps next so that it only runs for an authenticated caller.
// The principal is available to next through PrincipalFromContext and
// PrincipalFrom(c.UserContext()).
func (a *Authenticator) Authenticate(next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := a.Resolve(c.UserContext(), a.cookie.Read(c))
		if err != nil {
			return err
		}
		attachPrincipal(c, user)
		return next(c)
	}
}

// Handle is Authenticate as group middleware.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	return a.Authenticate(func(c *fiber.Ctx) error { return c.Next() })(c)
}
