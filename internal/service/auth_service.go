package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/auth"
	"github.com/spec-kit/todo-auth/internal/config"
	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/events"
	"github.com/spec-kit/todo-auth/internal/observability"
	"github.com/spec-kit/todo-auth/internal/repository"
	"github.com/spec-kit/todo-auth/internal/session"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

var registerMessages = fieldMessages{
	"name":            {"required": "A name is required."},
	"email":           {"required": "A valid email is required.", "email": "A valid email is required."},
	"password":        {"required": "Must be at least 5 characters.", "min": "Must be at least 5 characters."},
	"confirmPassword": {"required": "Required.", "eqfield": passwordMismatch},
}

var profileMessages = fieldMessages{
	"name":     {"min": "A name is required."},
	"email":    {"email": "A valid email is required."},
	"password": {"min": "Must be at least 5 characters."},
}

const (
	duplicateEmailMessage  = "A user with that email already exists."
	confirmRequiredMessage = "confirmPassword is required when a password is being updated."
	passwordMismatch       = "The passwords must match."
)

// RegisterInput is the create-account form.
type RegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=5"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ProfileInput edits the caller's own account. Nil fields are left unchanged.
type ProfileInput struct {
	Name            *string `json:"name" validate:"omitnil,min=1"`
	Email           *string `json:"email" validate:"omitnil,email"`
	Password        *string `json:"password" validate:"omitnil,min=5"`
	ConfirmPassword *string `json:"confirmPassword"`
}

// AuthResult is what a successful login or registration hands the transport.
// Token goes into the cookie only; Session is the response body.
type AuthResult struct {
	User    *domain.User
	Token   string
	Session domain.Session
}

// AuthService coordinates registration, login and session revocation.
type AuthService struct {
	users      repository.UserRepository
	sessions   session.Store
	tokens     *auth.TokenCodec
	dispatcher events.Dispatcher
	validate   *validator.Validate
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
	tokenTTL   time.Duration
	bcryptCost int
	dummyHash  string
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Sessions   session.Store
	Tokens     *auth.TokenCodec
	Dispatcher events.Dispatcher
	Clock      clockwork.Clock
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.Users,
		sessions:   deps.Sessions,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		validate:   newValidator(),
		clock:      deps.Clock,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		tokenTTL:   cfg.TokenTTL(),
		bcryptCost: cfg.BcryptCost,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.dispatcher == nil {
		s.dispatcher = events.NewInMemoryDispatcher()
	}
	// Compared against on unknown emails so both failure paths pay for bcrypt.
	s.dummyHash, _ = auth.HashPassword("not-a-real-password", s.bcryptCost)
	return s
}

// Register validates the form, creates a USER principal and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = repository.NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	fields, err := collectFormErrors(s.validate, input, registerMessages)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, bad := fields["email"]; !bad {
		_, err := s.users.GetByEmail(ctx, input.Email)
		switch {
		case err == nil:
			fields["email"] = duplicateEmailMessage
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
	}
	if err := formErrorsOrNil(fields); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewFormErrors(map[string]string{"email": duplicateEmailMessage})
		}
		return nil, apperrors.NewInternalError(err)
	}

	result, err := s.signIn(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, nil))
	return result, nil
}

// Login checks credentials. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.CheckPassword(s.dummyHash, password)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.NewInvalidCredentials()
	}

	result, err := s.signIn(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID, nil))
	return result, nil
}

func (s *AuthService) signIn(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.RecordLogin(ctx, user.ID, token, claims.ExpiresAt.Time); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	pruned, err := s.sessions.Prune(ctx, user.ID, s.clock.Now())
	if err != nil {
		s.logger.Warn("prune expired sessions", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.metrics.RecordSessionsPruned(pruned)

	return &AuthResult{User: user, Token: token, Session: claims.Session()}, nil
}

// Logout removes the presented token from the allow-list. Absent, malformed
// or already revoked tokens succeed; expired ones are still removed.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.VerifySignature(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.RevokeOne(ctx, claims.Subject, token); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.NewEvent(events.EventUserLoggedOut, claims.Subject, nil))
	return nil
}

// LogoutAll revokes every session of the principal, the current one included.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.NewEvent(events.EventSessionsRevoked, userID,
		events.SessionsRevokedPayload{Reason: "logout_all"}))
	return nil
}

// Session answers "who am I" for the presented token. It returns nil for an
// anonymous caller; only store failures are errors. The role is the stored one.
func (s *AuthService) Session(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}
	valid, err := s.sessions.IsValid(ctx, claims.Subject, token)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !valid {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}

	sess := claims.Session()
	sess.Role = user.Role
	return &sess, nil
}

// CurrentUser returns the principal record.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// DeleteAccount removes the principal with its todos, then every session.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return mapRepoError(err, "user")
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.NewEvent(events.EventUserDeleted, userID, nil))
	return nil
}

// UpdateProfile edits name, email or password of userID. Every invalid field
// is reported at once; an email already held by another user is one of them.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if input.Email != nil {
		email := repository.NormalizeEmail(*input.Email)
		input.Email = &email
	}

	fields, err := collectFormErrors(s.validate, input, profileMessages)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, bad := fields["email"]; !bad && input.Email != nil {
		existing, err := s.users.GetByEmail(ctx, *input.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			fields["email"] = duplicateEmailMessage
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
	}
	if input.Password != nil && *input.Password != "" {
		switch {
		case input.ConfirmPassword == nil || *input.ConfirmPassword == "":
			fields["confirmPassword"] = confirmRequiredMessage
		case *input.ConfirmPassword != *input.Password:
			fields["confirmPassword"] = passwordMismatch
		}
	}
	if err := formErrorsOrNil(fields); err != nil {
		return nil, err
	}

	var changed []string
	if input.Name != nil && *input.Name != user.Name {
		user.Name = *input.Name
		changed = append(changed, "name")
	}
	if input.Email != nil && *input.Email != user.Email {
		user.Email = *input.Email
		changed = append(changed, "email")
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}
	if len(changed) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewFormErrors(map[string]string{"email": duplicateEmailMessage})
		}
		return nil, mapRepoError(err, "user")
	}
	s.publish(ctx, events.NewEvent(events.EventProfileUpdated, user.ID,
		events.ProfileUpdatedPayload{Fields: changed}))
	return user, nil
}

// ListUsers returns every principal.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// UpdateRole changes the role of target. The change applies to the target's
// existing sessions on their next request.
func (s *AuthService) UpdateRole(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
	role = domain.Role(strings.ToUpper(string(role)))
	if !role.Valid() {
		return nil, apperrors.NewInvalidInput("Invalid role.")
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	old := user.Role
	if old == role {
		return user, nil
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	s.publish(ctx, events.NewEvent(events.EventRoleChanged, user.ID,
		events.RoleChangedPayload{OldRole: old, NewRole: role, ChangedBy: actorID}))
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func mapRepoError(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource)
	}
	return apperrors.NewInternalError(err)
}
