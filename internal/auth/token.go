package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/todo-auth/internal/domain"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unexpected algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned once now >= exp (minus any configured leeway).
	ErrTokenExpired = errors.New("token expired")
)

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session projects the claims into the client-visible session.
func (c *Claims) Session() domain.Session {
	s := domain.Session{ID: c.Subject, Role: c.Role}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Unix()
	}
	return s
}

// TokenCodec issues and verifies HS256 session tokens.
type TokenCodec struct {
	secret []byte
	clock  clockwork.Clock
	leeway time.Duration
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock injects the time source.
func WithClock(clock clockwork.Clock) CodecOption {
	return func(tc *TokenCodec) { tc.clock = clock }
}

// WithLeeway tolerates clock skew: a token is still accepted until exp+leeway.
func WithLeeway(d time.Duration) CodecOption {
	return func(tc *TokenCodec) {
		if d > 0 {
			tc.leeway = d
		}
	}
}

// NewTokenCodec builds a codec over the shared secret.
func NewTokenCodec(secret string, opts ...CodecOption) *TokenCodec {
	tc := &TokenCodec{secret: []byte(secret), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Issue signs a token for the subject valid for ttl. Each token carries a
// unique jti so two logins within the same second stay distinct sessions.
func (tc *TokenCodec) Issue(subjectID string, role domain.Role, ttl time.Duration) (string, *Claims, error) {
	if subjectID == "" {
		return "", nil, errors.New("subject id required")
	}
	now := tc.clock.Now().Truncate(time.Second)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tc.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Verify checks signature and expiry and returns the claims.
func (tc *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	claims, err := tc.parse(tokenStr,
		jwt.WithTimeFunc(tc.clock.Now),
		jwt.WithLeeway(tc.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tc.clock.Now().Before(claims.ExpiresAt.Time.Add(tc.leeway)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// VerifySignature checks only the signature. Logout uses it so that an
// expired token can still be removed from the allow-list.
func (tc *TokenCodec) VerifySignature(tokenStr string) (*Claims, error) {
	return tc.parse(tokenStr, jwt.WithoutClaimsValidation())
}

func (tc *TokenCodec) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
