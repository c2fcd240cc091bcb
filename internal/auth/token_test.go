package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-auth/internal/domain"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	codec := NewTokenCodec("secret", WithClock(clock))

	tok, issued, err := codec.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, epoch.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, epoch.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, issued.Session(), claims.Session())
}

func TestTokenCodec_SameSecondTokensDiffer(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("secret", WithClock(clockwork.NewFakeClockAt(epoch)))
	a, _, err := codec.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	b, _, err := codec.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCodec_ExpiryIsStrict(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	codec := NewTokenCodec("secret", WithClock(clock))

	tok, _, err := codec.Issue("user-1", domain.RoleUser, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Second)
	_, err = codec.Verify(tok)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_Leeway(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	codec := NewTokenCodec("secret", WithClock(clock), WithLeeway(30*time.Second))

	tok, _, err := codec.Issue("user-1", domain.RoleUser, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + 10*time.Second)
	_, err = codec.Verify(tok)
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenCodec("right").Issue("u", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenCodec("wrong").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("secret")
	tok, _, err := codec.Issue("u", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'e' {
		payload[0] = 'f'
	} else {
		payload[0] = 'e'
	}
	tampered := strings.Join([]string{parts[0], string(payload), parts[2]}, ".")

	_, err = codec.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("secret")
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestTokenCodec_VerifySignatureIgnoresExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	codec := NewTokenCodec("secret", WithClock(clock))

	tok, _, err := codec.Issue("user-9", domain.RoleAdmin, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = codec.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)

	claims, err := codec.VerifySignature(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.Subject)
}

func TestTokenCodec_IssueRequiresSubject(t *testing.T) {
	t.Parallel()

	_, _, err := NewTokenCodec("secret").Issue("", domain.RoleUser, time.Hour)
	assert.Error(t, err)
}
