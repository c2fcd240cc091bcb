// Package session holds the per-principal allow-list of tokens that are
// still authoritative. A signature-valid token that is missing here must be
// rejected; removing it is how logout and remote revocation work.
package session

import (
	"context"
	"time"
)

// Store is the token allow-list. Every operation is idempotent: recording a
// token twice or revoking an absent one succeeds without error.
type Store interface {
	// RecordLogin adds token to the principal's valid set.
	RecordLogin(ctx context.Context, principalID, token string, expiresAt time.Time) error
	// IsValid reports membership of token in the principal's valid set.
	IsValid(ctx context.Context, principalID, token string) (bool, error)
	// RevokeOne removes exactly token.
	RevokeOne(ctx context.Context, principalID, token string) error
	// RevokeAll clears every token of the principal.
	RevokeAll(ctx context.Context, principalID string) error
	// Prune drops the principal's tokens that expired at or before now.
	Prune(ctx context.Context, principalID string, now time.Time) (int, error)
	// PruneExpired drops expired tokens across all principals.
	PruneExpired(ctx context.Context, now time.Time) (int, error)
}
