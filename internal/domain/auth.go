package domain

import "time"

// Session is the client-visible projection of a valid token.
type Session struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Expiry returns the expiration instant of the session.
func (s Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}
