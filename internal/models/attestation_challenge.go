package models

import (
	"time"

	"github.com/google/uuid"
)

// AttestationChallenge is a single-use anti-replay token. A challenge
// transitions unused -> used exactly once (UsedAt set by a conditional
// update) and is retained afterwards for audit; rows are never deleted.
type AttestationChallenge struct {
	ID        uuid.UUID  `json:"id"`
	Nonce     string     `json:"nonce"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the challenge TTL has elapsed at the given time.
func (c *AttestationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
