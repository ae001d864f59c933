package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
// Used for every public entity id: contracts, requests, penalties, redemptions.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewCorrelationID returns a v4 UUID for ids that leave the process:
// outbound OCR calls and notification messages.
func NewCorrelationID() string { return uuid.NewString() }
