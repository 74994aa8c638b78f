package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const guestTokenBytes = 32

// MintGuestToken returns an unguessable opaque token that lets an
// unauthenticated purchaser retrieve their own order.
func MintGuestToken() (string, error) {
	buf := make([]byte, guestTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
