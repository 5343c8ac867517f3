package jwtmw

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

const resetTokenBytes = 32

// IssueResetToken creates a random reset token. The plain token goes to the
// user; only hashed is stored.
func (s *TokenService) IssueResetToken() (plain, hashed string, expires time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate reset token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashForLookup(plain), s.now().Add(ResetTokenTTL), nil
}

// HashForLookup returns the stored form of a plain reset token.
func HashForLookup(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
