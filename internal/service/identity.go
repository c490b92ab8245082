package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const originHashLen = 16

// OriginHasher derives the pseudonymous author id shown on shared hypotheses.
// The same user id always maps to the same value.
type OriginHasher struct {
	secret []byte
}

// NewOriginHasher keys the derivation with secret. An empty secret falls back
// to an unkeyed SHA-256, which is stable but can be brute forced from a list
// of known user ids.
func NewOriginHasher(secret string) *OriginHasher {
	return &OriginHasher{secret: []byte(secret)}
}

func (h *OriginHasher) Hash(userID string) string {
	var sum []byte
	if len(h.secret) == 0 {
		s := sha256.Sum256([]byte(userID))
		sum = s[:]
	} else {
		mac := hmac.New(sha256.New, h.secret)
		mac.Write([]byte(userID))
		sum = mac.Sum(nil)
	}
	return hex.EncodeToString(sum)[:originHashLen]
}
