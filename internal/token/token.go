// Package token is the C3 token primitive set: generate a random opaque
// bearer token and its bcrypt digest, verify a presented token against a
// stored digest, and derive the short, non-secret prefix used as a cache
// key. Grounded on the teacher's internal/tenant/secrets/secrets.go
// generate/hash/verify trio, generalized from base64 API-secret generation
// to hex-encoded session tokens of a configurable byte length and bcrypt
// cost, per spec.md §4.1.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"worldcup-predict/pkg/dtoerr"
)

// Params controls token length and bcrypt cost. The session service
// constructs one from config.Session.
type Params struct {
	TokenBytes int // raw random bytes before hex encoding
	BcryptCost int
	PrefixLen  int // cache-key prefix length, in hex characters
}

// DefaultParams matches spec.md §4.1's defaults: 32 random bytes (64 hex
// characters), bcrypt cost 12, a 16-character cache-key prefix.
var DefaultParams = Params{TokenBytes: 32, BcryptCost: 12, PrefixLen: 16}

// Generate creates a new random token and its bcrypt hash. The token is
// TokenBytes of uniform random, hex-encoded; the hash is a bcrypt digest of
// the token at BcryptCost.
func (p Params) Generate() (token, hash string, err error) {
	buf := make([]byte, p.TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("token: generate random bytes: %w", err)
	}
	token = hex.EncodeToString(buf)

	hashed, err := bcrypt.GenerateFromPassword([]byte(token), p.BcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("token: hash: %w", err)
	}
	return token, string(hashed), nil
}

// Verify performs a constant-time bcrypt comparison of a presented token
// against its stored hash.
func Verify(token, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	return err == nil
}

// Prefix returns the cache-key prefix of a token — the first PrefixLen hex
// characters. This value is stored in the cache as a lookup key only; it is
// never treated as authentication material on its own (the bcrypt digest
// still has to verify against the full token on cache hit).
func (p Params) Prefix(token string) string {
	if len(token) < p.PrefixLen {
		return token
	}
	return token[:p.PrefixLen]
}

// ValidFormat requires the token be exactly 2*TokenBytes hex characters.
func (p Params) ValidFormat(token string) bool {
	if len(token) != p.TokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

// ErrMalformed is returned by callers that need to distinguish a
// format-invalid token from one that simply failed verification.
var ErrMalformed = dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidOrExpired)
