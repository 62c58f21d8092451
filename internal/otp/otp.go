package otp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// Service issues and verifies numeric one-time codes. A code is derived
// from the secret and its issuance instant, so only the instant needs to
// be persisted; the same pair reproduces the code during verification.
type Service struct {
	secret   []byte
	validity time.Duration
}

// NewService constructs a Service with the given derivation secret and
// validity window.
func NewService(secret string, validity time.Duration) *Service {
	return &Service{secret: []byte(secret), validity: validity}
}

// Validity reports the configured validity window.
func (s *Service) Validity() time.Duration {
	return s.validity
}

// Issue returns a fresh code together with its issuance instant.
func (s *Service) Issue() (string, time.Time) {
	issuedAt := time.Now().UTC()
	return s.Code(issuedAt), issuedAt
}

// Verify checks a submitted code against the stored issuance instant.
// An elapsed validity window fails the check regardless of the code value.
func (s *Service) Verify(code string, issuedAt time.Time) bool {
	if time.Since(issuedAt) > s.validity {
		return false
	}
	return hmac.Equal([]byte(code), []byte(s.Code(issuedAt)))
}

// Code derives the code for an issuance instant.
func (s *Service) Code(issuedAt time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	binary.Write(mac, binary.BigEndian, issuedAt.UnixMilli())
	sum := mac.Sum(nil)
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(sum[:4])%1000000)
}
