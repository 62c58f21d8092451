package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeSession = "session"
	purposeReset   = "password_reset"
)

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrInvalidResetToken is returned when a reset token is expired,
// malformed, or carries the wrong purpose.
var ErrInvalidResetToken = errors.New("invalid reset password token")

// Profile is the claim set carried by a session token.
type Profile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Mobile string    `json:"mobile"`
}

type claims struct {
	Purpose string `json:"purpose"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and verifies the two token kinds the account lifecycle
// needs: session tokens carrying profile claims and single-purpose
// password-reset tokens. Both are HS256 signed with the shared secret.
type Service struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewService constructs a Service.
func NewService(secret string, sessionTTL, resetTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), sessionTTL: sessionTTL, resetTTL: resetTTL}
}

// Generate creates a signed session token for the profile.
func (s *Service) Generate(profile Profile) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purposeSession,
		Name:    profile.Name,
		Email:   profile.Email,
		Mobile:  profile.Mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// Parse validates a session token and returns its profile claims.
// Tokens issued for another purpose are rejected.
func (s *Service) Parse(tokenString string) (Profile, error) {
	parsed, err := s.parse(tokenString)
	if err != nil || parsed.Purpose != purposeSession {
		return Profile{}, ErrInvalidToken
	}

	id, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return Profile{}, ErrInvalidToken
	}

	return Profile{
		ID:     id,
		Name:   parsed.Name,
		Email:  parsed.Email,
		Mobile: parsed.Mobile,
	}, nil
}

// GenerateResetPasswordToken creates a short-lived token authorizing one
// password change for the user.
func (s *Service) GenerateResetPasswordToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// DecodeResetPasswordToken verifies a reset token and returns the user id
// it was issued for.
func (s *Service) DecodeResetPasswordToken(tokenString string) (uuid.UUID, error) {
	parsed, err := s.parse(tokenString)
	if err != nil || parsed.Purpose != purposeReset {
		return uuid.Nil, ErrInvalidResetToken
	}

	id, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}

	return id, nil
}

func (s *Service) parse(tokenString string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if c, ok := parsed.Claims.(*claims); ok && parsed.Valid {
		return c, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
