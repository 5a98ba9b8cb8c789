package lifecycle

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenLength is the verification token length in bytes (64 hex chars).
	TokenLength = 32
	// TokenTTL is how long an issued token stays confirmable.
	TokenTTL = 24 * time.Hour
	// BcryptCost for hashing outstanding tokens.
	BcryptCost = 10
)

// IssueVerification creates a new outstanding token, replacing any
// previous one. The plain token is returned for out-of-band dispatch;
// only its hash stays in the state. EmailVerified is not changed.
func IssueVerification(s State, now time.Time) (State, string, error) {
	if err := CanSendVerification(s); err != nil {
		return s, "", err
	}
	token := generateToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), BcryptCost)
	if err != nil {
		return s, "", fmt.Errorf("hash token: %w", err)
	}
	s.VerificationHash = string(hash)
	s.VerificationSentAt = now
	return s, token, nil
}

// ConfirmVerification sets EmailVerified when token matches the
// outstanding one and has not expired. On any failure the returned state
// equals s.
func ConfirmVerification(s State, token string, now time.Time) (State, error) {
	if err := CanConfirmVerification(s); err != nil {
		return s, err
	}
	if s.VerificationHash == "" {
		return s, &InvalidTransition{
			Action: ActionConfirmVerification,
			Reason: "no outstanding verification",
			Err:    ErrInvalidToken,
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.VerificationHash), []byte(token)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return s, fmt.Errorf("compare token: %w", err)
		}
		return s, &InvalidTransition{
			Action: ActionConfirmVerification,
			Reason: "token does not match",
			Err:    ErrInvalidToken,
		}
	}
	if !s.VerificationSentAt.IsZero() && now.After(s.VerificationSentAt.Add(TokenTTL)) {
		return s, &InvalidTransition{
			Action: ActionConfirmVerification,
			Reason: "token expired",
			Err:    ErrTokenExpired,
		}
	}

	s.EmailVerified = true
	s.VerificationHash = ""
	s.VerificationSentAt = time.Time{}
	return s, nil
}

// generateToken panics if the system's cryptographic RNG fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
