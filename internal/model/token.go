package model

import "time"

// TokenManager signs and verifies the session cookie value.
type TokenManager interface {
	GenerateSessionToken(sessionID string, issuedAt time.Time) (string, error)
	ParseSessionToken(token string) (sessionID string, err error)
}
