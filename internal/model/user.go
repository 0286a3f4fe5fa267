// Package model defines the client-side view of backend entities and session state.
package model

import (
	"errors"
	"strings"
	"time"
)

// UserType is the account kind assigned by the backend.
type UserType string

const (
	UserTouriste UserType = "Touriste"
	UserGuide    UserType = "Guide"
)

// Is reports whether t names the same type as other, ignoring case.
func (t UserType) Is(other string) bool { return strings.EqualFold(string(t), other) }

// UserRecord is the signed-in user as returned by the auth endpoints.
type UserRecord struct {
	URI   string   `json:"uri"`
	Nom   string   `json:"nom"`
	Email string   `json:"email"`
	Type  UserType `json:"type"`
}

// Validate rejects records that cannot identify a user.
func (u *UserRecord) Validate() error {
	if u.URI == "" {
		return errors.New("user: missing uri")
	}
	if u.Email == "" {
		return errors.New("user: missing email")
	}
	return nil
}

// Session is the client-held authentication state. Token and User are set
// and cleared together.
type Session struct {
	Token     string
	User      *UserRecord
	ExpiresAt time.Time // zero for opaque tokens
}

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool { return s.Token != "" && s.User != nil }

// Expired reports whether a known expiry lies before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
