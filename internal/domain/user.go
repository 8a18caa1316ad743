// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
)

const (
	MaxAccessTokenLen = 128
)

var (
	ErrAccessTokenEmpty   = errors.New("access token empty")
	ErrAccessTokenTooLong = errors.New("access token too long")
)

type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// UserFromToken derives the user from an access token; the token is the identity.
func UserFromToken(token string) (*User, error) {
	if len(token) == 0 {
		return nil, ErrAccessTokenEmpty
	}
	if len(token) > MaxAccessTokenLen {
		return nil, ErrAccessTokenTooLong
	}
	return &User{ID: UserID(token), Username: token}, nil
}
