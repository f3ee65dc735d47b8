// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen   = 64
	MaxFamilyIDLen = 64
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrFamilyIDEmpty   = errors.New("family id empty")
	ErrFamilyIDTooLong = errors.New("family id too long")
	ErrUsernameTooLong = errors.New("username too long")
)

type (
	UserID   string
	FamilyID string
)

// Identity is what a connection becomes after join.
type Identity struct {
	UserID   UserID   `json:"userId"`
	FamilyID FamilyID `json:"familyId"`
}

// NewIdentity validates raw ids coming from a client.
func NewIdentity(userID, familyID string) (Identity, error) {
	switch {
	case userID == "":
		return Identity{}, ErrUserIDEmpty
	case len(userID) > MaxUserIDLen:
		return Identity{}, ErrUserIDTooLong
	case familyID == "":
		return Identity{}, ErrFamilyIDEmpty
	case len(familyID) > MaxFamilyIDLen:
		return Identity{}, ErrFamilyIDTooLong
	}
	return Identity{UserID: UserID(userID), FamilyID: FamilyID(familyID)}, nil
}
