package domain

import (
	"strings"
	"time"
)

type User struct {
	ID             string // subject identifier
	PasswordDigest string // hex-encoded sha256
	GivenName      string
	FamilyName     string
	DisplayName    *string // overrides the computed name when set
	Email          *string
	PhoneNumber    *string
	Address        *string
	Birthdate      *string
	Locale         *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Name returns the display name, falling back to "<given> <family>"
// when no explicit one is set.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}
