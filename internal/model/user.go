package model

import "time"

// EducationLevel is an optional demographic field.
type EducationLevel string

// User is an examinee identity plus credential and revocation state.
type User struct {
	ID           int64
	Email        string // unique, case-folded
	PasswordHash string // bcrypt

	FirstName string
	LastName  string

	BirthYear      *int
	Education      EducationLevel
	Country        string
	Region         string

	// TokenRevokedBefore is the logout-all revocation epoch: any token
	// whose iat is strictly before this is invalid. Nil means no epoch has
	// ever been set.
	TokenRevokedBefore *time.Time

	PushToken   string
	PushEnabled bool

	CreatedAt time.Time
}
