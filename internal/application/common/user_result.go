package common

import (
	"time"

	"github.com/google/uuid"
)

// UserResult is the user representation returned by the API. EmailVerified
// reflects the verification state of the user's primary email address.
type UserResult struct {
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	DateJoined    time.Time  `json:"date_joined"`
	LastLogin     *time.Time `json:"last_login"`
	EmailVerified bool       `json:"email_verified"`
}

type EmailAddressResult struct {
	Id         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	IsPrimary  bool      `json:"is_primary"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
