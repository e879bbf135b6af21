package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailAddress is one address owned by a user. A user always has exactly one
// primary address (created at registration); verification is monotonic, a
// verified address never becomes unverified again.
type EmailAddress struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Email      string
	IsPrimary  bool
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewEmailAddress(userId uuid.UUID, email string, isPrimary bool) (*EmailAddress, error) {
	if userId == uuid.Nil {
		return nil, errors.New("email address must belong to a user")
	}
	if email == "" {
		return nil, errors.New("email must not be empty")
	}

	now := time.Now()
	return &EmailAddress{
		Id:        uuid.New(),
		UserId:    userId,
		Email:     strings.ToLower(email),
		IsPrimary: isPrimary,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// VerificationCacheKey is the cache key holding this address' pending
// verification code.
func (e *EmailAddress) VerificationCacheKey() string {
	return fmt.Sprintf("email_verification_code_%s", e.Id)
}

func (e *EmailAddress) SetVerified() {
	e.IsVerified = true
	e.UpdatedAt = time.Now()
}
