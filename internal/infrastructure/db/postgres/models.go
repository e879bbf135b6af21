package postgres

import (
	"time"

	"github.com/google/uuid"
)

// UserModel rows are hard-deleted: account deletion cascades over the
// user's email addresses and must free the unique username/email slots for
// a later registration.
type UserModel struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string `gorm:"uniqueIndex;not null"`
	Email      string `gorm:"uniqueIndex;not null"`
	Password   string
	FirstName  string
	LastName   string
	DateJoined time.Time
	LastLogin  *time.Time
}

func (UserModel) TableName() string {
	return "users"
}

type EmailAddressModel struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_email_addresses_user_email"`
	Email      string    `gorm:"not null;uniqueIndex:idx_email_addresses_user_email"`
	IsPrimary  bool      `gorm:"default:false"`
	IsVerified bool      `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (EmailAddressModel) TableName() string {
	return "email_addresses"
}
