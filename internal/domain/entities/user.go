package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	Id         uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	DateJoined time.Time
	LastLogin  *time.Time
}

func NewUser(username, email, password string) (*User, error) {
	now := time.Now()
	user := &User{
		Id:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Username:   username,
		Email:      strings.ToLower(email),
		DateJoined: now,
	}

	if password != "" {
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (u *User) validate() error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	if u.Email == "" {
		return errors.New("email must not be empty")
	}
	if u.CreatedAt.After(u.UpdatedAt) {
		return errors.New("created_at must be before updated_at")
	}
	return nil
}

func (u *User) SetPassword(plain string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	u.UpdatedAt = time.Now()
	return nil
}

// CheckPassword fails for users provisioned through a third-party login,
// which never had a password set.
func (u *User) CheckPassword(plain string) error {
	if u.Password == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain))
}

func (u *User) UpdateLoginTimestamp() {
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
}

func (u *User) UpdateProfile(username, email, firstName, lastName string) error {
	u.Username = username
	u.Email = strings.ToLower(email)
	u.FirstName = firstName
	u.LastName = lastName
	u.UpdatedAt = time.Now()
	return u.validate()
}
