package entities

// ValidatedUser wraps a User that passed invariant checks. Repositories only
// accept ValidatedUser on writes, so an unvalidated User can never reach the
// database.
type ValidatedUser struct {
	*User
}

func NewValidatedUser(user *User) (*ValidatedUser, error) {
	if err := user.validate(); err != nil {
		return nil, err
	}

	return &ValidatedUser{User: user}, nil
}

func (vu *ValidatedUser) GetUser() *User {
	return vu.User
}

func (vu *ValidatedUser) UpdateProfile(username, email, firstName, lastName string) error {
	return vu.User.UpdateProfile(username, email, firstName, lastName)
}
