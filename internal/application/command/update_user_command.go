package command

import "github.com/google/uuid"

// UpdateUserCommand carries a full or partial profile update. Nil fields are
// left unchanged, which is how PATCH semantics reach the service layer.
type UpdateUserCommand struct {
	UserId    uuid.UUID
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}
