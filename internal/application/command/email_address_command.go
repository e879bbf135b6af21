package command

import "github.com/google/uuid"

type AddEmailAddressCommand struct {
	UserId uuid.UUID
	Email  string
}
