package command

import "github.com/google/uuid"

type VerifyEmailCommand struct {
	UserId uuid.UUID
	Email  string
	Code   string
}
