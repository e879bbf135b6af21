package command

import (
	"accounts-service/internal/application/common"
	"accounts-service/internal/domain/entities"
)

type SignupCommand struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type SignupCommandResult struct {
	Tokens entities.TokenPair
	User   *common.UserResult
}
