package command

import (
	"accounts-service/internal/application/common"
	"accounts-service/internal/domain/entities"
)

type LoginCommand struct {
	Email    string
	Password string
	// Remember controls how long the refresh artifact persists on the
	// client: false is session-scoped, true uses the configured session age.
	Remember bool
}

type LoginCommandResult struct {
	Tokens   entities.TokenPair
	User     *common.UserResult
	Remember bool
}
