package command

import "accounts-service/internal/domain/entities"

type GoogleLoginCommand struct {
	// AccessToken is the opaque token obtained by the client from Google.
	AccessToken string
}

type GoogleLoginCommandResult struct {
	Tokens entities.TokenPair
}
