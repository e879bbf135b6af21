package interfaces

import (
	"context"

	"github.com/google/uuid"

	"accounts-service/internal/application/command"
	"accounts-service/internal/application/common"
)

// AccountService orchestrates signup, login, logout-adjacent token handling
// and email-address management on top of the credential store, the
// verification engine and the token issuer.
type AccountService interface {
	SignupWithEmail(ctx context.Context, cmd *command.SignupCommand) (*command.SignupCommandResult, error)
	LoginWithEmailPassword(ctx context.Context, cmd *command.LoginCommand) (*command.LoginCommandResult, error)
	LoginWithGoogle(ctx context.Context, cmd *command.GoogleLoginCommand) (*command.GoogleLoginCommandResult, error)
	RefreshAccessToken(refreshToken string) (string, error)

	GetUser(ctx context.Context, userId uuid.UUID) (*common.UserResult, error)
	UpdateUser(ctx context.Context, cmd *command.UpdateUserCommand) (*common.UserResult, error)
	DeleteUser(ctx context.Context, userId uuid.UUID) error

	AddEmailAddress(ctx context.Context, cmd *command.AddEmailAddressCommand) (*common.EmailAddressResult, error)
	GetEmailAddress(ctx context.Context, requesterId, id uuid.UUID) (*common.EmailAddressResult, error)
	DeleteEmailAddress(ctx context.Context, requesterId, id uuid.UUID) error
	SetPrimaryEmailAddress(ctx context.Context, requesterId, id uuid.UUID) (*common.EmailAddressResult, error)
	VerifyEmail(ctx context.Context, cmd *command.VerifyEmailCommand) error
}
