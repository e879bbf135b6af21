package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"accounts-service/internal/application/command"
	"accounts-service/internal/application/common"
	"accounts-service/internal/application/interfaces"
	"accounts-service/internal/application/mapper"
	"accounts-service/internal/domain/entities"
	"accounts-service/internal/domain/repositories"
)

type AccountService struct {
	store    repositories.Store
	tokens   interfaces.TokenIssuer
	verifier *VerificationService
	profiles interfaces.ProfileProvider

	// comparisonHash is a bcrypt hash compared against when login hits an
	// unknown email, so that path costs the same as a real password check.
	comparisonHash []byte
}

func NewAccountService(
	store repositories.Store,
	tokens interfaces.TokenIssuer,
	verifier *VerificationService,
	profiles interfaces.ProfileProvider,
) (interfaces.AccountService, error) {
	comparisonHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &AccountService{
		store:          store,
		tokens:         tokens,
		verifier:       verifier,
		profiles:       profiles,
		comparisonHash: comparisonHash,
	}, nil
}

// SignupWithEmail creates a User plus its primary unverified EmailAddress in
// one transaction, schedules the first verification email once that
// transaction has committed, and issues a token pair.
func (s *AccountService) SignupWithEmail(ctx context.Context, cmd *command.SignupCommand) (*command.SignupCommandResult, error) {
	if cmd.Password != cmd.ConfirmPassword {
		return nil, entities.NewValidationError("confirm_password", "Password and Confirm Password must be the same.")
	}

	email := strings.ToLower(cmd.Email)

	var user *entities.User
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		existing, err := tx.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return entities.NewValidationError("email", "A user with this email address already exists.")
		}

		existing, err = tx.Users().FindByUsername(ctx, cmd.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return entities.NewValidationError("username", "A user with this username already exists.")
		}

		newUser, err := entities.NewUser(cmd.Username, email, cmd.Password)
		if err != nil {
			return err
		}

		validatedUser, err := entities.NewValidatedUser(newUser)
		if err != nil {
			return err
		}

		user, err = tx.Users().Create(ctx, validatedUser)
		if err != nil {
			return err
		}

		address, err := entities.NewEmailAddress(user.Id, email, true)
		if err != nil {
			return err
		}
		created, err := tx.EmailAddresses().Create(ctx, address)
		if err != nil {
			return err
		}

		addressId := created.Id
		tx.AfterCommit(func() {
			s.verifier.ScheduleVerificationEmail(addressId)
		})
		return nil
	})
	if err != nil {
		// A concurrent signup can slip past the existence checks; the unique
		// index reports it the same way as the pre-check.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, entities.NewValidationError("email", "A user with this email address already exists.")
		}
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &command.SignupCommandResult{
		Tokens: tokens,
		User:   mapper.NewUserResultFromEntity(user, false),
	}, nil
}

// LoginWithEmailPassword authenticates against the credential store. Unknown
// email and wrong password both fail with entities.ErrInvalidCredentials;
// nothing in the response or its timing distinguishes the two.
func (s *AccountService) LoginWithEmailPassword(ctx context.Context, cmd *command.LoginCommand) (*command.LoginCommandResult, error) {
	user, err := s.store.Users().FindByEmail(ctx, strings.ToLower(cmd.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.comparisonHash, []byte(cmd.Password))
		return nil, entities.ErrInvalidCredentials
	}

	if err := user.CheckPassword(cmd.Password); err != nil {
		return nil, entities.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	verified, err := s.emailVerified(ctx, user.Id)
	if err != nil {
		return nil, err
	}

	return &command.LoginCommandResult{
		Tokens:   tokens,
		User:     mapper.NewUserResultFromEntity(user, verified),
		Remember: cmd.Remember,
	}, nil
}

// LoginWithGoogle exchanges the opaque provider token for a profile and logs
// the matching local user in, provisioning one (no password, unverified
// primary address) when none exists.
func (s *AccountService) LoginWithGoogle(ctx context.Context, cmd *command.GoogleLoginCommand) (*command.GoogleLoginCommandResult, error) {
	profile, err := s.profiles.FetchProfile(ctx, cmd.AccessToken)
	if err != nil {
		return nil, entities.ErrInvalidProviderToken
	}

	email := strings.ToLower(profile.Email)
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user, err = s.provisionThirdPartyUser(ctx, email, profile)
		if err != nil {
			return nil, err
		}
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &command.GoogleLoginCommandResult{Tokens: tokens}, nil
}

// RefreshAccessToken mints a new access token from a valid refresh token.
func (s *AccountService) RefreshAccessToken(refreshToken string) (string, error) {
	return s.tokens.RefreshAccessToken(refreshToken)
}

func (s *AccountService) GetUser(ctx context.Context, userId uuid.UUID) (*common.UserResult, error) {
	user, err := s.store.Users().FindById(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entities.ErrNotFound
	}

	verified, err := s.emailVerified(ctx, user.Id)
	if err != nil {
		return nil, err
	}

	return mapper.NewUserResultFromEntity(user, verified), nil
}

func (s *AccountService) UpdateUser(ctx context.Context, cmd *command.UpdateUserCommand) (*common.UserResult, error) {
	var updated *entities.User
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		user, err := tx.Users().FindById(ctx, cmd.UserId)
		if err != nil {
			return err
		}
		if user == nil {
			return entities.ErrNotFound
		}

		username := user.Username
		if cmd.Username != nil {
			username = *cmd.Username
		}
		email := user.Email
		if cmd.Email != nil {
			email = strings.ToLower(*cmd.Email)
		}
		firstName := user.FirstName
		if cmd.FirstName != nil {
			firstName = *cmd.FirstName
		}
		lastName := user.LastName
		if cmd.LastName != nil {
			lastName = *cmd.LastName
		}

		if username != user.Username {
			existing, err := tx.Users().FindByUsername(ctx, username)
			if err != nil {
				return err
			}
			if existing != nil {
				return entities.NewValidationError("username", "A user with this username already exists.")
			}
		}
		if email != user.Email {
			existing, err := tx.Users().FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if existing != nil {
				return entities.NewValidationError("email", "A user with this email address already exists.")
			}
		}

		if err := user.UpdateProfile(username, email, firstName, lastName); err != nil {
			return entities.NewValidationError("detail", err.Error())
		}

		validatedUser, err := entities.NewValidatedUser(user)
		if err != nil {
			return err
		}

		updated, err = tx.Users().Update(ctx, validatedUser)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, entities.NewValidationError("email", "A user with this email address already exists.")
		}
		return nil, err
	}

	verified, err := s.emailVerified(ctx, updated.Id)
	if err != nil {
		return nil, err
	}

	return mapper.NewUserResultFromEntity(updated, verified), nil
}

// DeleteUser removes the user and every email address it owns in one
// transaction. The deletion is permanent: the username and email become
// available for a new registration, and no orphaned address survives to be
// verified later.
func (s *AccountService) DeleteUser(ctx context.Context, userId uuid.UUID) error {
	return s.store.Transact(ctx, func(tx repositories.Store) error {
		user, err := tx.Users().FindById(ctx, userId)
		if err != nil {
			return err
		}
		if user == nil {
			return entities.ErrNotFound
		}

		if err := tx.EmailAddresses().DeleteByUser(ctx, userId); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userId)
	})
}

// AddEmailAddress attaches a secondary unverified address to the user and
// schedules its verification email after commit.
func (s *AccountService) AddEmailAddress(ctx context.Context, cmd *command.AddEmailAddressCommand) (*common.EmailAddressResult, error) {
	email := strings.ToLower(cmd.Email)

	var created *entities.EmailAddress
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		existing, err := tx.EmailAddresses().FindByUserAndEmail(ctx, cmd.UserId, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return entities.NewValidationError("email", "This email address is already registered.")
		}

		address, err := entities.NewEmailAddress(cmd.UserId, email, false)
		if err != nil {
			return entities.NewValidationError("email", err.Error())
		}

		created, err = tx.EmailAddresses().Create(ctx, address)
		if err != nil {
			return err
		}

		addressId := created.Id
		tx.AfterCommit(func() {
			s.verifier.ScheduleVerificationEmail(addressId)
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, entities.NewValidationError("email", "This email address is already registered.")
		}
		return nil, err
	}

	return mapper.NewEmailAddressResultFromEntity(created), nil
}

// GetEmailAddress allows reads for any authenticated user; mutation
// endpoints are owner-only.
func (s *AccountService) GetEmailAddress(ctx context.Context, requesterId, id uuid.UUID) (*common.EmailAddressResult, error) {
	address, err := s.store.EmailAddresses().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, entities.ErrNotFound
	}

	return mapper.NewEmailAddressResultFromEntity(address), nil
}

func (s *AccountService) DeleteEmailAddress(ctx context.Context, requesterId, id uuid.UUID) error {
	address, err := s.store.EmailAddresses().FindById(ctx, id)
	if err != nil {
		return err
	}
	if address == nil {
		return entities.ErrNotFound
	}
	if address.UserId != requesterId {
		return entities.ErrForbidden
	}
	if address.IsPrimary {
		return entities.NewValidationError("email", "The primary email address cannot be deleted.")
	}

	return s.store.EmailAddresses().Delete(ctx, id)
}

// SetPrimaryEmailAddress promotes an owned address to primary, demotes the
// previous primary and syncs the user's email field, all in one transaction.
func (s *AccountService) SetPrimaryEmailAddress(ctx context.Context, requesterId, id uuid.UUID) (*common.EmailAddressResult, error) {
	var promoted *entities.EmailAddress
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		address, err := tx.EmailAddresses().FindById(ctx, id)
		if err != nil {
			return err
		}
		if address == nil {
			return entities.ErrNotFound
		}
		if address.UserId != requesterId {
			return entities.ErrForbidden
		}

		if err := tx.EmailAddresses().SetPrimary(ctx, requesterId, id); err != nil {
			return err
		}

		user, err := tx.Users().FindById(ctx, requesterId)
		if err != nil {
			return err
		}
		if user == nil {
			return entities.ErrNotFound
		}

		if err := user.UpdateProfile(user.Username, address.Email, user.FirstName, user.LastName); err != nil {
			return err
		}
		validatedUser, err := entities.NewValidatedUser(user)
		if err != nil {
			return err
		}
		if _, err := tx.Users().Update(ctx, validatedUser); err != nil {
			return err
		}

		promoted, err = tx.EmailAddresses().FindById(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return mapper.NewEmailAddressResultFromEntity(promoted), nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, cmd *command.VerifyEmailCommand) error {
	return s.verifier.VerifyCode(ctx, cmd.UserId, strings.ToLower(cmd.Email), cmd.Code)
}

func (s *AccountService) provisionThirdPartyUser(ctx context.Context, email string, profile *entities.ThirdPartyProfile) (*entities.User, error) {
	var user *entities.User
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		username, err := s.deriveUsername(ctx, tx, email)
		if err != nil {
			return err
		}

		newUser, err := entities.NewUser(username, email, "")
		if err != nil {
			return err
		}
		newUser.FirstName = profile.GivenName
		newUser.LastName = profile.FamilyName

		validatedUser, err := entities.NewValidatedUser(newUser)
		if err != nil {
			return err
		}

		user, err = tx.Users().Create(ctx, validatedUser)
		if err != nil {
			return err
		}

		address, err := entities.NewEmailAddress(user.Id, email, true)
		if err != nil {
			return err
		}
		created, err := tx.EmailAddresses().Create(ctx, address)
		if err != nil {
			return err
		}

		addressId := created.Id
		tx.AfterCommit(func() {
			s.verifier.ScheduleVerificationEmail(addressId)
		})
		return nil
	})
	if err != nil {
		// Two concurrent first logins for the same account: the loser of the
		// unique-index race reuses the winner's record.
		if errors.Is(err, repositories.ErrDuplicate) {
			existing, findErr := s.store.Users().FindByEmail(ctx, email)
			if findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return user, nil
}

// deriveUsername builds a username from the email local part, suffixed when
// taken.
func (s *AccountService) deriveUsername(ctx context.Context, tx repositories.Store, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	if base == "" {
		base = "user"
	}

	existing, err := tx.Users().FindByUsername(ctx, base)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return base, nil
	}

	return base + "_" + uuid.NewString()[:8], nil
}

// issueTokens mints the token pair and stamps last_login, the issuer's one
// persistent side effect.
func (s *AccountService) issueTokens(ctx context.Context, user *entities.User) (entities.TokenPair, error) {
	tokens, err := s.tokens.IssueTokenPair(user.Id.String())
	if err != nil {
		return entities.TokenPair{}, err
	}

	now := time.Now()
	if err := s.store.Users().UpdateLastLogin(ctx, user.Id, now); err != nil {
		// The tokens are already minted and valid; a stale timestamp is not
		// worth failing the login over.
		log.Printf("accounts: failed to update last_login for %s: %v", user.Id, err)
	} else {
		user.LastLogin = &now
	}

	return tokens, nil
}

func (s *AccountService) emailVerified(ctx context.Context, userId uuid.UUID) (bool, error) {
	primary, err := s.store.EmailAddresses().FindPrimary(ctx, userId)
	if err != nil {
		return false, err
	}
	return primary != nil && primary.IsVerified, nil
}
