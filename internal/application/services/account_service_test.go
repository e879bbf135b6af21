package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"accounts-service/internal/application/command"
	"accounts-service/internal/application/interfaces"
	"accounts-service/internal/application/services"
	"accounts-service/internal/domain/entities"
	"accounts-service/internal/infrastructure"
	"accounts-service/internal/infrastructure/db/postgres"
)

// fakeProfiles maps provider tokens to profiles, standing in for Google.
type fakeProfiles struct {
	profiles map[string]*entities.ThirdPartyProfile
	calls    int
}

func (f *fakeProfiles) FetchProfile(_ context.Context, accessToken string) (*entities.ThirdPartyProfile, error) {
	f.calls++
	profile, ok := f.profiles[accessToken]
	if !ok {
		return nil, entities.ErrInvalidProviderToken
	}
	return profile, nil
}

type accountFixture struct {
	store    *postgres.Store
	mailer   *infrastructure.MemoryMailer
	tokens   interfaces.TokenIssuer
	profiles *fakeProfiles
	accounts interfaces.AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, postgres.AutoMigrate(db))
	store := postgres.NewStore(db)

	mr := miniredis.RunT(t)
	cache := infrastructure.NewRedisServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })

	mailer := infrastructure.NewMemoryMailer()
	verifier := services.NewVerificationService(store, cache, mailer, syncQueue{}, 15*time.Minute)

	tokens, err := infrastructure.NewJWTService(infrastructure.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	profiles := &fakeProfiles{profiles: map[string]*entities.ThirdPartyProfile{}}

	accounts, err := services.NewAccountService(store, tokens, verifier, profiles)
	require.NoError(t, err)

	return &accountFixture{
		store:    store,
		mailer:   mailer,
		tokens:   tokens,
		profiles: profiles,
		accounts: accounts,
	}
}

func signupCommand(username, email string) *command.SignupCommand {
	return &command.SignupCommand{
		Username:        username,
		Email:           email,
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
	}
}

func (f *accountFixture) signup(t *testing.T, username, email string) *command.SignupCommandResult {
	t.Helper()
	result, err := f.accounts.SignupWithEmail(context.Background(), signupCommand(username, email))
	require.NoError(t, err)
	return result
}

func TestSignupWithEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	result := f.signup(t, "alice", "Alice@Example.com")

	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.False(t, result.User.EmailVerified)
	assert.NotNil(t, result.User.LastLogin)

	user, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)

	primary, err := f.store.EmailAddresses().FindPrimary(ctx, user.Id)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.False(t, primary.IsVerified)

	// The after-commit hook dispatched exactly one verification email.
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].Recipient)
}

func TestSignupWithEmail_PasswordMismatch(t *testing.T) {
	f := newAccountFixture(t)

	cmd := signupCommand("alice", "alice@example.com")
	cmd.ConfirmPassword = "different"

	_, err := f.accounts.SignupWithEmail(context.Background(), cmd)
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "confirm_password")
}

func TestSignupWithEmail_DuplicateEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	_, err := f.accounts.SignupWithEmail(ctx, signupCommand("alice2", "alice@example.com"))
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "A user with this email address already exists.", vErr.Fields["email"])

	// No second user or email was produced by the failed attempt.
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestSignupWithEmail_DuplicateUsername(t *testing.T) {
	f := newAccountFixture(t)
	f.signup(t, "alice", "alice@example.com")

	_, err := f.accounts.SignupWithEmail(context.Background(), signupCommand("alice", "alice2@example.com"))
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "A user with this username already exists.", vErr.Fields["username"])
}

func TestLoginWithEmailPassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	result, err := f.accounts.LoginWithEmailPassword(ctx, &command.LoginCommand{
		Email:    "ALICE@example.com",
		Password: "Passw0rd!",
		Remember: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.Access)
	assert.True(t, result.Remember)
	assert.Equal(t, "alice", result.User.Username)

	// The refresh token round-trips through the issuer.
	access, err := f.accounts.RefreshAccessToken(result.Tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
}

func TestLoginWithEmailPassword_GenericFailures(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	// Wrong password and unknown email fail identically.
	_, err := f.accounts.LoginWithEmailPassword(ctx, &command.LoginCommand{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = f.accounts.LoginWithEmailPassword(ctx, &command.LoginCommand{
		Email:    "nobody@example.com",
		Password: "Passw0rd!",
	})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestLoginWithGoogle_ProvisionsThenReuses(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.profiles.profiles["goog-token"] = &entities.ThirdPartyProfile{
		Email:      "Carol@Example.com",
		GivenName:  "Carol",
		FamilyName: "Jones",
	}

	result, err := f.accounts.LoginWithGoogle(ctx, &command.GoogleLoginCommand{AccessToken: "goog-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.Access)

	user, err := f.store.Users().FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, "Carol", user.FirstName)
	assert.Equal(t, "Jones", user.LastName)

	// No password was set, so password login is impossible.
	_, err = f.accounts.LoginWithEmailPassword(ctx, &command.LoginCommand{
		Email:    "carol@example.com",
		Password: "",
	})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	// Provisioning also sent a verification email for the primary address.
	assert.Len(t, f.mailer.Sent(), 1)

	// Second login reuses the record instead of provisioning again.
	_, err = f.accounts.LoginWithGoogle(ctx, &command.GoogleLoginCommand{AccessToken: "goog-token"})
	require.NoError(t, err)

	again, err := f.store.Users().FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.Id, again.Id)
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestLoginWithGoogle_UsernameCollision(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "carol", "carol@other.com")
	f.profiles.profiles["goog-token"] = &entities.ThirdPartyProfile{Email: "carol@example.com"}

	_, err := f.accounts.LoginWithGoogle(ctx, &command.GoogleLoginCommand{AccessToken: "goog-token"})
	require.NoError(t, err)

	user, err := f.store.Users().FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, "carol", user.Username)
	assert.Contains(t, user.Username, "carol_")
}

func TestLoginWithGoogle_BadToken(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.accounts.LoginWithGoogle(context.Background(), &command.GoogleLoginCommand{AccessToken: "nope"})
	assert.ErrorIs(t, err, entities.ErrInvalidProviderToken)
}

func TestGetUser_ReflectsVerification(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	user, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	result, err := f.accounts.GetUser(ctx, user.Id)
	require.NoError(t, err)
	assert.False(t, result.EmailVerified)

	code := f.mailer.Sent()[0].Code
	require.NoError(t, f.accounts.VerifyEmail(ctx, &command.VerifyEmailCommand{
		UserId: user.Id,
		Email:  "alice@example.com",
		Code:   code,
	}))

	result, err = f.accounts.GetUser(ctx, user.Id)
	require.NoError(t, err)
	assert.True(t, result.EmailVerified)
}

func TestGetUser_NotFound(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.accounts.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestUpdateUser_PartialAndUniqueness(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")
	f.signup(t, "bob", "bob@example.com")

	alice, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	firstName := "Alice"
	result, err := f.accounts.UpdateUser(ctx, &command.UpdateUserCommand{
		UserId:    alice.Id,
		FirstName: &firstName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", result.FirstName)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "alice@example.com", result.Email)

	taken := "bob"
	_, err = f.accounts.UpdateUser(ctx, &command.UpdateUserCommand{
		UserId:   alice.Id,
		Username: &taken,
	})
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "username")

	takenEmail := "BOB@example.com"
	_, err = f.accounts.UpdateUser(ctx, &command.UpdateUserCommand{
		UserId: alice.Id,
		Email:  &takenEmail,
	})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "email")
}

func TestDeleteUser(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	user, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	code := f.mailer.Sent()[0].Code

	require.NoError(t, f.accounts.DeleteUser(ctx, user.Id))

	gone, err := f.store.Users().FindById(ctx, user.Id)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, f.accounts.DeleteUser(ctx, user.Id), entities.ErrNotFound)

	// The addresses are gone with the user, so a leftover access token
	// cannot verify anything.
	addresses, err := f.store.EmailAddresses().ListByUser(ctx, user.Id)
	require.NoError(t, err)
	assert.Empty(t, addresses)

	err = f.accounts.VerifyEmail(ctx, &command.VerifyEmailCommand{
		UserId: user.Id,
		Email:  "alice@example.com",
		Code:   code,
	})
	assert.ErrorIs(t, err, entities.ErrInvalidEmail)
}

func TestDeleteUser_FreesEmailAndUsername(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	user, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, f.accounts.DeleteUser(ctx, user.Id))

	// The same identity can register again from scratch.
	result := f.signup(t, "alice", "alice@example.com")
	assert.Equal(t, "alice", result.User.Username)
	assert.False(t, result.User.EmailVerified)

	recreated, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, recreated)
	assert.NotEqual(t, user.Id, recreated.Id)
}

func TestAddEmailAddress(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")

	user, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	result, err := f.accounts.AddEmailAddress(ctx, &command.AddEmailAddressCommand{
		UserId: user.Id,
		Email:  "Alice.Work@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice.work@example.com", result.Email)
	assert.False(t, result.IsPrimary)
	assert.False(t, result.IsVerified)

	// Signup sent one email, the new address one more.
	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "alice.work@example.com", sent[1].Recipient)

	_, err = f.accounts.AddEmailAddress(ctx, &command.AddEmailAddressCommand{
		UserId: user.Id,
		Email:  "alice.work@example.com",
	})
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "email")
}

func TestDeleteEmailAddress_Rules(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")
	f.signup(t, "bob", "bob@example.com")

	alice, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	bob, err := f.store.Users().FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)

	secondary, err := f.accounts.AddEmailAddress(ctx, &command.AddEmailAddressCommand{
		UserId: alice.Id,
		Email:  "alice.work@example.com",
	})
	require.NoError(t, err)

	// Only the owner may delete.
	err = f.accounts.DeleteEmailAddress(ctx, bob.Id, secondary.Id)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	// The primary address cannot be deleted.
	primary, err := f.store.EmailAddresses().FindPrimary(ctx, alice.Id)
	require.NoError(t, err)
	err = f.accounts.DeleteEmailAddress(ctx, alice.Id, primary.Id)
	var vErr *entities.ValidationError
	require.ErrorAs(t, err, &vErr)

	require.NoError(t, f.accounts.DeleteEmailAddress(ctx, alice.Id, secondary.Id))
	assert.ErrorIs(t, f.accounts.DeleteEmailAddress(ctx, alice.Id, secondary.Id), entities.ErrNotFound)
}

func TestSetPrimaryEmailAddress(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com")
	f.signup(t, "bob", "bob@example.com")

	alice, err := f.store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	bob, err := f.store.Users().FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)

	secondary, err := f.accounts.AddEmailAddress(ctx, &command.AddEmailAddressCommand{
		UserId: alice.Id,
		Email:  "alice.work@example.com",
	})
	require.NoError(t, err)

	// Only the owner may promote.
	_, err = f.accounts.SetPrimaryEmailAddress(ctx, bob.Id, secondary.Id)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	promoted, err := f.accounts.SetPrimaryEmailAddress(ctx, alice.Id, secondary.Id)
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary)

	// The old primary was demoted and the user's email field synced.
	addresses, err := f.store.EmailAddresses().ListByUser(ctx, alice.Id)
	require.NoError(t, err)
	primaries := 0
	for _, a := range addresses {
		if a.IsPrimary {
			primaries++
			assert.Equal(t, "alice.work@example.com", a.Email)
		}
	}
	assert.Equal(t, 1, primaries)

	reloaded, err := f.store.Users().FindById(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice.work@example.com", reloaded.Email)
}
