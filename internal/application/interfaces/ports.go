package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"accounts-service/internal/domain/entities"
)

// ErrCacheMiss is returned by CodeCache.Get when a key does not exist,
// either because it was never written or because its TTL elapsed.
var ErrCacheMiss = errors.New("cache miss")

// CodeCache is the TTL key-value store holding ephemeral verification codes.
type CodeCache interface {
	// SetIfAbsent atomically writes value unless the key already holds a live
	// one. Reports whether the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns ErrCacheMiss when no live value exists.
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Mailer renders and sends the verification email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, recipientEmail, recipientName, code string) error
}

// TaskQueue runs jobs outside the request/response cycle, best-effort.
type TaskQueue interface {
	Enqueue(job func(context.Context))
}

// TokenIssuer mints and validates the stateless token pair.
type TokenIssuer interface {
	IssueTokenPair(userId string) (entities.TokenPair, error)
	RefreshAccessToken(refreshToken string) (string, error)
	ParseAccessToken(accessToken string) (uuid.UUID, error)
}

// ProfileProvider exchanges an opaque third-party access token for a profile.
type ProfileProvider interface {
	FetchProfile(ctx context.Context, accessToken string) (*entities.ThirdPartyProfile, error)
}
