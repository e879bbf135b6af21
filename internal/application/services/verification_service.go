package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"accounts-service/internal/application/interfaces"
	"accounts-service/internal/domain/entities"
	"accounts-service/internal/domain/repositories"
)

const verificationCodeLength = 64

const verificationCodeCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// VerificationService owns the email-verification state machine:
//
//	Unverified+NoCode -> (send) -> Unverified+CodePending -> (correct code) -> Verified
//
// A pending code that expires before verification loops back to a fresh code
// on the next attempt. Verified is terminal.
type VerificationService struct {
	store   repositories.Store
	cache   interfaces.CodeCache
	mailer  interfaces.Mailer
	queue   interfaces.TaskQueue
	codeTTL time.Duration
}

func NewVerificationService(
	store repositories.Store,
	cache interfaces.CodeCache,
	mailer interfaces.Mailer,
	queue interfaces.TaskQueue,
	codeTTL time.Duration,
) *VerificationService {
	return &VerificationService{
		store:   store,
		cache:   cache,
		mailer:  mailer,
		queue:   queue,
		codeTTL: codeTTL,
	}
}

// ShouldSendVerificationEmail reports whether a verification email is due:
// the address is unverified and no unexpired code is cached for it. It has
// no side effects.
func (s *VerificationService) ShouldSendVerificationEmail(ctx context.Context, address *entities.EmailAddress) (bool, error) {
	if address.IsVerified {
		return false, nil
	}

	exists, err := s.cache.Exists(ctx, address.VerificationCacheKey())
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// SendVerificationEmail issues a fresh code and dispatches the verification
// email. It is a no-op for verified addresses and for addresses with a live
// code: the code is claimed with an atomic add-if-absent write, so two
// concurrent sends inside the TTL window cannot both issue one.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, address *entities.EmailAddress) error {
	if address.IsVerified {
		return nil
	}

	code, err := generateVerificationCode()
	if err != nil {
		return err
	}

	claimed, err := s.cache.SetIfAbsent(ctx, address.VerificationCacheKey(), code, s.codeTTL)
	if err != nil {
		return err
	}
	if !claimed {
		// A live code already exists, the earlier email still applies.
		return nil
	}

	recipientName := ""
	user, err := s.store.Users().FindById(ctx, address.UserId)
	if err == nil && user != nil {
		recipientName = user.Username
	}

	if err := s.mailer.SendVerificationEmail(ctx, address.Email, recipientName, code); err != nil {
		// Drop the claimed code so a later attempt can issue a new one
		// instead of pointing at an email that never went out.
		if delErr := s.cache.Delete(ctx, address.VerificationCacheKey()); delErr != nil {
			log.Printf("verification: failed to drop unclaimed code for %s: %v", address.Id, delErr)
		}
		return err
	}

	return nil
}

// ScheduleVerificationEmail queues a verification-email dispatch for the
// address. The address is reloaded inside the job so the worker always sees
// committed state.
func (s *VerificationService) ScheduleVerificationEmail(addressId uuid.UUID) {
	s.queue.Enqueue(func(ctx context.Context) {
		address, err := s.store.EmailAddresses().FindById(ctx, addressId)
		if err != nil {
			log.Printf("verification: failed to load email address %s: %v", addressId, err)
			return
		}
		if address == nil {
			return
		}

		if err := s.SendVerificationEmail(ctx, address); err != nil {
			log.Printf("verification: failed to send email for %s: %v", addressId, err)
		}
	})
}

// VerifyCode validates a submitted code for one of the user's addresses.
//
//   - entities.ErrInvalidEmail: the email is not in the user's address set.
//   - entities.ErrCodeExpired: no cached code exists; a fresh one is
//     scheduled as a side effect so the user gets another attempt.
//   - entities.ErrCodeMismatch: the cached code differs; it stays valid for
//     further attempts until its TTL elapses.
//
// On success the cached code is deleted before the verified flag is
// persisted, so the same code can never be replayed.
func (s *VerificationService) VerifyCode(ctx context.Context, userId uuid.UUID, email, code string) error {
	address, err := s.store.EmailAddresses().FindByUserAndEmail(ctx, userId, email)
	if err != nil {
		return err
	}
	if address == nil {
		return entities.ErrInvalidEmail
	}

	cachedCode, err := s.cache.Get(ctx, address.VerificationCacheKey())
	if err != nil {
		if errors.Is(err, interfaces.ErrCacheMiss) {
			s.ScheduleVerificationEmail(address.Id)
			return entities.ErrCodeExpired
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(cachedCode), []byte(code)) != 1 {
		return entities.ErrCodeMismatch
	}

	if err := s.cache.Delete(ctx, address.VerificationCacheKey()); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	return s.store.EmailAddresses().MarkVerified(ctx, address.Id)
}

func generateVerificationCode() (string, error) {
	// Reject bytes beyond the largest multiple of the charset size so every
	// character is drawn with equal probability.
	const rejectAbove = 256 - 256%len(verificationCodeCharset)

	code := make([]byte, 0, verificationCodeLength)
	buf := make([]byte, verificationCodeLength)
	for len(code) < verificationCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			code = append(code, verificationCodeCharset[int(b)%len(verificationCodeCharset)])
			if len(code) == verificationCodeLength {
				break
			}
		}
	}
	return string(code), nil
}
