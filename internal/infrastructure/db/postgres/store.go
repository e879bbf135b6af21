package postgres

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"accounts-service/internal/domain/repositories"
)

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &EmailAddressModel{})
}

// Store is the gorm-backed repositories.Store. The zero-value afterCommit
// slice only exists on transaction-scoped stores; on the root store hooks
// run immediately because there is no pending write to wait for.
type Store struct {
	db          *gorm.DB
	users       repositories.UserRepository
	emails      repositories.EmailAddressRepository
	afterCommit *[]func()
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		users:  NewUserRepository(db),
		emails: NewEmailAddressRepository(db),
	}
}

func (s *Store) Users() repositories.UserRepository {
	return s.users
}

func (s *Store) EmailAddresses() repositories.EmailAddressRepository {
	return s.emails
}

func (s *Store) AfterCommit(fn func()) {
	if s.afterCommit != nil {
		*s.afterCommit = append(*s.afterCommit, fn)
		return
	}
	fn()
}

// Transact runs fn inside one database transaction. Hooks registered through
// AfterCommit fire only after the transaction commits; a rollback discards
// them. Nested calls join the enclosing transaction.
func (s *Store) Transact(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.afterCommit != nil {
		return fn(s)
	}

	var hooks []func()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{
			db:          tx,
			users:       NewUserRepository(tx),
			emails:      NewEmailAddressRepository(tx),
			afterCommit: &hooks,
		}
		return fn(txStore)
	})
	if err != nil {
		return err
	}

	for _, hook := range hooks {
		hook()
	}
	return nil
}
