package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accounts-service/internal/domain/entities"
	"accounts-service/internal/domain/repositories"
)

type EmailAddressRepository struct {
	db *gorm.DB
}

func NewEmailAddressRepository(db *gorm.DB) repositories.EmailAddressRepository {
	return &EmailAddressRepository{db: db}
}

func (r *EmailAddressRepository) Create(ctx context.Context, address *entities.EmailAddress) (*entities.EmailAddress, error) {
	model := emailAddressModelFromEntity(address)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, repositories.ErrDuplicate
		}
		return nil, err
	}

	return r.FindById(ctx, address.Id)
}

func (r *EmailAddressRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.EmailAddress, error) {
	var model EmailAddressModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.toEntity(), nil
}

func (r *EmailAddressRepository) FindByUserAndEmail(ctx context.Context, userId uuid.UUID, email string) (*entities.EmailAddress, error) {
	var model EmailAddressModel
	err := r.db.WithContext(ctx).Where("user_id = ? AND email = ?", userId, email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.toEntity(), nil
}

func (r *EmailAddressRepository) FindPrimary(ctx context.Context, userId uuid.UUID) (*entities.EmailAddress, error) {
	var model EmailAddressModel
	err := r.db.WithContext(ctx).Where("user_id = ? AND is_primary = ?", userId, true).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.toEntity(), nil
}

func (r *EmailAddressRepository) ListByUser(ctx context.Context, userId uuid.UUID) ([]*entities.EmailAddress, error) {
	var models []EmailAddressModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).Order("updated_at DESC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	addresses := make([]*entities.EmailAddress, 0, len(models))
	for i := range models {
		addresses = append(addresses, models[i].toEntity())
	}
	return addresses, nil
}

func (r *EmailAddressRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&EmailAddressModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_verified": true, "updated_at": time.Now()}).Error
}

func (r *EmailAddressRepository) SetPrimary(ctx context.Context, userId, id uuid.UUID) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&EmailAddressModel{}).
		Where("user_id = ? AND is_primary = ?", userId, true).
		Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&EmailAddressModel{}).
		Where("id = ? AND user_id = ?", id, userId).
		Updates(map[string]interface{}{"is_primary": true, "updated_at": now}).Error
}

func (r *EmailAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&EmailAddressModel{}, "id = ?", id).Error
}

func (r *EmailAddressRepository) DeleteByUser(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&EmailAddressModel{}, "user_id = ?", userId).Error
}

func emailAddressModelFromEntity(address *entities.EmailAddress) *EmailAddressModel {
	return &EmailAddressModel{
		Id:         address.Id,
		UserId:     address.UserId,
		Email:      address.Email,
		IsPrimary:  address.IsPrimary,
		IsVerified: address.IsVerified,
		CreatedAt:  address.CreatedAt,
		UpdatedAt:  address.UpdatedAt,
	}
}

func (m *EmailAddressModel) toEntity() *entities.EmailAddress {
	return &entities.EmailAddress{
		Id:         m.Id,
		UserId:     m.UserId,
		Email:      m.Email,
		IsPrimary:  m.IsPrimary,
		IsVerified: m.IsVerified,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
