package mapper

import (
	"accounts-service/internal/application/common"
	"accounts-service/internal/domain/entities"
)

func NewUserResultFromEntity(user *entities.User, emailVerified bool) *common.UserResult {
	if user == nil {
		return nil
	}

	return &common.UserResult{
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		DateJoined:    user.DateJoined,
		LastLogin:     user.LastLogin,
		EmailVerified: emailVerified,
	}
}

func NewEmailAddressResultFromEntity(address *entities.EmailAddress) *common.EmailAddressResult {
	if address == nil {
		return nil
	}

	return &common.EmailAddressResult{
		Id:         address.Id,
		Email:      address.Email,
		IsPrimary:  address.IsPrimary,
		IsVerified: address.IsVerified,
		CreatedAt:  address.CreatedAt,
		UpdatedAt:  address.UpdatedAt,
	}
}
