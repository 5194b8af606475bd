package types

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type LoginRequest struct {
	Username string `json:"username"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64), is.PrintableASCII),
	)
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.FullName, validation.Length(0, 255)),
	)
}

type PremiumRequest struct {
	IsPremium *bool `json:"is_premium"`
}

func (r PremiumRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsPremium, validation.NotNil),
	)
}
