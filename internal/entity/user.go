package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("usuário não encontrado")
	ErrUserAlreadyExists    = errors.New("usuário já cadastrado")
	ErrLicenseAlreadyExists = errors.New("licença já cadastrada para este e-mail")
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// License is provisioned by the legacy Hotmart webhook when a new customer buys access.
type License struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Plan          string    `json:"plan"`
	LicensedUntil time.Time `json:"licensed_until"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewLicense(name, email, phone string, days int, now time.Time) *License {
	return &License{
		ID:            uuid.New().String(),
		Name:          name,
		Email:         email,
		Phone:         phone,
		Plan:          "premium",
		LicensedUntil: now.AddDate(0, 0, days),
		CreatedAt:     now,
	}
}
