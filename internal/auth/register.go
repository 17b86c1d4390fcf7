package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/internal/customers"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterRequest contains the payload for creating a customer account.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// RegisterService handles new-account creation.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*customers.CustomerDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*customers.CustomerDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created customers.CustomerDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := customers.NewRepository(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check customer email")
		}

		customer, err := repo.Create(ctx, customers.CreateCustomerDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
		}
		created = customers.FromModel(customer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
