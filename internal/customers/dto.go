package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
)

// CreateCustomerDTO carries the fields required to insert a customer.
type CreateCustomerDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// ToModel converts the DTO into the persistence model.
func (d CreateCustomerDTO) ToModel() *models.Customer {
	return &models.Customer{
		ID:           uuid.New(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		IsActive:     true,
	}
}

// CustomerDTO is the public projection of a customer account.
type CustomerDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel maps the persistence model to its public projection.
func FromModel(customer *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:          customer.ID,
		Email:       customer.Email,
		FirstName:   customer.FirstName,
		LastName:    customer.LastName,
		LastLoginAt: customer.LastLoginAt,
		CreatedAt:   customer.CreatedAt,
	}
}
