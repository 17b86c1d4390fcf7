package auth

import "github.com/foliobooks/bookstore-backend/internal/customers"

// LoginRequest is the credentials payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the token pair plus the customer profile.
type LoginResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	Customer     customers.CustomerDTO `json:"customer"`
}
