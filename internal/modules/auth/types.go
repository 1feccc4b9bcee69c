package auth

import (
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// TokenTTL is how long a signed session token stays valid.
const TokenTTL = 7 * 24 * time.Hour

type registerDTO struct {
	DisplayName string `json:"displayName" binding:"required,min=1,max=64"`
	Email       string `json:"email"       binding:"required,email"`
	Password    string `json:"password"    binding:"required,min=8,max=72"`
}

type loginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}
