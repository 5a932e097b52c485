package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("User already exists with this email")
	ErrNameRequired       = errors.New("user name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidCredentials = errors.New("Invalid email or password")
)
