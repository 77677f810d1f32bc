package application

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectPassword    = errors.New("incorrect current password")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrStorageUnavailable   = errors.New("object storage not configured")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrForbidden            = errors.New("not allowed to manage this account")
)
