package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrTokenMismatch      = errors.New("refresh token mismatch")
	ErrOTPExpired         = errors.New("one-time code expired")
	ErrOTPConsumed        = errors.New("one-time code already used")
	ErrOTPMismatch        = errors.New("one-time code mismatch")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedType    = errors.New("unsupported file type")
)
