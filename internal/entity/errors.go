package entity

import "errors"

var (
	ErrLeadNotFound = errors.New("lead not found")
	// ErrEmailAlreadyExists signals a unique violation that slipped past an upsert.
	ErrEmailAlreadyExists = errors.New("email already exists")
)
