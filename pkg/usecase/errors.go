package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrCaseNotFound = errors.New("case not found")

	// Validation errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCaseNumber = errors.New("case number must be a positive integer")

	// Provisioning errors
	ErrAlreadyProvisioned = errors.New("case is already provisioned")

	// Configuration errors
	ErrAssistantDisabled = errors.New("assistant is not configured")
	ErrStorageDisabled   = errors.New("attachment storage is not configured")
)

// Context keys for error values
const (
	FieldKey = "field"
	LineKey  = "line"
)

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
