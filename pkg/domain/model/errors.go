package model

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrAllocation is returned when a case number could not be assigned.
	// Nothing is persisted when it occurs.
	ErrAllocation = goerr.New("case number allocation failed")

	// ErrCounterNotFound means the counter record has not been provisioned.
	// It is always wrapped by ErrAllocation.
	ErrCounterNotFound = goerr.New("case counter is not initialized")

	// ErrProvisioningClaimed is returned by ClaimProvisioning when another
	// delivery already owns the case
	ErrProvisioningClaimed = goerr.New("provisioning already claimed")
)

// Context keys for error values
const (
	CaseIDKey     = "case_id"
	CaseNumberKey = "case_number"
)

var (
	// ErrNotFound is wrapped by every repository backend for missing records
	ErrNotFound = goerr.New("not found")

	// ErrCounterExists is returned by InitCounter when the counter is already
	// provisioned and force was not requested
	ErrCounterExists = goerr.New("case counter already exists")
)

// NewAllocationError wraps cause so that errors.Is matches both
// ErrAllocation and cause.
func NewAllocationError(cause error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(fmt.Errorf("%w: %w", ErrAllocation, cause), msg, opts...)
}
