package interfaces

import "github.com/secmon-lab/intake/pkg/domain/types"

// ListCaseOption is a functional option for filtering cases in List
type ListCaseOption func(*listCaseConfig)

type listCaseConfig struct {
	status   *types.CaseStatus
	assignee string
	sortKey  types.CaseSortKey
	limit    int
}

// WithStatus filters cases by status
func WithStatus(status types.CaseStatus) ListCaseOption {
	return func(c *listCaseConfig) {
		c.status = &status
	}
}

// WithAssignee filters cases whose AssignedTo contains email
func WithAssignee(email string) ListCaseOption {
	return func(c *listCaseConfig) {
		c.assignee = email
	}
}

// WithSort sets the ordering. Both keys sort descending.
func WithSort(key types.CaseSortKey) ListCaseOption {
	return func(c *listCaseConfig) {
		c.sortKey = key
	}
}

// WithLimit caps the number of returned cases. Zero means no limit.
func WithLimit(n int) ListCaseOption {
	return func(c *listCaseConfig) {
		c.limit = n
	}
}

// BuildListCaseConfig builds a listCaseConfig from options
func BuildListCaseConfig(opts ...ListCaseOption) *listCaseConfig {
	cfg := &listCaseConfig{sortKey: types.CaseSortByNumber}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listCaseConfig) Status() *types.CaseStatus {
	return c.status
}

// Assignee returns the assignee filter, or empty if not set
func (c *listCaseConfig) Assignee() string {
	return c.assignee
}

func (c *listCaseConfig) SortKey() types.CaseSortKey {
	return c.sortKey
}

func (c *listCaseConfig) Limit() int {
	return c.limit
}
