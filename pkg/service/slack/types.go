package slack

import (
	"context"

	"github.com/secmon-lab/intake/pkg/domain/model"
)

// Service provides interface to the Slack Web API
type Service interface {
	// ListUsers returns the members eligible for the staff directory
	ListUsers(ctx context.Context) ([]*User, error)
}

// Notifier posts case events to the team channel
type Notifier interface {
	// NotifyNewCase announces a newly registered case
	NotifyNewCase(ctx context.Context, c *model.Case) error
}

// User represents a Slack user
type User struct {
	ID       string
	Name     string
	RealName string
	Email    string
}
