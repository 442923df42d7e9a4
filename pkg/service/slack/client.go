package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// client implements Service interface
type client struct {
	api *slack.Client
}

// New creates a new Slack service with the provided bot token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{api: slack.New(token)}, nil
}

// ListUsers returns the workspace members that can be staff: deleted users,
// bots, guests and members without a visible email are left out.
func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list Slack users")
	}

	return toStaffCandidates(users), nil
}

func toStaffCandidates(users []slack.User) []*User {
	result := make([]*User, 0, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot || u.IsRestricted || u.IsUltraRestricted {
			continue
		}
		if u.Profile.Email == "" {
			continue
		}

		realName := u.Profile.RealName
		if realName == "" {
			realName = u.RealName
		}
		if u.Profile.DisplayName != "" && realName == "" {
			realName = u.Profile.DisplayName
		}

		result = append(result, &User{
			ID:       u.ID,
			Name:     u.Name,
			RealName: realName,
			Email:    u.Profile.Email,
		})
	}
	return result
}
