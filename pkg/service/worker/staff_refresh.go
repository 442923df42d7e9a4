package worker

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/service/slack"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// StaffRefreshWorker keeps the staff directory in sync with the Slack
// workspace members.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type StaffRefreshWorker struct {
	repo     interfaces.StaffRepository
	slack    slack.Service
	interval time.Duration
	domains  []string
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewStaffRefreshWorker creates a worker refreshing the staff directory
// every interval. Only members whose email belongs to one of domains are
// kept; an empty domains list keeps every member with an email.
func NewStaffRefreshWorker(repo interfaces.StaffRepository, slackSvc slack.Service, interval time.Duration, domains []string) *StaffRefreshWorker {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			normalized = append(normalized, strings.TrimPrefix(d, "@"))
		}
	}

	return &StaffRefreshWorker{
		repo:     repo,
		slack:    slackSvc,
		interval: interval,
		domains:  normalized,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop. The initial sync also runs in
// the background and does not block server startup.
func (w *StaffRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("Staff refresh worker starting",
		"interval", w.interval.String(),
		"domains", w.domains)

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *StaffRefreshWorker) Stop() {
	logging.Default().Info("Staff refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Staff refresh worker stopped")
}

func (w *StaffRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresh(ctx); err != nil {
		logging.Default().Error("Initial staff refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				logging.Default().Error("Staff refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Staff refresh worker context cancelled")
			return
		}
	}
}

func (w *StaffRefreshWorker) allowed(email string) bool {
	if email == "" {
		return false
	}
	if len(w.domains) == 0 {
		return true
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range w.domains {
		if domain == d {
			return true
		}
	}
	return false
}

// refresh replaces the directory (DeleteAll → SaveMany). A Slack API failure
// leaves the existing directory untouched.
func (w *StaffRefreshWorker) refresh(ctx context.Context) error {
	startTime := time.Now()

	users, err := w.slack.ListUsers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list Slack users")
	}

	staff := make([]*model.Staff, 0, len(users))
	for _, u := range users {
		if !w.allowed(u.Email) {
			continue
		}

		name := u.RealName
		if name == "" {
			name = u.Name
		}
		staff = append(staff, &model.Staff{
			Email:       strings.ToLower(u.Email),
			Name:        name,
			SlackUserID: u.ID,
			UpdatedAt:   startTime,
		})
	}

	if err := w.repo.DeleteAll(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete existing staff")
	}
	if err := w.repo.SaveMany(ctx, staff); err != nil {
		return goerr.Wrap(err, "failed to save staff", goerr.V("count", len(staff)))
	}

	logging.Default().Info("Staff refresh completed",
		"count", len(staff),
		"skipped", len(users)-len(staff),
		"duration", time.Since(startTime).String())

	return nil
}
