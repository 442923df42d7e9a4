package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/repository/memory"
	"github.com/secmon-lab/intake/pkg/service/slack"
	"github.com/secmon-lab/intake/pkg/service/worker"
)

type mockSlackService struct {
	mu     sync.Mutex
	users  []*slack.User
	err    error
	called int
}

func (m *mockSlackService) set(users []*slack.User, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
	m.err = err
}

func (m *mockSlackService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

func (m *mockSlackService) ListUsers(ctx context.Context) ([]*slack.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++

	if m.err != nil {
		return nil, m.err
	}
	result := make([]*slack.User, len(m.users))
	for i, u := range m.users {
		userCopy := *u
		result[i] = &userCopy
	}
	return result, nil
}

var members = []*slack.User{
	{ID: "U1", Name: "alice", RealName: "Alice Smith", Email: "Alice@Example.com"},
	{ID: "U2", Name: "bob", Email: "bob@example.com"},
	{ID: "U3", Name: "guest", RealName: "Guest", Email: "guest@other.org"},
	{ID: "U4", Name: "noemail"},
}

func TestStaffRefreshWorker_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps members of allowed domains", func(t *testing.T) {
		repo := memory.New()
		svc := &mockSlackService{}
		svc.set(members, nil)

		w := worker.NewStaffRefreshWorker(repo.Staff(), svc, time.Hour, []string{"@example.com"})
		gt.NoError(t, w.RefreshForTest(ctx)).Required()

		staff, err := repo.Staff().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, staff).Length(2).Required()
		gt.Value(t, staff[0].Email).Equal("alice@example.com")
		gt.Value(t, staff[0].Name).Equal("Alice Smith")
		gt.Value(t, staff[0].SlackUserID).Equal("U1")
		gt.Value(t, staff[1].Name).Equal("bob")
	})

	t.Run("no domain keeps every member with email", func(t *testing.T) {
		repo := memory.New()
		svc := &mockSlackService{}
		svc.set(members, nil)

		w := worker.NewStaffRefreshWorker(repo.Staff(), svc, time.Hour, nil)
		gt.NoError(t, w.RefreshForTest(ctx)).Required()

		staff, err := repo.Staff().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, staff).Length(3)
	})

	t.Run("replaces departed members", func(t *testing.T) {
		repo := memory.New()
		svc := &mockSlackService{}
		svc.set(members, nil)

		w := worker.NewStaffRefreshWorker(repo.Staff(), svc, time.Hour, []string{"example.com"})
		gt.NoError(t, w.RefreshForTest(ctx)).Required()

		svc.set(members[1:2], nil)
		gt.NoError(t, w.RefreshForTest(ctx)).Required()

		staff, err := repo.Staff().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, staff).Length(1).Required()
		gt.Value(t, staff[0].Email).Equal("bob@example.com")
	})

	t.Run("API failure keeps existing directory", func(t *testing.T) {
		repo := memory.New()
		svc := &mockSlackService{}
		svc.set(members, nil)

		w := worker.NewStaffRefreshWorker(repo.Staff(), svc, time.Hour, []string{"example.com"})
		gt.NoError(t, w.RefreshForTest(ctx)).Required()

		svc.set(nil, errors.New("rate limited"))
		gt.Error(t, w.RefreshForTest(ctx))

		staff, err := repo.Staff().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, staff).Length(2)
	})
}

func TestStaffRefreshWorker_StartStop(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := &mockSlackService{}
	svc.set(members, nil)

	w := worker.NewStaffRefreshWorker(repo.Staff(), svc, 20*time.Millisecond, []string{"example.com"})
	gt.NoError(t, w.Start(ctx)).Required()

	deadline := time.Now().Add(2 * time.Second)
	for svc.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	w.Stop()

	gt.Bool(t, svc.calls() >= 2).True()

	staff, err := repo.Staff().GetByEmail(ctx, "bob@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, staff).NotNil()
}
