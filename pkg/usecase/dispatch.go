package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"github.com/secmon-lab/intake/pkg/service/gcal"
	"github.com/secmon-lab/intake/pkg/service/gdocs"
	"github.com/secmon-lab/intake/pkg/utils/errutil"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// DispatchUseCase runs the side effects of case creation and update: the
// companion document and the calendar block. Both handlers tolerate
// duplicate delivery.
type DispatchUseCase struct {
	repo     interfaces.Repository
	docs     gdocs.Service
	calendar gcal.Service
	location *time.Location

	staleAfter    time.Duration
	calendarLocks sync.Map
}

// NewDispatchUseCase creates a dispatcher. docs and calendar may be nil; the
// corresponding side effect is then skipped.
func NewDispatchUseCase(repo interfaces.Repository, docs gdocs.Service, calendar gcal.Service, loc *time.Location) *DispatchUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &DispatchUseCase{
		repo:     repo,
		docs:     docs,
		calendar: calendar,
		location: loc,

		staleAfter: DefaultStaleProvisioningAfter,
	}
}

// DefaultStaleProvisioningAfter is how long a case may stay in provisioning
// before a redelivered creation event takes it over.
const DefaultStaleProvisioningAfter = 10 * time.Minute

// HandleCaseCreated provisions the companion document of a new case. The
// claim on systemStatus makes a repeated delivery a no-op, except for a case
// left in provisioning for longer than the stale threshold, which is claimed
// again.
func (uc *DispatchUseCase) HandleCaseCreated(ctx context.Context, id model.CaseID) error {
	c, err := uc.repo.Case().ClaimProvisioning(ctx, id, types.SystemStatusUnprovisioned)
	if errors.Is(err, model.ErrProvisioningClaimed) {
		c, err = uc.reclaimStale(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			logging.From(ctx).Info("case already claimed for provisioning, skipping", "case_id", id)
			return nil
		}
	}
	if err != nil {
		return goerr.Wrap(err, "failed to claim provisioning", goerr.V(model.CaseIDKey, id))
	}

	_, err = uc.provision(ctx, c)
	return err
}

// reclaimStale claims a case stuck in provisioning past the stale threshold.
// It returns nil when the case is terminal or still being provisioned.
func (uc *DispatchUseCase) reclaimStale(ctx context.Context, id model.CaseID) (*model.Case, error) {
	current, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read claimed case", goerr.V(model.CaseIDKey, id))
	}
	if current.SystemStatus != types.SystemStatusProvisioning {
		return nil, nil
	}
	age := time.Since(current.UpdatedAt)
	if age < uc.staleAfter {
		return nil, nil
	}

	logging.From(ctx).Warn("stale provisioning claim, provisioning again",
		"case_id", id,
		"case_number", current.CaseNumber,
		"claimed_at", current.UpdatedAt,
		"age", age.String())

	c, err := uc.repo.Case().ClaimProvisioning(ctx, id, types.SystemStatusProvisioning)
	if errors.Is(err, model.ErrProvisioningClaimed) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reclaim provisioning", goerr.V(model.CaseIDKey, id))
	}
	return c, nil
}

// RetryProvisioning re-runs provisioning of a failed or stalled case. A
// provisioned case is only redone when force is set. The returned case
// carries the new systemStatus, which may be provision_failed again.
func (uc *DispatchUseCase) RetryProvisioning(ctx context.Context, id model.CaseID, force bool) (*model.Case, error) {
	from := []types.SystemStatus{
		types.SystemStatusUnprovisioned,
		types.SystemStatusProvisioning,
		types.SystemStatusProvisionFailed,
	}
	if force {
		from = append(from, types.SystemStatusProvisioned)
	}

	c, err := uc.repo.Case().ClaimProvisioning(ctx, id, from...)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	case errors.Is(err, model.ErrProvisioningClaimed):
		return nil, goerr.Wrap(ErrAlreadyProvisioned, "retry refused", goerr.V(model.CaseIDKey, id))
	case err != nil:
		return nil, goerr.Wrap(err, "failed to claim provisioning", goerr.V(model.CaseIDKey, id))
	}

	return uc.provision(ctx, c)
}

// provision generates the document and writes the terminal status. A
// document failure is recorded on the case, not returned; the returned error
// is only about persisting the result.
func (uc *DispatchUseCase) provision(ctx context.Context, c *model.Case) (*model.Case, error) {
	var url string
	var provErr error
	if uc.docs != nil {
		url, provErr = uc.docs.CreateFromTemplate(ctx, model.NewCaseDocument(c, uc.location))
	}

	update := &model.CaseUpdate{}
	if provErr != nil {
		errutil.Handle(ctx, provErr, "failed to provision case document")
		status := types.SystemStatusProvisionFailed
		msg := provErr.Error()
		update.SystemStatus = &status
		update.SystemError = &msg
	} else {
		status := types.SystemStatusProvisioned
		empty := ""
		update.SystemStatus = &status
		update.SystemError = &empty
		update.DocumentURL = &url
	}

	change, err := uc.repo.Case().Update(ctx, c.ID, update)
	if err != nil {
		// the case stays in provisioning until the stale threshold passes or
		// an operator runs the provision command
		logging.From(ctx).Warn("case left in provisioning",
			"case_id", c.ID,
			"case_number", c.CaseNumber,
			"system_status", *update.SystemStatus,
			"document_url", url)
		return nil, goerr.Wrap(err, "failed to write provisioning result",
			goerr.V(model.CaseIDKey, c.ID),
			goerr.V("system_status", *update.SystemStatus))
	}

	logging.From(ctx).Info("case provisioned",
		"case_id", c.ID,
		"case_number", c.CaseNumber,
		"system_status", change.After.SystemStatus,
		"document_url", change.After.DocumentURL)

	return change.After, nil
}

// HandleCaseUpdated keeps the calendar block in sync with the meeting date
// and location. The change only triggers the sync; the event is built from
// the stored case so a redelivered or late change cannot insert a second
// event or restore an older schedule. Failures are logged and never
// returned.
func (uc *DispatchUseCase) HandleCaseUpdated(ctx context.Context, change *model.CaseChange) error {
	if uc.calendar == nil || change == nil || change.After == nil {
		return nil
	}
	if !change.ScheduleChanged() {
		return nil
	}
	id := change.After.ID

	unlock := uc.lockCase(id)
	defer unlock()

	current, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "calendar sync failed", goerr.V(model.CaseIDKey, id)),
			"failed to read case for calendar sync")
		return nil
	}
	if current.Schedule.MeetingDate == nil {
		return nil
	}

	ev := model.NewCalendarEvent(current)

	if current.CalendarEventID != "" {
		if err := uc.calendar.UpdateEvent(ctx, current.CalendarEventID, ev); err != nil {
			errutil.Handle(ctx, goerr.Wrap(err, "calendar sync failed",
				goerr.V(model.CaseIDKey, id),
				goerr.V("event_id", current.CalendarEventID)), "failed to update calendar event")
		}
		return nil
	}

	eventID, err := uc.calendar.InsertEvent(ctx, ev)
	if err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "calendar sync failed",
			goerr.V(model.CaseIDKey, id)), "failed to insert calendar event")
		return nil
	}

	if _, err := uc.repo.Case().Update(ctx, id, &model.CaseUpdate{CalendarEventID: &eventID}); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to save calendar event ID",
			goerr.V(model.CaseIDKey, id),
			goerr.V("event_id", eventID)), "calendar event created but not linked")
	}
	return nil
}

// lockCase serializes calendar sync of one case within this process
func (uc *DispatchUseCase) lockCase(id model.CaseID) func() {
	v, _ := uc.calendarLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
