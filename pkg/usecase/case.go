package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/model/auth"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"github.com/secmon-lab/intake/pkg/service/slack"
	"github.com/secmon-lab/intake/pkg/utils/async"
	"golang.org/x/text/width"
)

type CaseUseCase struct {
	repo       interfaces.Repository
	dispatcher *DispatchUseCase
	notifier   slack.Notifier
	async      async.Func
}

func NewCaseUseCase(repo interfaces.Repository, dispatcher *DispatchUseCase, notifier slack.Notifier, fn async.Func) *CaseUseCase {
	if fn == nil {
		fn = async.Dispatch
	}
	return &CaseUseCase{
		repo:       repo,
		dispatcher: dispatcher,
		notifier:   notifier,
		async:      fn,
	}
}

// CreateCaseInput is the intake form. ManualCaseNumber is the optional
// override typed by staff when backfilling paper records.
type CreateCaseInput struct {
	Name             string   `json:"name"`
	ConsulteeType    string   `json:"consulteeType"`
	Relationship     string   `json:"relationship"`
	Prefecture       string   `json:"prefecture"`
	SchoolType       string   `json:"schoolType"`
	SchoolStage      string   `json:"schoolStage"`
	Grade            string   `json:"grade"`
	SchoolName       string   `json:"schoolName"`
	Summary          string   `json:"summary"`
	Detail           string   `json:"detail"`
	AssignedTo       []string `json:"assignedTo"`
	ManualCaseNumber string   `json:"manualCaseNumber"`
}

// ParseCaseNumber parses a manually entered case number. Full-width digits
// are accepted. An empty string means automatic numbering and yields nil.
func ParseCaseNumber(s string) (*int64, error) {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return nil, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return nil, goerr.Wrap(ErrInvalidCaseNumber, "invalid manual case number", goerr.V("input", s))
	}
	return &n, nil
}

func (in *CreateCaseInput) build() (*model.Case, *int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, goerr.Wrap(ErrInvalidInput, "name is required", goerr.V(FieldKey, "name"))
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return nil, nil, goerr.Wrap(ErrInvalidInput, "summary is required", goerr.V(FieldKey, "summary"))
	}

	consultee, err := types.ParseConsulteeType(in.ConsulteeType)
	if err != nil {
		return nil, nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "consulteeType"))
	}

	manual, err := ParseCaseNumber(in.ManualCaseNumber)
	if err != nil {
		return nil, nil, err
	}

	c := &model.Case{
		Name:          name,
		ConsulteeType: consultee,
		Relationship:  strings.TrimSpace(in.Relationship),
		Prefecture:    strings.TrimSpace(in.Prefecture),
		SchoolType:    types.SchoolType(strings.TrimSpace(in.SchoolType)),
		SchoolStage:   types.SchoolStage(strings.TrimSpace(in.SchoolStage)),
		Grade:         strings.TrimSpace(in.Grade),
		SchoolName:    strings.TrimSpace(in.SchoolName),
		Summary:       summary,
		Detail:        in.Detail,
		Status:        types.CaseStatusNew,
		AssignedTo:    normalizeEmails(in.AssignedTo),
		Schedule: model.Schedule{
			MeetingStatus: types.MeetingStatusUntouched,
			MeetingType:   types.MeetingTypeOnline,
		},
	}
	return c, manual, nil
}

// CreateCase validates the form, then stores the case inside the number
// allocation transaction. The Slack announcement and the creation side
// effects run asynchronously and never fail the request.
func (uc *CaseUseCase) CreateCase(ctx context.Context, input CreateCaseInput) (*model.Case, error) {
	c, manual, err := input.build()
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.Case().Create(ctx, c, manual)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("manual_number", manual))
	}

	snapshot := created.Clone()
	if uc.notifier != nil {
		uc.async(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyNewCase(ctx, snapshot)
		})
	}
	if uc.dispatcher != nil {
		uc.async(ctx, func(ctx context.Context) error {
			return uc.dispatcher.HandleCaseCreated(ctx, snapshot.ID)
		})
	}

	return created, nil
}

func (uc *CaseUseCase) GetCase(ctx context.Context, id model.CaseID) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, id))
	}
	return c, nil
}

// CaseFilter narrows ListCases. Mine restricts to cases assigned to the
// authenticated user and takes precedence over Assignee.
type CaseFilter struct {
	Status   string
	Assignee string
	Mine     bool
	Sort     string
	Limit    int
}

func (uc *CaseUseCase) ListCases(ctx context.Context, filter CaseFilter) ([]*model.Case, error) {
	var opts []interfaces.ListCaseOption

	if filter.Status != "" {
		status, err := types.ParseCaseStatus(filter.Status)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "status"))
		}
		opts = append(opts, interfaces.WithStatus(status))
	}

	assignee := strings.ToLower(strings.TrimSpace(filter.Assignee))
	if filter.Mine {
		user, err := auth.UserFromContext(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "mine filter requires an authenticated user")
		}
		assignee = strings.ToLower(user.Email)
	}
	if assignee != "" {
		opts = append(opts, interfaces.WithAssignee(assignee))
	}

	opts = append(opts, interfaces.WithSort(types.ParseCaseSortKey(filter.Sort)))
	if filter.Limit > 0 {
		opts = append(opts, interfaces.WithLimit(filter.Limit))
	}

	cases, err := uc.repo.Case().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}
	return cases, nil
}

func (uc *CaseUseCase) UpdateStatus(ctx context.Context, id model.CaseID, status string) (*model.Case, error) {
	st, err := types.ParseCaseStatus(status)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "status"))
	}
	return uc.update(ctx, id, &model.CaseUpdate{Status: &st})
}

// ToggleAssignee adds email to the assignees, or removes it when already
// assigned
func (uc *CaseUseCase) ToggleAssignee(ctx context.Context, id model.CaseID, email string) (*model.Case, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "email is required", goerr.V(FieldKey, "email"))
	}

	current, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	update := &model.CaseUpdate{}
	if current.IsAssigned(email) {
		update.RemoveAssignees = []string{email}
	} else {
		update.AddAssignees = []string{email}
	}
	return uc.update(ctx, id, update)
}

// AssignToMe adds the authenticated user to the assignees. It never
// unassigns.
func (uc *CaseUseCase) AssignToMe(ctx context.Context, id model.CaseID) (*model.Case, error) {
	user, err := auth.UserFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "assign requires an authenticated user")
	}
	email := strings.ToLower(user.Email)

	current, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsAssigned(email) {
		return current, nil
	}
	return uc.update(ctx, id, &model.CaseUpdate{AddAssignees: []string{email}})
}

// ScheduleInput replaces the interview schedule. A nil MeetingDate clears
// the date.
type ScheduleInput struct {
	MeetingStatus  string     `json:"meetingStatus"`
	MeetingType    string     `json:"meetingType"`
	MeetingDate    *time.Time `json:"meetingDate"`
	LocationOrURL  string     `json:"locationOrUrl"`
	AttendeeEmails []string   `json:"attendeeEmails"`
}

func (uc *CaseUseCase) UpdateSchedule(ctx context.Context, id model.CaseID, input ScheduleInput) (*model.Case, error) {
	status, err := types.ParseMeetingStatus(input.MeetingStatus)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "meetingStatus"))
	}
	mtype, err := types.ParseMeetingType(input.MeetingType)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "meetingType"))
	}

	location := strings.TrimSpace(input.LocationOrURL)
	attendees := normalizeEmails(input.AttendeeEmails)
	update := &model.CaseUpdate{
		MeetingStatus:  &status,
		MeetingType:    &mtype,
		LocationOrURL:  &location,
		AttendeeEmails: &attendees,
	}
	if input.MeetingDate != nil {
		d := input.MeetingDate.UTC()
		update.MeetingDate = &d
	} else {
		update.ClearMeetingDate = true
	}

	return uc.update(ctx, id, update)
}

// UpdateCaseInput edits the free-text attributes. Nil fields are left as
// they are.
type UpdateCaseInput struct {
	Name          *string `json:"name"`
	ConsulteeType *string `json:"consulteeType"`
	Relationship  *string `json:"relationship"`
	Prefecture    *string `json:"prefecture"`
	SchoolType    *string `json:"schoolType"`
	SchoolStage   *string `json:"schoolStage"`
	Grade         *string `json:"grade"`
	SchoolName    *string `json:"schoolName"`
	Summary       *string `json:"summary"`
	Detail        *string `json:"detail"`
}

func (uc *CaseUseCase) UpdateCase(ctx context.Context, id model.CaseID, input UpdateCaseInput) (*model.Case, error) {
	update := &model.CaseUpdate{
		Relationship: trimmed(input.Relationship),
		Prefecture:   trimmed(input.Prefecture),
		Grade:        trimmed(input.Grade),
		SchoolName:   trimmed(input.SchoolName),
		Detail:       input.Detail,
	}

	if input.Name != nil {
		if update.Name = trimmed(input.Name); *update.Name == "" {
			return nil, goerr.Wrap(ErrInvalidInput, "name cannot be empty", goerr.V(FieldKey, "name"))
		}
	}
	if input.Summary != nil {
		if update.Summary = trimmed(input.Summary); *update.Summary == "" {
			return nil, goerr.Wrap(ErrInvalidInput, "summary cannot be empty", goerr.V(FieldKey, "summary"))
		}
	}
	if input.ConsulteeType != nil {
		t, err := types.ParseConsulteeType(*input.ConsulteeType)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(FieldKey, "consulteeType"))
		}
		update.ConsulteeType = &t
	}
	if input.SchoolType != nil {
		t := types.SchoolType(strings.TrimSpace(*input.SchoolType))
		update.SchoolType = &t
	}
	if input.SchoolStage != nil {
		s := types.SchoolStage(strings.TrimSpace(*input.SchoolStage))
		update.SchoolStage = &s
	}

	if update.IsEmpty() {
		return uc.GetCase(ctx, id)
	}
	return uc.update(ctx, id, update)
}

// update applies a partial update and hands the before/after pair to the
// dispatcher
func (uc *CaseUseCase) update(ctx context.Context, id model.CaseID, update *model.CaseUpdate) (*model.Case, error) {
	change, err := uc.repo.Case().Update(ctx, id, update)
	if errors.Is(err, model.ErrNotFound) {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V(model.CaseIDKey, id))
	}

	if uc.dispatcher != nil {
		uc.async(ctx, func(ctx context.Context) error {
			return uc.dispatcher.HandleCaseUpdated(ctx, change)
		})
	}
	return change.After, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func normalizeEmails(emails []string) []string {
	result := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		result = append(result, e)
	}
	return result
}
