package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"github.com/secmon-lab/intake/pkg/repository/memory"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/async"
)

// createRaw stores a case without running any side effect
func createRaw(t *testing.T, repo *memory.Memory, c *model.Case) *model.Case {
	t.Helper()
	created, err := repo.Case().Create(context.Background(), c, nil)
	gt.NoError(t, err).Required()
	return created
}

func TestDispatchUseCase_HandleCaseCreated(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	t.Run("document is generated from the case", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(6))
		docs := &mockDocs{}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, jst)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{
			Name:          "鈴木",
			ConsulteeType: types.ConsulteeAdult,
			Relationship:  "母",
			Prefecture:    "大阪府",
			SchoolType:    types.SchoolTypePrivate,
			SchoolStage:   types.SchoolStageMiddle,
			Grade:         "2",
			Summary:       "不登校",
		})

		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()

		gt.Array(t, docs.created).Length(1).Required()
		doc := docs.created[0]
		gt.Value(t, doc.Name).Equal("0007_鈴木")

		values := map[string]string{}
		for _, p := range doc.Placeholders {
			values[p.Key] = p.Value
		}
		gt.Value(t, values["{{client_attr}}"]).Equal("母 (子: 中学2年生)")
		gt.Value(t, values["{{client_detail}}"]).Equal("大阪府・私立")
		gt.Value(t, values["{{summary}}"]).Equal("不登校")

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioned)
		gt.Value(t, got.DocumentURL).Equal("https://docs.google.com/document/d/doc-1/edit")
		gt.Value(t, got.SystemError).Equal("")
	})

	t.Run("duplicate delivery provisions once", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		docs := &mockDocs{}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, jst)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})

		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.Number(t, docs.createCount()).Equal(1)
	})

	t.Run("failure ends in a terminal failed status", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		docs := &mockDocs{
			createFn: func(ctx context.Context, doc *model.CaseDocument) (string, error) {
				return "", errors.New("template not found")
			},
		}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, jst)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisionFailed)
		gt.String(t, got.SystemError).Contains("template not found")
		gt.Value(t, got.DocumentURL).Equal("")

		// terminal: another delivery does not retry
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.Number(t, docs.createCount()).Equal(1)
	})

	t.Run("without a document service the case is still terminal", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		dispatcher := usecase.NewDispatchUseCase(repo, nil, nil, jst)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioned)
		gt.Value(t, got.DocumentURL).Equal("")
	})

	t.Run("fresh provisioning claim is left alone", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		docs := &mockDocs{}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, jst)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		_, err := repo.Case().ClaimProvisioning(ctx, c.ID, types.SystemStatusUnprovisioned)
		gt.NoError(t, err).Required()

		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.Number(t, docs.createCount()).Equal(0)

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioning)
	})

	t.Run("stale provisioning claim is taken over", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		docs := &mockDocs{}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, jst)
		usecase.SetStaleProvisioningAfter(dispatcher, 0)
		ctx := context.Background()

		// a worker claimed the case and died before writing the result
		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		_, err := repo.Case().ClaimProvisioning(ctx, c.ID, types.SystemStatusUnprovisioned)
		gt.NoError(t, err).Required()

		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.Number(t, docs.createCount()).Equal(1)

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioned)

		// terminal now, so the threshold no longer matters
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()
		gt.Number(t, docs.createCount()).Equal(1)
	})

	t.Run("unknown case", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		dispatcher := usecase.NewDispatchUseCase(repo, &mockDocs{}, nil, jst)
		err := dispatcher.HandleCaseCreated(context.Background(), "missing")
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})
}

func TestDispatchUseCase_RetryProvisioning(t *testing.T) {
	t.Run("failed case can be retried", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		fail := true
		docs := &mockDocs{
			createFn: func(ctx context.Context, doc *model.CaseDocument) (string, error) {
				if fail {
					return "", errors.New("quota exceeded")
				}
				return "https://docs.google.com/document/d/doc-2/edit", nil
			},
		}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, time.UTC)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()

		fail = false
		got, err := dispatcher.RetryProvisioning(ctx, c.ID, false)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioned)
		gt.Value(t, got.SystemError).Equal("")
		gt.Value(t, got.DocumentURL).Equal("https://docs.google.com/document/d/doc-2/edit")
	})

	t.Run("provisioned case needs force", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		docs := &mockDocs{}
		dispatcher := usecase.NewDispatchUseCase(repo, docs, nil, time.UTC)
		ctx := context.Background()

		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		gt.NoError(t, dispatcher.HandleCaseCreated(ctx, c.ID)).Required()

		_, err := dispatcher.RetryProvisioning(ctx, c.ID, false)
		gt.Bool(t, errors.Is(err, usecase.ErrAlreadyProvisioned)).True()
		gt.Number(t, docs.createCount()).Equal(1)

		got, err := dispatcher.RetryProvisioning(ctx, c.ID, true)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SystemStatus).Equal(types.SystemStatusProvisioned)
		gt.Number(t, docs.createCount()).Equal(2)
	})

	t.Run("unknown case", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		dispatcher := usecase.NewDispatchUseCase(repo, &mockDocs{}, nil, time.UTC)
		_, err := dispatcher.RetryProvisioning(context.Background(), "missing", false)
		gt.Bool(t, errors.Is(err, usecase.ErrCaseNotFound)).True()
	})
}

func TestDispatchUseCase_HandleCaseUpdated(t *testing.T) {
	setup := func(t *testing.T, cal *mockCalendar) (*usecase.UseCases, *memory.Memory, *model.Case) {
		repo := memory.New(memory.WithInitialCounter(0))
		uc := usecase.New(repo, usecase.WithAsync(async.Sync), usecase.WithCalendar(cal))
		c, err := uc.Case.CreateCase(context.Background(), validInput("山田"))
		gt.NoError(t, err).Required()
		return uc, repo, c
	}
	schedule := func(date *time.Time, location string) usecase.ScheduleInput {
		return usecase.ScheduleInput{
			MeetingStatus: "confirmed",
			MeetingType:   "online",
			MeetingDate:   date,
			LocationOrURL: location,
		}
	}

	t.Run("first sync inserts, later syncs update in place", func(t *testing.T) {
		cal := &mockCalendar{}
		uc, repo, c := setup(t, cal)
		ctx := context.Background()

		first := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		_, err := uc.Case.UpdateSchedule(ctx, c.ID, schedule(&first, "https://meet.example.com/a"))
		gt.NoError(t, err).Required()

		gt.Array(t, cal.inserted).Length(1).Required()
		ev := cal.inserted[0]
		gt.Value(t, ev.Summary).Equal("面談: 山田 様")
		gt.Value(t, ev.Start).Equal(first)
		gt.Value(t, ev.End).Equal(first.Add(time.Hour))
		gt.Value(t, ev.Location).Equal("https://meet.example.com/a")

		stored, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.CalendarEventID).Equal("event-1")

		second := first.Add(24 * time.Hour)
		_, err = uc.Case.UpdateSchedule(ctx, c.ID, schedule(&second, "https://meet.example.com/a"))
		gt.NoError(t, err).Required()

		gt.Array(t, cal.inserted).Length(1)
		gt.Value(t, cal.updated["event-1"].Start).Equal(second)
	})

	t.Run("no-op when date and location are unchanged", func(t *testing.T) {
		cal := &mockCalendar{}
		uc, _, c := setup(t, cal)
		ctx := context.Background()

		date := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		_, err := uc.Case.UpdateSchedule(ctx, c.ID, schedule(&date, "事務所"))
		gt.NoError(t, err).Required()

		in := schedule(&date, "事務所")
		in.AttendeeEmails = []string{"x@example.com"}
		_, err = uc.Case.UpdateSchedule(ctx, c.ID, in)
		gt.NoError(t, err).Required()

		_, err = uc.Case.UpdateStatus(ctx, c.ID, "in_progress")
		gt.NoError(t, err).Required()

		gt.Array(t, cal.inserted).Length(1)
		gt.Number(t, len(cal.updated)).Equal(0)
	})

	t.Run("no-op without a meeting date", func(t *testing.T) {
		cal := &mockCalendar{}
		uc, _, c := setup(t, cal)

		_, err := uc.Case.UpdateSchedule(context.Background(), c.ID, schedule(nil, "事務所"))
		gt.NoError(t, err).Required()
		gt.Array(t, cal.inserted).Length(0)
	})

	t.Run("calendar failure is swallowed", func(t *testing.T) {
		cal := &mockCalendar{
			insertFn: func(ctx context.Context, ev *model.CalendarEvent) (string, error) {
				return "", errors.New("calendar unavailable")
			},
		}
		uc, repo, c := setup(t, cal)
		ctx := context.Background()

		date := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		got, err := uc.Case.UpdateSchedule(ctx, c.ID, schedule(&date, ""))
		gt.NoError(t, err).Required()
		gt.Value(t, *got.Schedule.MeetingDate).Equal(date)

		stored, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.CalendarEventID).Equal("")
	})

	t.Run("handler returns nil for an update failure", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		cal := &mockCalendar{
			updateFn: func(ctx context.Context, eventID string, ev *model.CalendarEvent) error {
				return errors.New("gone")
			},
		}
		dispatcher := usecase.NewDispatchUseCase(repo, nil, cal, time.UTC)
		ctx := context.Background()

		date := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s", CalendarEventID: "event-9"})
		change, err := repo.Case().Update(ctx, c.ID, &model.CaseUpdate{MeetingDate: &date})
		gt.NoError(t, err).Required()

		gt.NoError(t, dispatcher.HandleCaseUpdated(ctx, change))
		gt.Value(t, cal.updated["event-9"].Start).Equal(date)
	})

	t.Run("redelivered change does not insert a second event", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		cal := &mockCalendar{}
		dispatcher := usecase.NewDispatchUseCase(repo, nil, cal, time.UTC)
		ctx := context.Background()

		date := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})
		change, err := repo.Case().Update(ctx, c.ID, &model.CaseUpdate{MeetingDate: &date})
		gt.NoError(t, err).Required()
		gt.Value(t, change.After.CalendarEventID).Equal("")

		gt.NoError(t, dispatcher.HandleCaseUpdated(ctx, change)).Required()
		gt.NoError(t, dispatcher.HandleCaseUpdated(ctx, change)).Required()

		gt.Array(t, cal.inserted).Length(1)
		gt.Value(t, cal.updated["event-1"].Start).Equal(date)

		stored, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.CalendarEventID).Equal("event-1")
	})

	t.Run("late change syncs the stored schedule", func(t *testing.T) {
		repo := memory.New(memory.WithInitialCounter(0))
		cal := &mockCalendar{}
		dispatcher := usecase.NewDispatchUseCase(repo, nil, cal, time.UTC)
		ctx := context.Background()

		first := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		second := first.Add(48 * time.Hour)
		c := createRaw(t, repo, &model.Case{Name: "山田", Summary: "s"})

		older, err := repo.Case().Update(ctx, c.ID, &model.CaseUpdate{MeetingDate: &first})
		gt.NoError(t, err).Required()
		newer, err := repo.Case().Update(ctx, c.ID, &model.CaseUpdate{MeetingDate: &second})
		gt.NoError(t, err).Required()

		// handlers finish in reverse order
		gt.NoError(t, dispatcher.HandleCaseUpdated(ctx, newer)).Required()
		gt.NoError(t, dispatcher.HandleCaseUpdated(ctx, older)).Required()

		gt.Array(t, cal.inserted).Length(1).Required()
		gt.Value(t, cal.inserted[0].Start).Equal(second)
		gt.Value(t, cal.updated["event-1"].Start).Equal(second)
	})
}
