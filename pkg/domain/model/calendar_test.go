package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/domain/model"
)

func TestNewCalendarEvent(t *testing.T) {
	t.Run("no meeting date", func(t *testing.T) {
		gt.Value(t, model.NewCalendarEvent(&model.Case{Name: "山田"})).Nil()
	})

	t.Run("one hour block", func(t *testing.T) {
		d := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
		c := &model.Case{
			ID:      "abc",
			Name:    "山田",
			Summary: "進路",
			Schedule: model.Schedule{
				MeetingDate:    &d,
				LocationOrURL:  "https://meet.example.com/xyz",
				AttendeeEmails: []string{"a@example.org", "b@example.org"},
			},
		}

		ev := model.NewCalendarEvent(c)
		gt.Value(t, ev).NotNil()
		gt.Value(t, ev.Summary).Equal("面談: 山田 様")
		gt.Value(t, ev.Location).Equal("https://meet.example.com/xyz")
		gt.Value(t, ev.End.Sub(ev.Start)).Equal(time.Hour)
		gt.Value(t, ev.Description).Equal("相談ID: abc\n概要: 進路\n詳細: https://meet.example.com/xyz\n\n【参加予定者】\na@example.org, b@example.org")
	})

	t.Run("no attendees", func(t *testing.T) {
		d := time.Now()
		ev := model.NewCalendarEvent(&model.Case{Schedule: model.Schedule{MeetingDate: &d}})
		gt.S(t, ev.Description).Contains("【参加予定者】\nなし")
	})
}
