package model

import (
	"fmt"
	"strings"
	"time"
)

// MeetingDuration is the length of the calendar block reserved for an
// interview
const MeetingDuration = time.Hour

// CalendarEvent is the external calendar entry of a case interview
type CalendarEvent struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// NewCalendarEvent builds the calendar entry for a case. It returns nil when
// the case has no meeting date.
func NewCalendarEvent(c *Case) *CalendarEvent {
	if c.Schedule.MeetingDate == nil {
		return nil
	}

	attendees := "なし"
	if len(c.Schedule.AttendeeEmails) > 0 {
		attendees = strings.Join(c.Schedule.AttendeeEmails, ", ")
	}

	start := *c.Schedule.MeetingDate
	return &CalendarEvent{
		Summary: fmt.Sprintf("面談: %s 様", c.Name),
		Description: fmt.Sprintf("相談ID: %s\n概要: %s\n詳細: %s\n\n【参加予定者】\n%s",
			c.ID, c.Summary, c.Schedule.LocationOrURL, attendees),
		Location: c.Schedule.LocationOrURL,
		Start:    start,
		End:      start.Add(MeetingDuration),
	}
}
