package gcal

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Service writes interview blocks to a shared Google Calendar
type Service interface {
	// InsertEvent creates an event and returns its ID
	InsertEvent(ctx context.Context, ev *model.CalendarEvent) (string, error)

	// UpdateEvent replaces an existing event
	UpdateEvent(ctx context.Context, eventID string, ev *model.CalendarEvent) error
}

type client struct {
	api        *calendar.Service
	calendarID string
}

// New creates a Google Calendar service bound to calendarID
func New(ctx context.Context, calendarID string, opts ...option.ClientOption) (Service, error) {
	if calendarID == "" {
		return nil, goerr.New("calendar ID is required")
	}

	api, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithScopes(calendar.CalendarScope)}, opts...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Calendar client")
	}

	return &client{api: api, calendarID: calendarID}, nil
}

func (c *client) InsertEvent(ctx context.Context, ev *model.CalendarEvent) (string, error) {
	created, err := c.api.Events.Insert(c.calendarID, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", goerr.Wrap(err, "failed to insert calendar event",
			goerr.V("calendar_id", c.calendarID),
			goerr.V("start", ev.Start))
	}
	return created.Id, nil
}

func (c *client) UpdateEvent(ctx context.Context, eventID string, ev *model.CalendarEvent) error {
	if _, err := c.api.Events.Update(c.calendarID, eventID, toEvent(ev)).Context(ctx).Do(); err != nil {
		return goerr.Wrap(err, "failed to update calendar event",
			goerr.V("calendar_id", c.calendarID),
			goerr.V("event_id", eventID),
			goerr.V("start", ev.Start))
	}
	return nil
}

func toEvent(ev *model.CalendarEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
}
