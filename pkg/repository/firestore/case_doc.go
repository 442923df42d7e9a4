package firestore

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/types"
)

// caseDoc is the Firestore persistence model of a case. Field names are
// shared with documents written by the web client.
type caseDoc struct {
	CaseNumber    int64  `firestore:"caseNumber"`
	Name          string `firestore:"name"`
	ConsulteeType string `firestore:"consulteeType"`
	Relationship  string `firestore:"relationship"`
	Prefecture    string `firestore:"prefecture"`
	SchoolType    string `firestore:"schoolType"`
	SchoolStage   string `firestore:"schoolStage"`
	Grade         string `firestore:"grade"`
	SchoolName    string `firestore:"schoolName"`
	Summary       string `firestore:"summary"`
	Detail        string `firestore:"detail"`

	Status     string   `firestore:"status"`
	AssignedTo []string `firestore:"assignedTo"`

	MeetingStatus  string     `firestore:"meetingStatus"`
	MeetingType    string     `firestore:"meetingType"`
	MeetingDate    *time.Time `firestore:"meetingDate"`
	LocationOrURL  string     `firestore:"locationOrUrl"`
	AttendeeEmails []string   `firestore:"attendeeEmails"`

	DocumentURL     string `firestore:"documentUrl"`
	CalendarEventID string `firestore:"calendarEventId"`
	SystemStatus    string `firestore:"systemStatus"`
	SystemError     string `firestore:"systemError"`

	CreatedAt  time.Time  `firestore:"createdAt"`
	UpdatedAt  time.Time  `firestore:"updatedAt"`
	ImportedAt *time.Time `firestore:"importedAt,omitempty"`
}

func toCaseDoc(c *model.Case) *caseDoc {
	return &caseDoc{
		CaseNumber:      c.CaseNumber,
		Name:            c.Name,
		ConsulteeType:   string(c.ConsulteeType),
		Relationship:    c.Relationship,
		Prefecture:      c.Prefecture,
		SchoolType:      string(c.SchoolType),
		SchoolStage:     string(c.SchoolStage),
		Grade:           c.Grade,
		SchoolName:      c.SchoolName,
		Summary:         c.Summary,
		Detail:          c.Detail,
		Status:          string(c.Status),
		AssignedTo:      c.AssignedTo,
		MeetingStatus:   string(c.Schedule.MeetingStatus),
		MeetingType:     string(c.Schedule.MeetingType),
		MeetingDate:     c.Schedule.MeetingDate,
		LocationOrURL:   c.Schedule.LocationOrURL,
		AttendeeEmails:  c.Schedule.AttendeeEmails,
		DocumentURL:     c.DocumentURL,
		CalendarEventID: c.CalendarEventID,
		SystemStatus:    string(c.SystemStatus),
		SystemError:     c.SystemError,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		ImportedAt:      c.ImportedAt,
	}
}

func fromCaseDoc(id string, d *caseDoc) *model.Case {
	return &model.Case{
		ID:            model.CaseID(id),
		CaseNumber:    d.CaseNumber,
		Name:          d.Name,
		ConsulteeType: types.ConsulteeType(d.ConsulteeType),
		Relationship:  d.Relationship,
		Prefecture:    d.Prefecture,
		SchoolType:    types.SchoolType(d.SchoolType),
		SchoolStage:   types.SchoolStage(d.SchoolStage),
		Grade:         d.Grade,
		SchoolName:    d.SchoolName,
		Summary:       d.Summary,
		Detail:        d.Detail,
		Status:        types.CaseStatus(d.Status).Normalize(),
		AssignedTo:    d.AssignedTo,
		Schedule: model.Schedule{
			MeetingStatus:  types.MeetingStatus(d.MeetingStatus),
			MeetingType:    types.MeetingType(d.MeetingType),
			MeetingDate:    d.MeetingDate,
			LocationOrURL:  d.LocationOrURL,
			AttendeeEmails: d.AttendeeEmails,
		},
		DocumentURL:     d.DocumentURL,
		CalendarEventID: d.CalendarEventID,
		SystemStatus:    types.SystemStatus(d.SystemStatus),
		SystemError:     d.SystemError,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ImportedAt:      d.ImportedAt,
	}
}

// caseUpdates converts a partial update into field paths. after is the
// merged version read inside the same transaction; set-valued fields are
// written from it in full.
func caseUpdates(u *model.CaseUpdate, after *model.Case) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, value any) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.ConsulteeType != nil {
		add("consulteeType", string(*u.ConsulteeType))
	}
	if u.Relationship != nil {
		add("relationship", *u.Relationship)
	}
	if u.Prefecture != nil {
		add("prefecture", *u.Prefecture)
	}
	if u.SchoolType != nil {
		add("schoolType", string(*u.SchoolType))
	}
	if u.SchoolStage != nil {
		add("schoolStage", string(*u.SchoolStage))
	}
	if u.Grade != nil {
		add("grade", *u.Grade)
	}
	if u.SchoolName != nil {
		add("schoolName", *u.SchoolName)
	}
	if u.Summary != nil {
		add("summary", *u.Summary)
	}
	if u.Detail != nil {
		add("detail", *u.Detail)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if len(u.AddAssignees) > 0 || len(u.RemoveAssignees) > 0 {
		add("assignedTo", after.AssignedTo)
	}
	if u.MeetingStatus != nil {
		add("meetingStatus", string(*u.MeetingStatus))
	}
	if u.MeetingType != nil {
		add("meetingType", string(*u.MeetingType))
	}
	if u.ClearMeetingDate {
		add("meetingDate", nil)
	} else if u.MeetingDate != nil {
		add("meetingDate", *u.MeetingDate)
	}
	if u.LocationOrURL != nil {
		add("locationOrUrl", *u.LocationOrURL)
	}
	if u.AttendeeEmails != nil {
		add("attendeeEmails", *u.AttendeeEmails)
	}
	if u.DocumentURL != nil {
		add("documentUrl", *u.DocumentURL)
	}
	if u.CalendarEventID != nil {
		add("calendarEventId", *u.CalendarEventID)
	}
	if u.SystemStatus != nil {
		add("systemStatus", string(*u.SystemStatus))
	}
	if u.SystemError != nil {
		add("systemError", *u.SystemError)
	}

	add("updatedAt", after.UpdatedAt)
	return updates
}
