package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/intake/pkg/domain/types"
)

// CaseID is the opaque storage key of a case. It is distinct from the
// human-facing CaseNumber.
type CaseID string

func (id CaseID) String() string {
	return string(id)
}

// Case is a consultation case
type Case struct {
	ID         CaseID
	CaseNumber int64

	Name          string
	ConsulteeType types.ConsulteeType
	Relationship  string // set when ConsulteeType is adult, e.g. 母, 担任教員
	Prefecture    string
	SchoolType    types.SchoolType
	SchoolStage   types.SchoolStage
	Grade         string
	SchoolName    string
	Summary       string
	Detail        string

	Status     types.CaseStatus
	AssignedTo []string // staff emails

	Schedule Schedule

	// Written by the side-effect dispatcher
	DocumentURL     string
	CalendarEventID string
	SystemStatus    types.SystemStatus
	SystemError     string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ImportedAt *time.Time
}

// Schedule holds interview scheduling fields
type Schedule struct {
	MeetingStatus  types.MeetingStatus
	MeetingType    types.MeetingType
	MeetingDate    *time.Time
	LocationOrURL  string
	AttendeeEmails []string
}

// Clone returns a deep copy of the case
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	copied := *c
	copied.AssignedTo = slices.Clone(c.AssignedTo)
	copied.Schedule.AttendeeEmails = slices.Clone(c.Schedule.AttendeeEmails)
	if c.Schedule.MeetingDate != nil {
		d := *c.Schedule.MeetingDate
		copied.Schedule.MeetingDate = &d
	}
	if c.ImportedAt != nil {
		d := *c.ImportedAt
		copied.ImportedAt = &d
	}
	return &copied
}

// IsAssigned reports whether email is in AssignedTo
func (c *Case) IsAssigned(email string) bool {
	return slices.Contains(c.AssignedTo, email)
}

// CaseUpdate is a partial update of a case. Nil fields are left untouched.
// CaseNumber and CreatedAt cannot be expressed here and are therefore never
// changed by an update.
type CaseUpdate struct {
	Name          *string
	ConsulteeType *types.ConsulteeType
	Relationship  *string
	Prefecture    *string
	SchoolType    *types.SchoolType
	SchoolStage   *types.SchoolStage
	Grade         *string
	SchoolName    *string
	Summary       *string
	Detail        *string

	Status *types.CaseStatus

	// AddAssignees and RemoveAssignees are applied as set operations on
	// AssignedTo so concurrent toggles by different staff do not overwrite
	// each other.
	AddAssignees    []string
	RemoveAssignees []string

	MeetingStatus    *types.MeetingStatus
	MeetingType      *types.MeetingType
	MeetingDate      *time.Time
	ClearMeetingDate bool
	LocationOrURL    *string
	AttendeeEmails   *[]string

	DocumentURL     *string
	CalendarEventID *string
	SystemStatus    *types.SystemStatus
	SystemError     *string
}

// IsEmpty reports whether the update changes nothing
func (u *CaseUpdate) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.Name == nil && u.ConsulteeType == nil && u.Relationship == nil &&
		u.Prefecture == nil && u.SchoolType == nil && u.SchoolStage == nil &&
		u.Grade == nil && u.SchoolName == nil && u.Summary == nil && u.Detail == nil &&
		u.Status == nil && len(u.AddAssignees) == 0 && len(u.RemoveAssignees) == 0 &&
		u.MeetingStatus == nil && u.MeetingType == nil && u.MeetingDate == nil &&
		!u.ClearMeetingDate && u.LocationOrURL == nil && u.AttendeeEmails == nil &&
		u.DocumentURL == nil && u.CalendarEventID == nil && u.SystemStatus == nil &&
		u.SystemError == nil
}

// Apply merges the update into c in place
func (u *CaseUpdate) Apply(c *Case) {
	setIf(&c.Name, u.Name)
	setIf(&c.ConsulteeType, u.ConsulteeType)
	setIf(&c.Relationship, u.Relationship)
	setIf(&c.Prefecture, u.Prefecture)
	setIf(&c.SchoolType, u.SchoolType)
	setIf(&c.SchoolStage, u.SchoolStage)
	setIf(&c.Grade, u.Grade)
	setIf(&c.SchoolName, u.SchoolName)
	setIf(&c.Summary, u.Summary)
	setIf(&c.Detail, u.Detail)
	setIf(&c.Status, u.Status)

	for _, email := range u.AddAssignees {
		if !slices.Contains(c.AssignedTo, email) {
			c.AssignedTo = append(c.AssignedTo, email)
		}
	}
	if len(u.RemoveAssignees) > 0 {
		c.AssignedTo = slices.DeleteFunc(c.AssignedTo, func(email string) bool {
			return slices.Contains(u.RemoveAssignees, email)
		})
	}

	setIf(&c.Schedule.MeetingStatus, u.MeetingStatus)
	setIf(&c.Schedule.MeetingType, u.MeetingType)
	if u.ClearMeetingDate {
		c.Schedule.MeetingDate = nil
	} else if u.MeetingDate != nil {
		d := *u.MeetingDate
		c.Schedule.MeetingDate = &d
	}
	setIf(&c.Schedule.LocationOrURL, u.LocationOrURL)
	if u.AttendeeEmails != nil {
		c.Schedule.AttendeeEmails = slices.Clone(*u.AttendeeEmails)
	}

	setIf(&c.DocumentURL, u.DocumentURL)
	setIf(&c.CalendarEventID, u.CalendarEventID)
	setIf(&c.SystemStatus, u.SystemStatus)
	setIf(&c.SystemError, u.SystemError)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// CaseChange carries the previous and new version of a case after an update
type CaseChange struct {
	Before *Case
	After  *Case
}

// ScheduleChanged reports whether the meeting date or location differ
// between the two versions
func (c *CaseChange) ScheduleChanged() bool {
	if c == nil || c.Before == nil || c.After == nil {
		return false
	}
	b, a := c.Before.Schedule, c.After.Schedule

	if b.LocationOrURL != a.LocationOrURL {
		return true
	}
	switch {
	case b.MeetingDate == nil && a.MeetingDate == nil:
		return false
	case b.MeetingDate == nil || a.MeetingDate == nil:
		return true
	default:
		return !b.MeetingDate.Equal(*a.MeetingDate)
	}
}
