package http

import (
	"time"

	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/usecase"
)

type caseResponse struct {
	ID                 string     `json:"id"`
	CaseNumber         int64      `json:"caseNumber"`
	Name               string     `json:"name"`
	ConsulteeType      string     `json:"consulteeType"`
	ConsulteeTypeLabel string     `json:"consulteeTypeLabel"`
	Relationship       string     `json:"relationship"`
	Prefecture         string     `json:"prefecture"`
	SchoolType         string     `json:"schoolType"`
	SchoolTypeLabel    string     `json:"schoolTypeLabel"`
	SchoolStage        string     `json:"schoolStage"`
	SchoolStageLabel   string     `json:"schoolStageLabel"`
	Grade              string     `json:"grade"`
	SchoolName         string     `json:"schoolName"`
	Summary            string     `json:"summary"`
	Detail             string     `json:"detail"`
	Status             string     `json:"status"`
	StatusLabel        string     `json:"statusLabel"`
	AssignedTo         []string   `json:"assignedTo"`
	MeetingStatus      string     `json:"meetingStatus"`
	MeetingType        string     `json:"meetingType"`
	MeetingDate        *time.Time `json:"meetingDate"`
	LocationOrURL      string     `json:"locationOrUrl"`
	AttendeeEmails     []string   `json:"attendeeEmails"`
	DocumentURL        string     `json:"documentUrl"`
	CalendarEventID    string     `json:"calendarEventId"`
	SystemStatus       string     `json:"systemStatus"`
	SystemError        string     `json:"systemError"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	ImportedAt         *time.Time `json:"importedAt,omitempty"`
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toCaseResponse(c *model.Case) *caseResponse {
	return &caseResponse{
		ID:                 c.ID.String(),
		CaseNumber:         c.CaseNumber,
		Name:               c.Name,
		ConsulteeType:      c.ConsulteeType.String(),
		ConsulteeTypeLabel: c.ConsulteeType.Label(),
		Relationship:       c.Relationship,
		Prefecture:         c.Prefecture,
		SchoolType:         c.SchoolType.String(),
		SchoolTypeLabel:    c.SchoolType.Label(),
		SchoolStage:        c.SchoolStage.String(),
		SchoolStageLabel:   c.SchoolStage.Label(),
		Grade:              c.Grade,
		SchoolName:         c.SchoolName,
		Summary:            c.Summary,
		Detail:             c.Detail,
		Status:             c.Status.String(),
		StatusLabel:        c.Status.Label(),
		AssignedTo:         emptyIfNil(c.AssignedTo),
		MeetingStatus:      string(c.Schedule.MeetingStatus),
		MeetingType:        string(c.Schedule.MeetingType),
		MeetingDate:        c.Schedule.MeetingDate,
		LocationOrURL:      c.Schedule.LocationOrURL,
		AttendeeEmails:     emptyIfNil(c.Schedule.AttendeeEmails),
		DocumentURL:        c.DocumentURL,
		CalendarEventID:    c.CalendarEventID,
		SystemStatus:       c.SystemStatus.String(),
		SystemError:        c.SystemError,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		ImportedAt:         c.ImportedAt,
	}
}

func toCaseResponses(cases []*model.Case) []*caseResponse {
	resp := make([]*caseResponse, len(cases))
	for i, c := range cases {
		resp[i] = toCaseResponse(c)
	}
	return resp
}

type recordResponse struct {
	ID            string    `json:"id"`
	CaseID        string    `json:"caseId"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	AttachmentURL string    `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toRecordResponse(r *model.Record) *recordResponse {
	return &recordResponse{
		ID:            string(r.ID),
		CaseID:        r.CaseID.String(),
		Content:       r.Content,
		Author:        r.Author,
		AttachmentURL: r.AttachmentURL,
		CreatedAt:     r.CreatedAt,
	}
}

type exchangeResponse struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"caseId"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

func toExchangeResponse(e *model.AIExchange) *exchangeResponse {
	return &exchangeResponse{
		ID:        string(e.ID),
		CaseID:    e.CaseID.String(),
		Prompt:    e.Prompt,
		Response:  e.Response,
		CreatedAt: e.CreatedAt,
	}
}

type staffResponse struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	SlackUserID string `json:"slackUserId,omitempty"`
}

type userMeResponse struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	NoAuthn bool   `json:"noAuthn"`
}

type importResponse struct {
	Count   int                  `json:"count"`
	Skipped []usecase.ImportSkip `json:"skipped"`
}
