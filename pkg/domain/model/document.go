package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/secmon-lab/intake/pkg/domain/types"
)

const (
	defaultClientName   = "名称未設定"
	defaultRelationship = "関係者"
)

// Placeholder is a single template substitution. Key includes the braces,
// e.g. "{{client_name}}".
type Placeholder struct {
	Key   string
	Value string
}

// CaseDocument is everything needed to generate the companion document of a
// case from the template
type CaseDocument struct {
	Name         string
	Placeholders []Placeholder
}

// NewCaseDocument derives the companion document name and placeholder
// values from a case. Dates are rendered in loc.
func NewCaseDocument(c *Case, loc *time.Location) *CaseDocument {
	clientName := c.Name
	if clientName == "" {
		clientName = defaultClientName
	}

	var startDate string
	if !c.CreatedAt.IsZero() {
		startDate = c.CreatedAt.In(loc).Format(time.DateOnly)
	}

	return &CaseDocument{
		Name: DocumentName(c.CaseNumber, clientName),
		Placeholders: []Placeholder{
			{Key: "{{client_name}}", Value: clientName},
			{Key: "{{client_attr}}", Value: ClientAttr(c)},
			{Key: "{{client_detail}}", Value: ClientDetail(c)},
			{Key: "{{summary}}", Value: c.Summary},
			{Key: "{{start_date}}", Value: startDate},
			{Key: "{{end_date}}", Value: ""},
			{Key: "{{method}}", Value: ""},
			{Key: "{{manager_name}}", Value: ""},
			{Key: "{{note}}", Value: c.Detail},
		},
	}
}

// DocumentName returns "<number padded to 4 digits>_<name>". Numbers wider
// than 4 digits are printed as is.
func DocumentName(caseNumber int64, clientName string) string {
	return fmt.Sprintf("%04d_%s", caseNumber, clientName)
}

// SchoolAttr is the stage label followed by the grade, e.g. 高校1年生
func SchoolAttr(c *Case) string {
	var b strings.Builder
	b.WriteString(c.SchoolStage.Label())
	if c.Grade != "" {
		b.WriteString(c.Grade)
		b.WriteString("年生")
	}
	return b.String()
}

// ClientAttr describes the consultee. For an adult consultee it is
// qualified with the relationship, e.g. "母 (子: 高校1年生)".
func ClientAttr(c *Case) string {
	attr := SchoolAttr(c)
	if c.ConsulteeType != types.ConsulteeAdult {
		return attr
	}

	rel := c.Relationship
	if rel == "" {
		rel = defaultRelationship
	}
	return fmt.Sprintf("%s (子: %s)", rel, attr)
}

// ClientDetail joins the prefecture and school type label with "・"
func ClientDetail(c *Case) string {
	var parts []string
	if c.Prefecture != "" {
		parts = append(parts, c.Prefecture)
	}
	if label := c.SchoolType.Label(); label != "" {
		parts = append(parts, label)
	}
	return strings.Join(parts, "・")
}
