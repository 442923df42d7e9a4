package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/types"
	"golang.org/x/text/width"
)

const (
	importDefaultName    = "名称不明"
	importDefaultSummary = "（インポートデータ）"
	importDefaultGrade   = "1"
)

// ErrInvalidImportNumber is returned for rows whose number column is not an
// integer. Such rows are skipped.
var ErrInvalidImportNumber = goerr.New("invalid case number in import row")

// ImportRow is one line of the legacy spreadsheet, columns in file order
type ImportRow struct {
	Number      string
	Name        string
	Date        string
	Type        string
	Status      string
	SchoolType  string
	SchoolStage string
	Grade       string
	SchoolName  string
	Prefecture  string
	DocumentURL string
	Summary     string
	AssignedTo  string
	Detail      string
}

// NewImportRow maps spreadsheet cells to a row. Missing trailing cells are
// empty and every value is trimmed.
func NewImportRow(cells []string) ImportRow {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return ImportRow{
		Number:      cell(0),
		Name:        cell(1),
		Date:        cell(2),
		Type:        cell(3),
		Status:      cell(4),
		SchoolType:  cell(5),
		SchoolStage: cell(6),
		Grade:       cell(7),
		SchoolName:  cell(8),
		Prefecture:  cell(9),
		DocumentURL: cell(10),
		Summary:     cell(11),
		AssignedTo:  cell(12),
		Detail:      cell(13),
	}
}

// IsBlank reports whether every cell of the row is empty
func (r ImportRow) IsBlank() bool {
	return r == ImportRow{}
}

var (
	leadingDigits = regexp.MustCompile(`^[0-9]+`)
	anyDigits     = regexp.MustCompile(`[0-9]+`)
)

var importDateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-1-2",
	"1/2/06",
	"1/2/2006",
	"2006年1月2日",
	time.RFC3339,
}

func parseImportDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToCase normalizes the row into a case carrying its own number. Labels and
// codes are both accepted; anything unrecognized takes the documented
// default. Rows with a document URL are marked provisioned.
func (r ImportRow) ToCase(loc *time.Location, now time.Time) (*Case, error) {
	number := leadingDigits.FindString(width.Fold.String(r.Number))
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidImportNumber, "skipping row", goerr.V("number", r.Number), goerr.V("name", r.Name))
	}

	c := &Case{
		CaseNumber:    n,
		Name:          r.Name,
		ConsulteeType: types.ConsulteeStudent,
		Status:        types.CaseStatusFromLabel(r.Status),
		SchoolType:    types.SchoolTypeFromLabel(r.SchoolType),
		SchoolStage:   types.SchoolStageFromLabel(r.SchoolStage),
		Grade:         importDefaultGrade,
		SchoolName:    r.SchoolName,
		Prefecture:    r.Prefecture,
		DocumentURL:   r.DocumentURL,
		Summary:       r.Summary,
		Detail:        r.Detail,
		AssignedTo:    []string{},
		Schedule: Schedule{
			MeetingStatus: types.MeetingStatusUntouched,
			MeetingType:   types.MeetingTypeOnline,
		},
		CreatedAt:  now,
		ImportedAt: &now,
	}

	if c.Name == "" {
		c.Name = importDefaultName
	}
	if c.Summary == "" {
		c.Summary = importDefaultSummary
	}
	if strings.Contains(r.Type, "大人") || r.Type == string(types.ConsulteeAdult) {
		c.ConsulteeType = types.ConsulteeAdult
	}
	if g := anyDigits.FindString(width.Fold.String(r.Grade)); g != "" {
		c.Grade = g
	}
	for _, email := range strings.Split(r.AssignedTo, ";") {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			c.AssignedTo = append(c.AssignedTo, email)
		}
	}
	if r.Date != "" {
		if t, ok := parseImportDate(r.Date, loc); ok {
			c.CreatedAt = t.UTC()
		}
	}
	if c.DocumentURL != "" {
		c.SystemStatus = types.SystemStatusProvisioned
	}

	return c, nil
}
