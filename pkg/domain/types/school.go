package types

import "strings"

// SchoolStage is the coded school stage of the student
type SchoolStage string

const (
	SchoolStageElementary SchoolStage = "elem"
	SchoolStageMiddle     SchoolStage = "middle"
	SchoolStageHigh       SchoolStage = "high"
	SchoolStageSecondary  SchoolStage = "secondary"
	SchoolStageUniversity SchoolStage = "univ"
	SchoolStageOther      SchoolStage = "other"
)

var schoolStageLabels = map[SchoolStage]string{
	SchoolStageSecondary:  "中高一貫",
	SchoolStageHigh:       "高校",
	SchoolStageMiddle:     "中学",
	SchoolStageElementary: "小学",
	SchoolStageUniversity: "大学",
}

// Label returns the display label. Unknown codes pass through verbatim.
func (s SchoolStage) Label() string {
	if label, ok := schoolStageLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s SchoolStage) String() string {
	return string(s)
}

// SchoolStageFromLabel normalizes a spreadsheet value (code or Japanese
// label) to a code. Unrecognized values fall back to SchoolStageHigh.
func SchoolStageFromLabel(s string) SchoolStage {
	switch {
	case s == "":
		return SchoolStageHigh
	case strings.Contains(s, "中高一貫") || s == string(SchoolStageSecondary):
		return SchoolStageSecondary
	case s == "小学校" || s == "小学" || s == string(SchoolStageElementary):
		return SchoolStageElementary
	case s == "中学校" || s == "中学" || s == string(SchoolStageMiddle):
		return SchoolStageMiddle
	case s == "高校" || strings.Contains(s, "高等") || s == string(SchoolStageHigh):
		return SchoolStageHigh
	case s == "大学" || s == string(SchoolStageUniversity):
		return SchoolStageUniversity
	case s == "その他" || s == string(SchoolStageOther):
		return SchoolStageOther
	default:
		return SchoolStageHigh
	}
}

// SchoolType is the coded ownership type of the school
type SchoolType string

const (
	SchoolTypePublic   SchoolType = "public"
	SchoolTypePrivate  SchoolType = "private"
	SchoolTypeNational SchoolType = "national"
	SchoolTypeOther    SchoolType = "other"
)

var schoolTypeLabels = map[SchoolType]string{
	SchoolTypePublic:   "公立",
	SchoolTypePrivate:  "私立",
	SchoolTypeNational: "国立",
}

// Label returns the display label. Unknown codes pass through verbatim.
func (t SchoolType) Label() string {
	if label, ok := schoolTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t SchoolType) String() string {
	return string(t)
}

// SchoolTypeFromLabel normalizes a spreadsheet value to a code. Unrecognized
// values fall back to SchoolTypePublic.
func SchoolTypeFromLabel(s string) SchoolType {
	switch s {
	case "私立", string(SchoolTypePrivate):
		return SchoolTypePrivate
	case "国立", string(SchoolTypeNational):
		return SchoolTypeNational
	case "その他", string(SchoolTypeOther):
		return SchoolTypeOther
	default:
		return SchoolTypePublic
	}
}
