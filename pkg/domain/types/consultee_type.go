package types

import "github.com/m-mizutani/goerr/v2"

// ConsulteeType tells whether the consultee is the student or an adult
// acting on the student's behalf (parent, teacher, counselor)
type ConsulteeType string

const (
	ConsulteeStudent ConsulteeType = "student"
	ConsulteeAdult   ConsulteeType = "adult"
)

func (t ConsulteeType) IsValid() bool {
	return t == ConsulteeStudent || t == ConsulteeAdult
}

func (t ConsulteeType) String() string {
	return string(t)
}

// Label returns the short display label
func (t ConsulteeType) Label() string {
	if t == ConsulteeAdult {
		return "大人"
	}
	return "生徒"
}

// ParseConsulteeType parses a consultee type code. Empty input is treated as
// a student.
func ParseConsulteeType(s string) (ConsulteeType, error) {
	if s == "" {
		return ConsulteeStudent, nil
	}
	t := ConsulteeType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid consultee type", goerr.V("type", s))
	}
	return t, nil
}
