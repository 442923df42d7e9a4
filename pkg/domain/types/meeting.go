package types

import "github.com/m-mizutani/goerr/v2"

// MeetingStatus tracks how far the interview scheduling has progressed
type MeetingStatus string

const (
	MeetingStatusUntouched MeetingStatus = "untouched"
	MeetingStatusAdjusting MeetingStatus = "adjusting"
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	MeetingStatusDone      MeetingStatus = "done"
)

func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusUntouched, MeetingStatusAdjusting, MeetingStatusConfirmed, MeetingStatusDone:
		return true
	}
	return false
}

func ParseMeetingStatus(s string) (MeetingStatus, error) {
	if s == "" {
		return MeetingStatusUntouched, nil
	}
	st := MeetingStatus(s)
	if !st.IsValid() {
		return "", goerr.New("invalid meeting status", goerr.V("status", s))
	}
	return st, nil
}

// MeetingType is online (locationOrUrl holds a URL) or offline (a place)
type MeetingType string

const (
	MeetingTypeOnline  MeetingType = "online"
	MeetingTypeOffline MeetingType = "offline"
)

func (t MeetingType) IsValid() bool {
	return t == MeetingTypeOnline || t == MeetingTypeOffline
}

func ParseMeetingType(s string) (MeetingType, error) {
	if s == "" {
		return MeetingTypeOnline, nil
	}
	t := MeetingType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid meeting type", goerr.V("type", s))
	}
	return t, nil
}
