package model

import "time"

type RecordID string

// Record is an append-only progress note on a case
type Record struct {
	ID            RecordID
	CaseID        CaseID
	Content       string
	Author        string
	AttachmentURL string
	CreatedAt     time.Time
}

type AIExchangeID string

// AIExchange is one question/answer pair with the assistant. Only
// successful completions are stored.
type AIExchange struct {
	ID        AIExchangeID
	CaseID    CaseID
	Prompt    string
	Response  string
	CreatedAt time.Time
}
