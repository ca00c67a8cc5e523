package review

import (
	"context"
	"time"
)

// Confidence holds the per-field confidence scores carried over from
// the scan, each an integer from 0 to 100.
type Confidence struct {
	Title  int `json:"title"`
	Amount int `json:"amount"`
	Date   int `json:"date"`
}

// Draft is a scanned receipt held for human review. Fields are
// best-effort extractions and may be corrected before confirmation;
// nothing is handed to the expense collaborator until then.
type Draft struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Amount     string     `json:"amount"` // decimal string, empty when nothing was found
	Date       string     `json:"date"`   // YYYY-MM-DD
	Category   string     `json:"category"`
	RawText    string     `json:"raw_text"`
	Confidence Confidence `json:"confidence"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ExpenseRecord is a confirmed, well-formed expense candidate
type ExpenseRecord struct {
	Title    string    `json:"title"`
	Amount   int       `json:"amount"` // Amount in cents
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

// ExpenseCreator is the downstream collaborator that persists confirmed
// expenses. This package only produces candidates; it never commits
// expense records itself.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, record ExpenseRecord) error
}
