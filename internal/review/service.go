package review

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/zombor/receipt-scanner/internal/scanning"
)

// Scanner runs the receipt pipeline over raw image bytes
type Scanner interface {
	ScanReceiptWithProgress(ctx context.Context, data []byte, contentType string, progress chan<- int) (*scanning.Result, error)
}

// IDGenerator generates unique IDs for drafts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles the scan-review-confirm flow
type Service struct {
	db          DB
	scanner     Scanner
	creator     ExpenseCreator
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner Scanner, creator ExpenseCreator) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		creator:     creator,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner Scanner, creator ExpenseCreator, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		creator:     creator,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessScan runs the pipeline over an uploaded receipt and saves the
// result as a draft awaiting review. The uploaded image itself is not
// stored. Progress ticks from recognition are logged at debug level.
func (s *Service) ProcessScan(ctx context.Context, filename string, data []byte, contentType string) (*Draft, error) {
	progress := make(chan int, 8)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for percent := range progress {
			slog.Debug("Scan progress", "filename", filename, "percent", percent)
		}
	}()

	result, err := s.scanner.ScanReceiptWithProgress(ctx, data, contentType, progress)
	close(progress)
	<-drained
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	now := s.timeSource.Now()
	draft := &Draft{
		ID:       s.idGenerator.Generate(),
		Title:    result.Title.Value,
		Amount:   result.Amount.Value,
		Date:     result.Date.Value,
		Category: result.Category,
		RawText:  result.RawText,
		Confidence: Confidence{
			Title:  result.Title.Confidence,
			Amount: result.Amount.Confidence,
			Date:   result.Date.Confidence,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	return draft, nil
}

// GetDraft retrieves a draft by ID
func (s *Service) GetDraft(id string) (*Draft, error) {
	draft, err := s.db.GetDraft(id)
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}
	return draft, nil
}

// ListDrafts returns all drafts awaiting review
func (s *Service) ListDrafts() ([]*Draft, error) {
	drafts, err := s.db.ListDrafts()
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft discards a draft without creating an expense
func (s *Service) DeleteDraft(id string) error {
	if err := s.db.DeleteDraft(id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// maxConfirmAmount bounds confirmed amounts the same way extraction
// bounds its candidates, so a manual correction cannot smuggle in a
// value the scanner would have rejected.
const maxConfirmAmount = 10_000_000

// Corrections carries the reviewer's manual overrides. Empty fields
// keep the extracted value.
type Corrections struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// ConfirmDraft turns a reviewed draft into an expense record, hands it
// to the expense creator and deletes the draft. The draft survives if
// the creator fails, so confirmation can be retried.
func (s *Service) ConfirmDraft(ctx context.Context, id string, corrections Corrections) (*ExpenseRecord, error) {
	draft, err := s.db.GetDraft(id)
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}

	title := draft.Title
	if corrections.Title != "" {
		title = corrections.Title
	}
	amount := draft.Amount
	if corrections.Amount != "" {
		amount = corrections.Amount
	}
	category := draft.Category
	if corrections.Category != "" {
		category = corrections.Category
	}
	dateValue := draft.Date
	if corrections.Date != "" {
		dateValue = corrections.Date
	}

	// ParseFloat accepts "NaN" and "Inf", and neither compares below
	// zero, so they need explicit rejection
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if value <= 0 || value >= maxConfirmAmount {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	date, err := time.Parse("2006-01-02", dateValue)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", dateValue, err)
	}

	record := ExpenseRecord{
		Title:    title,
		Amount:   int(math.Round(value * 100)),
		Category: category,
		Date:     date,
	}

	if err := s.creator.CreateExpense(ctx, record); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	if err := s.db.DeleteDraft(id); err != nil {
		// The expense exists; losing the draft cleanup is not fatal
		slog.Warn("Failed to delete confirmed draft", "id", id, "error", err)
	}

	return &record, nil
}
