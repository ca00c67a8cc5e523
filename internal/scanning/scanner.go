package scanning

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Scanner sequences the receipt pipeline: normalize the image, run OCR
// through the shared engine handle, extract the three fields from the
// recognized text and guess a category from the title.
type Scanner struct {
	engine     *Handle
	categories []Category
}

// NewScanner creates a Scanner around an engine handle using the
// default category table.
func NewScanner(engine *Handle) *Scanner {
	return NewScannerWithCategories(engine, DefaultCategories)
}

// NewScannerWithCategories creates a Scanner with a custom category table
func NewScannerWithCategories(engine *Handle, categories []Category) *Scanner {
	return &Scanner{
		engine:     engine,
		categories: categories,
	}
}

// ScanReceipt runs the full pipeline over raw image bytes and returns
// the structured result. A preprocessing or recognition failure aborts
// the scan; once text is obtained the pipeline always completes, with
// per-field confidence signaling how much of it was actually found.
func (s *Scanner) ScanReceipt(ctx context.Context, data []byte, contentType string) (*Result, error) {
	return s.scan(ctx, data, contentType, nil)
}

// ScanReceiptWithProgress is ScanReceipt with recognition progress
// relayed to the given channel as 0-100 percentages, monotonically
// non-decreasing. Sends never block: a tick the receiver is not ready
// for is dropped, not re-delivered. The channel is not closed by the
// scanner and is purely advisory.
func (s *Scanner) ScanReceiptWithProgress(ctx context.Context, data []byte, contentType string, progress chan<- int) (*Result, error) {
	return s.scan(ctx, data, contentType, progress)
}

func (s *Scanner) scan(ctx context.Context, data []byte, contentType string, progress chan<- int) (*Result, error) {
	normalized, err := NormalizeImage(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("preprocessing image: %w", err)
	}

	report := func(percent int) {
		if progress == nil {
			return
		}
		select {
		case progress <- percent:
		default:
		}
	}

	text, err := s.engine.Recognize(ctx, normalized, report)
	if err != nil {
		return nil, err
	}

	// The extractors are pure functions over the same immutable text,
	// so they run concurrently with no ordering between them.
	var title, amount, date Field
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		amount = ExtractAmount(text)
		return nil
	})
	g.Go(func() error {
		date = ExtractDate(text)
		return nil
	})
	g.Go(func() error {
		title = ExtractMerchant(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Title:    title,
		Amount:   amount,
		Date:     date,
		Category: GuessCategory(title.Value, s.categories),
		RawText:  text,
	}, nil
}

// Release tears down the underlying OCR engine. A later ScanReceipt
// creates a fresh instance.
func (s *Scanner) Release() error {
	return s.engine.Release()
}
