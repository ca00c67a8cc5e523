package scanning

import (
	"context"
	"errors"
)

// Field pairs an extracted value with a confidence score.
// Confidence is an integer from 0 to 100 expressing how reliable the
// extraction heuristics consider the value, independent of any
// engine-reported recognition confidence.
type Field struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

// Result contains the structured data extracted from a receipt.
// RawText is the full recognized text, kept for audit and debugging.
type Result struct {
	Title    Field  `json:"title"`
	Amount   Field  `json:"amount"` // decimal string, e.g. "45.67"
	Date     Field  `json:"date"`   // ISO 8601 format (YYYY-MM-DD)
	Category string `json:"category"`
	RawText  string `json:"raw_text"`
}

// Engine defines the interface for OCR engine implementations.
// Recognize takes a normalized PNG image and returns the full recognized
// text. The report callback, if non-nil, receives progress percentages
// that are monotonically non-decreasing from 0 to 100; it is advisory
// and implementations may call it zero or more times.
type Engine interface {
	Recognize(ctx context.Context, png []byte, report func(percent int)) (string, error)

	// Close releases engine resources
	Close() error
}

// CharWhitelist restricts recognition to characters that actually occur
// on receipts, cutting down on misrecognition noise.
const CharWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.$₹€£/-:, "

var (
	// ErrImageDecode indicates the input could not be decoded as a
	// raster image. The scan is aborted, no OCR is attempted.
	ErrImageDecode = errors.New("image decode failed")

	// ErrEngineUnavailable indicates the OCR engine could not be
	// created (e.g. missing recognition-model assets). Retryable by a
	// later call.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrRecognition indicates the engine aborted mid-recognition. No
	// partial text is trusted.
	ErrRecognition = errors.New("recognition failed")
)
