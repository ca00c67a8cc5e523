package scanning

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Engine interface using a local Tesseract
// installation via gosseract. Requires the tesseract shared library and
// language data to be present on the host.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a new Tesseract Engine instance with the given
// language (e.g. "eng") and the receipt character whitelist applied.
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetWhitelist(CharWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting character whitelist: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Recognize runs Tesseract over the PNG image and returns the full
// recognized text. Tesseract does not expose incremental progress, so
// only the start and completion ticks are reported.
func (t *Tesseract) Recognize(ctx context.Context, png []byte, report func(percent int)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if report != nil {
		report(0)
	}

	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	if report != nil {
		report(100)
	}
	return text, nil
}

// Close releases the underlying Tesseract client
func (t *Tesseract) Close() error {
	return t.client.Close()
}
