package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// transcribePrompt asks the model for a verbatim transcription only.
// All structured parsing stays in this package so every engine goes
// through the same field extractors.
const transcribePrompt = `Transcribe all text visible in this receipt image, exactly as written, one line of the receipt per line of output. Preserve numbers, currency symbols, dates and punctuation. Output only the transcribed text with no commentary, no markdown and no code blocks.`

// Gemini implements the Engine interface using Google Gemini vision as
// a remote OCR engine. It is substitutable for Tesseract: both return
// the full recognized text of a normalized receipt image.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Engine instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Recognize sends the PNG image to Gemini and returns the transcribed
// text. The API offers no incremental progress, so only the start and
// completion ticks are reported.
func (g *Gemini) Recognize(ctx context.Context, png []byte, report func(percent int)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if report != nil {
		report(0)
	}

	parts := []genai.Part{
		genai.ImageData("png", png),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	// Strip markdown fences the model sometimes adds despite the prompt
	text := strings.TrimSpace(responseText.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if report != nil {
		report(100)
	}
	return text, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
