package scanning

import (
	"context"
	"fmt"
	"sync"
)

// EngineFactory creates a new OCR engine instance
type EngineFactory func() (Engine, error)

// Handle owns at most one live Engine at a time. The engine is created
// lazily from the factory on first Recognize and reused across scans
// until Release is called; the next Recognize after Release re-creates
// it. All engine access is serialized, so concurrent scans cannot
// interleave one scan's configuration with another's recognition call.
type Handle struct {
	mu      sync.Mutex
	factory EngineFactory
	engine  Engine
}

// NewHandle creates a Handle around the given factory. The factory is
// not invoked until the first recognition.
func NewHandle(factory EngineFactory) *Handle {
	return &Handle{factory: factory}
}

// Recognize runs OCR on a normalized PNG image, creating the engine if
// needed. Engine creation failure wraps ErrEngineUnavailable; a
// recognition failure wraps ErrRecognition and is not retried.
func (h *Handle) Recognize(ctx context.Context, png []byte, report func(percent int)) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		engine, err := h.factory()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		h.engine = engine
	}

	text, err := h.engine.Recognize(ctx, png, report)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	return text, nil
}

// Release tears down the active engine instance. It is idempotent and
// safe to call while no engine exists.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return nil
	}
	err := h.engine.Close()
	h.engine = nil
	if err != nil {
		return fmt.Errorf("closing ocr engine: %w", err)
	}
	return nil
}
