// Package ocr turns document bytes into comparison-stable text.
//
// The OCR engine itself is an external collaborator reached through Extractor; this
// package owns the normalization rules and the timeout policy around it.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable covers backend failures, timeouts and a disabled backend.
	ErrUnavailable = errors.New("ocr backend unavailable")
	// ErrDecode means the backend could not read the document.
	ErrDecode = errors.New("ocr could not decode document")
)

// Input is a document handed to the OCR backend.
type Input struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Extractor returns raw text for a document.
type Extractor interface {
	Extract(ctx context.Context, in Input) (string, error)
}

// Normalizer runs an Extractor under a deadline and normalizes its output.
type Normalizer struct {
	extractor Extractor
	timeout   time.Duration
}

// NewNormalizer wraps extractor; every call is bounded by timeout.
func NewNormalizer(extractor Extractor, timeout time.Duration) *Normalizer {
	return &Normalizer{extractor: extractor, timeout: timeout}
}

// ExtractText returns the normalized text of in.
// Backend timeouts surface as ErrUnavailable; cancellation by the caller is returned as is.
func (n *Normalizer) ExtractText(ctx context.Context, in Input) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	raw, err := n.extractor.Extract(callCtx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, ErrDecode) || errors.Is(err, ErrUnavailable) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrUnavailable, n.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Normalize(raw), nil
}

// Disabled is the Extractor used when no OCR backend is configured.
type Disabled struct{}

func (Disabled) Extract(context.Context, Input) (string, error) {
	return "", fmt.Errorf("%w: disabled by configuration", ErrUnavailable)
}
