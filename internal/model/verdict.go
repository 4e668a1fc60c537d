package model

// Outcome is the top-level result of a verification attempt.
type Outcome string

const (
	OutcomeAuthentic Outcome = "authentic"
	OutcomeMismatch  Outcome = "mismatch"
	OutcomeNotFound  Outcome = "not_found"
)

// Reason explains how an Outcome was reached.
type Reason string

const (
	ReasonExactMatch       Reason = "exact_match"
	ReasonOCRMatch         Reason = "ocr_match"
	ReasonContentDiffers   Reason = "content_differs"
	ReasonTextDiffers      Reason = "normalized_text_differs"
	ReasonNoTextExtracted  Reason = "no_text_extracted"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonOCRUnavailable   Reason = "ocr_unavailable"
	ReasonOCRDecodeError   Reason = "ocr_decode_error"
	ReasonDocumentNotFound Reason = "document_not_found"
	// Stored-object integrity checks.
	ReasonStoredIntact  Reason = "stored_intact"
	ReasonStoredAltered Reason = "stored_content_altered"
)

// Verdict is the adjudication of a presented file against a signed document.
type Verdict struct {
	DocumentID string  `json:"document_id"`
	Outcome    Outcome `json:"verdict"`
	Reason     Reason  `json:"reason"`
	Message    string  `json:"message"`
}

// Authentic reports whether the presented file was accepted.
func (v Verdict) Authentic() bool {
	return v.Outcome == OutcomeAuthentic
}
