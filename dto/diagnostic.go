package dto

import "strings"

// Diagnostic tags an anticipated acquisition failure. The empty value means
// the acquisition produced text.
type Diagnostic string

const (
	DiagnosticNone               Diagnostic = ""
	DiagnosticNoTextLayer        Diagnostic = "NO_TEXT_LAYER"
	DiagnosticOCRUnavailable     Diagnostic = "OCR_UNAVAILABLE"
	DiagnosticRasterizeFailed    Diagnostic = "RASTERIZE_FAILED"
	DiagnosticOCRProducedNothing Diagnostic = "OCR_EMPTY"
	DiagnosticEmptyDocument      Diagnostic = "EMPTY_DOCUMENT"
	DiagnosticUnreadableDocument Diagnostic = "UNREADABLE_DOCUMENT"
)

var diagnosticMessages = map[Diagnostic]string{
	DiagnosticNoTextLayer:        "[NO_TEXT_LAYER] No embedded text layer found in the PDF",
	DiagnosticOCRUnavailable:     "[OCR_UNAVAILABLE] OCR is not available: page rasterizer or text recognizer is missing",
	DiagnosticRasterizeFailed:    "[RASTERIZE_FAILED] Could not render the PDF pages to images",
	DiagnosticOCRProducedNothing: "[OCR_EMPTY] OCR ran but recognized no text",
	DiagnosticEmptyDocument:      "[EMPTY_DOCUMENT] The uploaded document is empty",
	DiagnosticUnreadableDocument: "[UNREADABLE_DOCUMENT] The uploaded file could not be decoded as a PDF or image",
}

// Message returns the human-readable marker string for the diagnostic.
func (d Diagnostic) Message() string {
	if msg, ok := diagnosticMessages[d]; ok {
		return msg
	}
	return ""
}

// DiagnosticFromText reports whether text is one of the marker strings, for
// callers that only kept the text of an acquisition.
func DiagnosticFromText(text string) (Diagnostic, bool) {
	trimmed := strings.TrimSpace(text)
	for d := range diagnosticMessages {
		if strings.HasPrefix(trimmed, "["+string(d)+"]") {
			return d, true
		}
	}
	return DiagnosticNone, false
}

// DiagnosticError carries a Diagnostic through an error return.
type DiagnosticError struct {
	Diagnostic Diagnostic
	Detail     string
}

func NewDiagnosticError(d Diagnostic, detail string) *DiagnosticError {
	return &DiagnosticError{Diagnostic: d, Detail: detail}
}

func (e *DiagnosticError) Error() string {
	if e.Detail == "" {
		return e.Diagnostic.Message()
	}
	return e.Diagnostic.Message() + ": " + e.Detail
}
