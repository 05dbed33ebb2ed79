package dto

import "strings"

type DocumentType string

const (
	DocTypePDF   DocumentType = "pdf"
	DocTypeImage DocumentType = "image"
)

// DocumentTypeFromMediaType maps a declared media type onto the two
// acquisition paths. Unknown types are treated as PDF.
func DocumentTypeFromMediaType(mediaType string) DocumentType {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/") {
		return DocTypeImage
	}
	return DocTypePDF
}

// RawDocument is an uploaded document and its declared media type.
type RawDocument struct {
	Data      []byte
	MediaType string
}

func (d RawDocument) Type() DocumentType {
	return DocumentTypeFromMediaType(d.MediaType)
}

// Method is the requested acquisition strategy.
type Method string

const (
	MethodAuto Method = "auto"
	MethodText Method = "text"
	MethodOCR  Method = "ocr"
)

// DecidedMethod is the strategy that actually produced text.
type DecidedMethod string

const (
	DecidedText DecidedMethod = "TEXT"
	DecidedOCR  DecidedMethod = "OCR"
	DecidedNone DecidedMethod = "NONE"
)

// AcquisitionResult describes a single text acquisition attempt.
type AcquisitionResult struct {
	Text           string        `json:"text"`
	DecidedMethod  DecidedMethod `json:"decided_method"`
	TextLayerFound bool          `json:"text_layer_found"`
	OCRAvailable   bool          `json:"ocr_available"`
	RasterizeOK    bool          `json:"rasterize_ok"`
	OCROK          bool          `json:"ocr_ok"`
	Warnings       []string      `json:"warnings"`
	Diagnostic     Diagnostic    `json:"diagnostic,omitempty"`
	Pages          int           `json:"pages"`
	DPI            int           `json:"dpi"`
}

// Err returns the acquisition failure as an error, or nil when text was produced.
func (r AcquisitionResult) Err() error {
	if r.Diagnostic == DiagnosticNone {
		return nil
	}
	return NewDiagnosticError(r.Diagnostic, "")
}

// DisplayText returns the text, or the marker string when acquisition failed.
func (r AcquisitionResult) DisplayText() string {
	if r.Diagnostic != DiagnosticNone {
		return r.Diagnostic.Message()
	}
	return r.Text
}
