package service

import (
	"context"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/config"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/utils"
	"github.com/Aashish23092/ocr-marksheet-verification/utils/imageprep"
	"go.uber.org/zap"
)

// RetryDPI is the minimum density of the forced OCR retry.
const RetryDPI = 300

type MarksheetService struct {
	acquirer *TextAcquirer
}

func NewMarksheetService(acquirer *TextAcquirer) *MarksheetService {
	return &MarksheetService{
		acquirer: acquirer,
	}
}

// NewMarksheetServiceFromConfig wires the PDF text layer, the page
// rasterizer and the recognizer into a service.
func NewMarksheetServiceFromConfig(cfg *config.Config, recognizer Recognizer) *MarksheetService {
	imageOCR := NewImageOCR(recognizer, imageprep.Options{AdaptiveThreshold: cfg.AdaptiveThreshold}, cfg.OCRWorkers)
	acquirer := NewTextAcquirer(
		NewPDFProcessor(),
		client.NewFitzRasterizer(cfg.RasterizePages),
		recognizer,
		imageOCR,
		AcquisitionConfigFrom(cfg),
	)
	return NewMarksheetService(acquirer)
}

// AcquireText returns the raw document text or a *dto.DiagnosticError.
func (s *MarksheetService) AcquireText(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) (string, error) {
	return s.acquirer.AcquireText(ctx, doc, opts)
}

// ExtractTextWithDiagnostics returns the full acquisition report.
func (s *MarksheetService) ExtractTextWithDiagnostics(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) dto.AcquisitionResult {
	return s.acquirer.Acquire(ctx, doc, opts)
}

// ExtractMarksheetFields acquires, normalizes and extracts the document.
// Acquisition failures are returned as *dto.DiagnosticError.
func (s *MarksheetService) ExtractMarksheetFields(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) (*dto.ExtractedFields, error) {
	fields, _, err := s.extract(ctx, doc, opts)
	return fields, err
}

// FieldsFromAcquisition extracts fields from an acquisition already made.
func FieldsFromAcquisition(res dto.AcquisitionResult) (*dto.ExtractedFields, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}
	return utils.ExtractFields(utils.Normalize(res.Text))
}

func (s *MarksheetService) extract(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) (*dto.ExtractedFields, dto.AcquisitionResult, error) {
	res := s.acquirer.Acquire(ctx, doc, opts)
	fields, err := FieldsFromAcquisition(res)
	return fields, res, err
}

// VerifyAcademicRecord checks the declared value against the document. When
// a PDF fails verification it is read once more with forced OCR at no less
// than RetryDPI; the retry's outcome replaces the first one only when it
// found a value to compare.
func (s *MarksheetService) VerifyAcademicRecord(
	ctx context.Context,
	stage dto.Stage,
	entered float64,
	doc dto.RawDocument,
	opts AcquireOptions,
	tolerance float64,
) dto.VerificationOutcome {
	first := s.attempt(ctx, stage, entered, doc, opts, tolerance, 1)
	if first.Verified || doc.Type() != dto.DocTypePDF {
		return first
	}

	retryOpts := opts
	retryOpts.Method = dto.MethodOCR
	dpi := opts.DPI
	if dpi == 0 {
		dpi = s.acquirer.cfg.DefaultDPI
	}
	retryOpts.DPI = max(dpi, RetryDPI)

	logger.Info("verification failed, retrying with forced ocr",
		zap.String("stage", string(stage)),
		zap.Int("dpi", retryOpts.DPI),
		zap.String("source", string(first.ComparisonSource)),
	)
	retry := s.attempt(ctx, stage, entered, doc, retryOpts, tolerance, 2)
	if retry.ExtractedValue != nil {
		return retry
	}
	first.Attempts = 2
	return first
}

func (s *MarksheetService) attempt(
	ctx context.Context,
	stage dto.Stage,
	entered float64,
	doc dto.RawDocument,
	opts AcquireOptions,
	tolerance float64,
	n int,
) dto.VerificationOutcome {
	fields, res, err := s.extract(ctx, doc, opts)
	out := Verify(stage, entered, fields, tolerance)
	out.Attempts = n
	out.Method = string(res.DecidedMethod)
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
