package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/config"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/utils/imageprep"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Rasterizer renders PDF pages to images.
type Rasterizer interface {
	Available() error
	PageCount(pdfData []byte) (int, error)
	RenderPage(pdfData []byte, page, dpi int) (image.Image, error)
}

// Recognizer turns an image into text.
type Recognizer interface {
	Available(lang string) error
	Recognize(img image.Image, lang string, cfg client.EngineConfig) (string, error)
}

// AcquisitionConfig is the explicit configuration of the acquisition cascade.
type AcquisitionConfig struct {
	DefaultDPI      int
	MinDPI          int
	MaxDPI          int
	DefaultLanguage string
	// MinTextLayerChars is the trimmed text layer length auto mode accepts
	// without falling back to OCR.
	MinTextLayerChars int
	Workers           int
}

// DefaultAcquisitionConfig mirrors the documented defaults.
func DefaultAcquisitionConfig() AcquisitionConfig {
	return AcquisitionConfig{
		DefaultDPI:        dto.DefaultDPI,
		MinDPI:            dto.MinDPI,
		MaxDPI:            dto.MaxDPI,
		DefaultLanguage:   dto.DefaultLanguage,
		MinTextLayerChars: 20,
		Workers:           1,
	}
}

// AcquisitionConfigFrom maps the service configuration onto the cascade.
func AcquisitionConfigFrom(cfg *config.Config) AcquisitionConfig {
	return AcquisitionConfig{
		DefaultDPI:        cfg.DefaultDPI,
		MinDPI:            cfg.MinDPI,
		MaxDPI:            cfg.MaxDPI,
		DefaultLanguage:   cfg.DefaultLanguage,
		MinTextLayerChars: cfg.MinTextLayerChars,
		Workers:           cfg.OCRWorkers,
	}
}

// AcquireOptions are the per-call acquisition options. Zero values select
// the configured defaults.
type AcquireOptions struct {
	Method   dto.Method
	DPI      int
	Language string
}

// TextAcquirer obtains the text of a document from its embedded text layer
// or through OCR.
type TextAcquirer struct {
	pdfProcessor PDFProcessor
	rasterizer   Rasterizer
	recognizer   Recognizer
	imageOCR     *ImageOCR
	cfg          AcquisitionConfig
}

func NewTextAcquirer(
	pdfProcessor PDFProcessor,
	rasterizer Rasterizer,
	recognizer Recognizer,
	imageOCR *ImageOCR,
	cfg AcquisitionConfig,
) *TextAcquirer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &TextAcquirer{
		pdfProcessor: pdfProcessor,
		rasterizer:   rasterizer,
		recognizer:   recognizer,
		imageOCR:     imageOCR,
		cfg:          cfg,
	}
}

// AcquireText returns the document text, or a *dto.DiagnosticError naming
// why none could be produced.
func (a *TextAcquirer) AcquireText(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) (string, error) {
	res := a.Acquire(ctx, doc, opts)
	if err := res.Err(); err != nil {
		return "", err
	}
	return res.Text, nil
}

// Acquire runs the acquisition cascade and reports every decision it took.
// It never fails; failures are carried as the result's Diagnostic.
func (a *TextAcquirer) Acquire(ctx context.Context, doc dto.RawDocument, opts AcquireOptions) dto.AcquisitionResult {
	res := dto.AcquisitionResult{DecidedMethod: dto.DecidedNone, Warnings: []string{}}
	method, dpi, lang := a.resolve(opts, &res)
	res.DPI = dpi

	if len(doc.Data) == 0 {
		return fail(res, dto.DiagnosticEmptyDocument)
	}

	if doc.Type() == dto.DocTypeImage {
		if method == dto.MethodText {
			res.Warnings = append(res.Warnings, "images carry no text layer")
			return fail(res, dto.DiagnosticNoTextLayer)
		}
		if a.imageOCR == nil {
			return fail(res, dto.DiagnosticOCRUnavailable)
		}
		imgRes := a.imageOCR.RecognizeImage(ctx, doc.Data, lang)
		imgRes.DPI = dpi
		imgRes.Warnings = append(res.Warnings, imgRes.Warnings...)
		return imgRes
	}

	if !looksLikePDF(doc.Data) {
		res.Warnings = append(res.Warnings, "missing PDF header")
		return fail(res, dto.DiagnosticUnreadableDocument)
	}

	if n, err := a.pdfProcessor.PageCount(doc.Data); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("page count unavailable: %v", err))
	} else {
		res.Pages = n
	}

	switch method {
	case dto.MethodText:
		text := a.textLayer(doc.Data)
		if strings.TrimSpace(text) == "" {
			return fail(res, dto.DiagnosticNoTextLayer)
		}
		res.TextLayerFound = true
		return succeed(res, text, dto.DecidedText)

	case dto.MethodOCR:
		// Without a rasterizer the embedded page images can still be read.
		if err := a.recognizerAvailable(lang); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			return fail(res, dto.DiagnosticOCRUnavailable)
		}
		if err := a.ocrAvailable(lang); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.OCRAvailable = true
		}
		return a.ocr(ctx, doc.Data, dpi, lang, res)

	default:
		text := a.textLayer(doc.Data)
		trimmed := strings.TrimSpace(text)
		if chars := utf8.RuneCountInString(trimmed); chars >= a.cfg.MinTextLayerChars {
			res.TextLayerFound = true
			logger.Debug("text layer accepted", zap.Int("chars", chars))
			return succeed(res, text, dto.DecidedText)
		}
		if trimmed != "" {
			res.TextLayerFound = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("text layer shorter than %d characters, trying OCR", a.cfg.MinTextLayerChars))
		}
		if err := a.ocrAvailable(lang); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			return fail(res, dto.DiagnosticOCRUnavailable)
		}
		res.OCRAvailable = true
		return a.ocr(ctx, doc.Data, dpi, lang, res)
	}
}

func (a *TextAcquirer) resolve(opts AcquireOptions, res *dto.AcquisitionResult) (dto.Method, int, string) {
	method := opts.Method
	if method == "" {
		method = dto.MethodAuto
	}

	dpi := opts.DPI
	if dpi == 0 {
		dpi = a.cfg.DefaultDPI
	}
	if dpi < a.cfg.MinDPI || dpi > a.cfg.MaxDPI {
		clamped := min(max(dpi, a.cfg.MinDPI), a.cfg.MaxDPI)
		res.Warnings = append(res.Warnings, fmt.Sprintf("dpi %d out of range, using %d", dpi, clamped))
		dpi = clamped
	}

	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = a.cfg.DefaultLanguage
	}
	return method, dpi, lang
}

func (a *TextAcquirer) ocrAvailable(lang string) error {
	if a.rasterizer == nil {
		return fmt.Errorf("no rasterizer configured")
	}
	if err := a.rasterizer.Available(); err != nil {
		return fmt.Errorf("rasterizer unavailable: %w", err)
	}
	return a.recognizerAvailable(lang)
}

func (a *TextAcquirer) recognizerAvailable(lang string) error {
	if a.recognizer == nil {
		return fmt.Errorf("no recognizer configured")
	}
	if err := a.recognizer.Available(lang); err != nil {
		return fmt.Errorf("recognizer unavailable: %w", err)
	}
	return nil
}

// textLayer reads the embedded text. Parser failures yield "".
func (a *TextAcquirer) textLayer(pdfData []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("text layer extraction panicked", zap.Any("panic", r))
			text = ""
		}
	}()
	text, err := a.pdfProcessor.ExtractText(pdfData)
	if err != nil {
		logger.Warn("text layer extraction failed", zap.Error(err))
		return ""
	}
	return text
}

func (a *TextAcquirer) ocr(ctx context.Context, pdfData []byte, dpi int, lang string, res dto.AcquisitionResult) dto.AcquisitionResult {
	pages, err := a.renderPages(ctx, pdfData, dpi)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		pages = a.embeddedImages(pdfData)
		if len(pages) == 0 {
			return fail(res, dto.DiagnosticRasterizeFailed)
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("using %d embedded page images", len(pages)))
	}
	res.RasterizeOK = true

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, page := range pages {
		if page == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts[i] = strings.TrimSpace(safeRecognize(a.recognizer, imageprep.Grayscale(page), lang, client.ConfigDefault))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("recognition interrupted: %v", err))
	}

	var blocks []string
	for _, t := range texts {
		if t != "" {
			blocks = append(blocks, t)
		}
	}
	logger.Info("pdf ocr finished",
		zap.Int("pages", len(pages)),
		zap.Int("pages_with_text", len(blocks)),
		zap.Int("dpi", dpi),
	)
	if len(blocks) == 0 {
		return fail(res, dto.DiagnosticOCRProducedNothing)
	}
	res.OCROK = true
	return succeed(res, strings.Join(blocks, "\n\n"), dto.DecidedOCR)
}

// renderPages renders every page. A page that fails to render is left nil;
// the document counts as failed only when no page rendered.
func (a *TextAcquirer) renderPages(ctx context.Context, pdfData []byte, dpi int) ([]image.Image, error) {
	if a.rasterizer == nil {
		return nil, &client.RasterizationError{Page: -1, Err: fmt.Errorf("no rasterizer configured")}
	}
	n, err := safePageCount(a.rasterizer, pdfData)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &client.RasterizationError{Page: -1, Err: fmt.Errorf("document has no pages")}
	}

	pages := make([]image.Image, n)
	errs := make([]error, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages[i], errs[i] = safeRender(a.rasterizer, pdfData, i, dpi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rendered := 0
	for i, err := range errs {
		if err != nil {
			logger.Warn("page render failed", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		rendered++
	}
	if rendered == 0 {
		return nil, errs[0]
	}
	return pages, nil
}

func (a *TextAcquirer) embeddedImages(pdfData []byte) (images []image.Image) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("embedded image extraction panicked", zap.Any("panic", r))
			images = nil
		}
	}()
	images, err := a.pdfProcessor.ExtractImages(pdfData)
	if err != nil {
		logger.Warn("embedded image extraction failed", zap.Error(err))
		return nil
	}
	return images
}

// looksLikePDF checks for the header within the first kilobyte, where
// readers tolerate leading junk.
func looksLikePDF(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, []byte("%PDF-"))
}

func safePageCount(r Rasterizer, pdfData []byte) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, err = 0, &client.RasterizationError{Page: -1, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return r.PageCount(pdfData)
}

func safeRender(r Rasterizer, pdfData []byte, page, dpi int) (img image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, &client.RasterizationError{Page: page, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return r.RenderPage(pdfData, page, dpi)
}

// safeRecognize runs one recognition pass. Errors and panics yield "".
func safeRecognize(r Recognizer, img image.Image, lang string, cfg client.EngineConfig) (text string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("recognizer panicked", zap.String("config", cfg.Name), zap.Any("panic", p))
			text = ""
		}
	}()
	text, err := r.Recognize(img, lang, cfg)
	if err != nil {
		logger.Debug("recognition pass failed", zap.String("config", cfg.Name), zap.Error(err))
		return ""
	}
	return text
}

func fail(res dto.AcquisitionResult, d dto.Diagnostic) dto.AcquisitionResult {
	res.Text = ""
	res.DecidedMethod = dto.DecidedNone
	res.Diagnostic = d
	logger.Info("acquisition failed", zap.String("diagnostic", string(d)), zap.Strings("warnings", res.Warnings))
	return res
}

func succeed(res dto.AcquisitionResult, text string, method dto.DecidedMethod) dto.AcquisitionResult {
	res.Text = text
	res.DecidedMethod = method
	res.Diagnostic = dto.DiagnosticNone
	logger.Info("acquisition succeeded", zap.String("method", string(method)), zap.Int("chars", len(text)))
	return res
}
