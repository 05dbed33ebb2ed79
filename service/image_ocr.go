package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/utils"
	"github.com/Aashish23092/ocr-marksheet-verification/utils/imageprep"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ImageOCR recognizes uploaded images by running every preprocessed variant
// through every engine configuration and merging the outputs.
type ImageOCR struct {
	recognizer Recognizer
	configs    []client.EngineConfig
	options    imageprep.Options
	workers    int
}

func NewImageOCR(recognizer Recognizer, options imageprep.Options, workers int) *ImageOCR {
	if workers < 1 {
		workers = 1
	}
	return &ImageOCR{
		recognizer: recognizer,
		configs:    client.VariantConfigs,
		options:    options,
		workers:    workers,
	}
}

// ExtractFromImage recognizes the image and extracts the marksheet fields
// from the merged text.
func (o *ImageOCR) ExtractFromImage(ctx context.Context, data []byte, lang string) (*dto.ExtractedFields, error) {
	res := o.RecognizeImage(ctx, data, lang)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return utils.ExtractFields(utils.Normalize(res.Text))
}

// RecognizeImage returns the merged recognition output of all passes in
// variant then configuration order, followed by any QR payload.
func (o *ImageOCR) RecognizeImage(ctx context.Context, data []byte, lang string) dto.AcquisitionResult {
	res := dto.AcquisitionResult{DecidedMethod: dto.DecidedNone, Warnings: []string{}, Pages: 1}
	if len(data) == 0 {
		return fail(res, dto.DiagnosticEmptyDocument)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("decode image: %v", err))
		return fail(res, dto.DiagnosticUnreadableDocument)
	}
	res.RasterizeOK = true

	if o.recognizer == nil {
		return fail(res, dto.DiagnosticOCRUnavailable)
	}
	if err := o.recognizer.Available(lang); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("recognizer unavailable: %v", err))
		return fail(res, dto.DiagnosticOCRUnavailable)
	}
	res.OCRAvailable = true

	variants := imageprep.Build(img, o.options)
	outputs := make([]string, len(variants)*len(o.configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for vi, v := range variants {
		for ci, cfg := range o.configs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outputs[vi*len(o.configs)+ci] = strings.TrimSpace(safeRecognize(o.recognizer, v.Image, lang, cfg))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("recognition interrupted: %v", err))
	}

	var blocks []string
	for _, out := range outputs {
		if out != "" {
			blocks = append(blocks, out)
		}
	}
	if payload := decodeQR(img); payload != "" {
		blocks = append(blocks, payload)
	}

	logger.Info("image ocr finished",
		zap.String("format", format),
		zap.Int("variants", len(variants)),
		zap.Int("passes", len(outputs)),
		zap.Int("blocks", len(blocks)),
	)
	if len(blocks) == 0 {
		return fail(res, dto.DiagnosticOCRProducedNothing)
	}
	res.OCROK = true
	return succeed(res, strings.Join(blocks, "\n\n"), dto.DecidedOCR)
}

// decodeQR returns the text of a QR code on the image, or "".
func decodeQR(img image.Image) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("qr decoder panicked", zap.Any("panic", r))
			text = ""
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return ""
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return ""
	}
	logger.Debug("qr code decoded", zap.Int("bytes", len(result.GetText())))
	return strings.TrimSpace(result.GetText())
}
