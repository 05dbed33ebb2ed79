package service

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfDoc() dto.RawDocument {
	return dto.RawDocument{Data: fakePDFBytes, MediaType: "application/pdf"}
}

func TestAcquire_AutoAcceptsTextLayer(t *testing.T) {
	layer := "  Name: RAHUL SHARMA\nPercentage: 78.33  "
	rec := &fakeRecognizer{unavailable: errUnavailable}
	a := newTestAcquirer(&fakePDF{text: layer, pages: 1}, &fakeRasterizer{unavailable: errUnavailable}, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DecidedText, res.DecidedMethod)
	assert.Equal(t, layer, res.Text)
	assert.True(t, res.TextLayerFound)
	assert.Equal(t, dto.DiagnosticNone, res.Diagnostic)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, dto.DefaultDPI, res.DPI)
	assert.Zero(t, rec.callCount())
	assert.NoError(t, res.Err())
}

func TestAcquire_AutoFallsBackToOCR(t *testing.T) {
	rec := &fakeRecognizer{recognize: pageNumberText}
	rast := &fakeRasterizer{pages: 3}
	a := newTestAcquirer(&fakePDF{text: "short", pages: 3}, rast, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DecidedOCR, res.DecidedMethod)
	assert.Equal(t, "page 1\n\npage 2\n\npage 3", res.Text)
	assert.True(t, res.TextLayerFound)
	assert.True(t, res.OCRAvailable)
	assert.True(t, res.RasterizeOK)
	assert.True(t, res.OCROK)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, 3, rec.callCount())
}

func TestAcquire_AutoCountsCharactersNotBytes(t *testing.T) {
	// eleven Devanagari characters, thirty-one bytes
	layer := "\u092a\u094d\u0930\u092e\u093e\u0923 \u092a\u0924\u094d\u0930"
	rec := &fakeRecognizer{recognize: constantText("Percentage: 71.4")}
	a := newTestAcquirer(&fakePDF{text: layer, pages: 1}, &fakeRasterizer{pages: 1}, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DecidedOCR, res.DecidedMethod)
	assert.Equal(t, "Percentage: 71.4", res.Text)
	assert.True(t, res.TextLayerFound)
	assert.Equal(t, 1, rec.callCount())
}

func TestAcquire_AutoWithoutOCR(t *testing.T) {
	rec := &fakeRecognizer{unavailable: errUnavailable}
	a := newTestAcquirer(&fakePDF{}, &fakeRasterizer{pages: 1}, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodAuto})

	assert.Equal(t, dto.DecidedNone, res.DecidedMethod)
	assert.Equal(t, dto.DiagnosticOCRUnavailable, res.Diagnostic)
	assert.False(t, res.OCRAvailable)
	assert.Empty(t, res.Text)
	assert.Equal(t, dto.DiagnosticOCRUnavailable.Message(), res.DisplayText())
	assert.Zero(t, rec.callCount())

	_, err := a.AcquireText(context.Background(), pdfDoc(), AcquireOptions{})
	var derr *dto.DiagnosticError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, dto.DiagnosticOCRUnavailable, derr.Diagnostic)
}

func TestAcquire_TextMethodWithoutLayer(t *testing.T) {
	a := newTestAcquirer(&fakePDF{text: "   "}, &fakeRasterizer{pages: 1}, &fakeRecognizer{})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodText})

	assert.Equal(t, dto.DiagnosticNoTextLayer, res.Diagnostic)
	assert.False(t, res.TextLayerFound)
}

func TestAcquire_TextMethodShortLayer(t *testing.T) {
	a := newTestAcquirer(&fakePDF{text: "CGPA 7.1"}, nil, nil)

	text, err := a.AcquireText(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodText})

	require.NoError(t, err)
	assert.Equal(t, "CGPA 7.1", text)
}

func TestAcquire_OCRSkipsTextLayer(t *testing.T) {
	rec := &fakeRecognizer{recognize: constantText("Roll No 12345")}
	a := newTestAcquirer(&fakePDF{text: "a perfectly good embedded text layer"}, &fakeRasterizer{pages: 1}, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR})

	assert.Equal(t, dto.DecidedOCR, res.DecidedMethod)
	assert.Equal(t, "Roll No 12345", res.Text)
	assert.False(t, res.TextLayerFound)
}

func TestAcquire_OCRMethodWithoutRecognizer(t *testing.T) {
	rast := &fakeRasterizer{pages: 1}
	rec := &fakeRecognizer{unavailable: errUnavailable}
	a := newTestAcquirer(&fakePDF{text: "a perfectly good embedded text layer"}, rast, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR})

	assert.Equal(t, dto.DiagnosticOCRUnavailable, res.Diagnostic)
	assert.False(t, res.OCRAvailable)
	assert.Empty(t, rast.dpis)
	assert.Zero(t, rec.callCount())

	res = newTestAcquirer(&fakePDF{}, rast, nil).Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR})
	assert.Equal(t, dto.DiagnosticOCRUnavailable, res.Diagnostic)
}

func TestAcquire_RasterizeFailed(t *testing.T) {
	rast := &fakeRasterizer{pages: 2, renderErr: errors.New("mupdf: broken xref")}
	a := newTestAcquirer(&fakePDF{}, rast, &fakeRecognizer{recognize: constantText("x")})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR})

	assert.Equal(t, dto.DiagnosticRasterizeFailed, res.Diagnostic)
	assert.False(t, res.RasterizeOK)
	assert.Equal(t, dto.DecidedNone, res.DecidedMethod)
}

func TestAcquire_EmbeddedImageFallback(t *testing.T) {
	pdf := &fakePDF{images: []image.Image{pageImage(0), pageImage(1)}}
	rast := &fakeRasterizer{countErr: &client.RasterizationError{Page: -1, Err: errors.New("cannot open")}}
	a := newTestAcquirer(pdf, rast, &fakeRecognizer{recognize: pageNumberText})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR})

	assert.Equal(t, dto.DecidedOCR, res.DecidedMethod)
	assert.Equal(t, "page 1\n\npage 2", res.Text)
	assert.True(t, res.RasterizeOK)
	assert.Contains(t, res.Warnings, "using 2 embedded page images")
}

func TestAcquire_OCRProducedNothing(t *testing.T) {
	a := newTestAcquirer(&fakePDF{}, &fakeRasterizer{pages: 2}, &fakeRecognizer{recognize: constantText("  \n ")})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DiagnosticOCRProducedNothing, res.Diagnostic)
	assert.True(t, res.RasterizeOK)
	assert.False(t, res.OCROK)
}

func TestAcquire_RecognizerPanicIsContained(t *testing.T) {
	rec := &fakeRecognizer{recognize: func(image.Image, client.EngineConfig) (string, error) {
		panic("tesseract crashed")
	}}
	a := newTestAcquirer(&fakePDF{}, &fakeRasterizer{pages: 1}, rec)

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DiagnosticOCRProducedNothing, res.Diagnostic)
}

func TestAcquire_TextLayerErrorIsContained(t *testing.T) {
	pdf := &fakePDF{textErr: errors.New("malformed stream")}
	a := newTestAcquirer(pdf, &fakeRasterizer{pages: 1}, &fakeRecognizer{recognize: constantText("Name: A B")})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{})

	assert.Equal(t, dto.DecidedOCR, res.DecidedMethod)
	assert.False(t, res.TextLayerFound)
}

func TestAcquire_ClampsDPI(t *testing.T) {
	rast := &fakeRasterizer{pages: 1}
	a := newTestAcquirer(&fakePDF{}, rast, &fakeRecognizer{recognize: constantText("text")})

	res := a.Acquire(context.Background(), pdfDoc(), AcquireOptions{Method: dto.MethodOCR, DPI: 50})

	assert.Equal(t, dto.MinDPI, res.DPI)
	assert.Equal(t, []int{dto.MinDPI}, rast.dpis)
	assert.Contains(t, res.Warnings, "dpi 50 out of range, using 100")
}

func TestAcquire_EmptyDocument(t *testing.T) {
	a := newTestAcquirer(&fakePDF{}, nil, nil)

	res := a.Acquire(context.Background(), dto.RawDocument{MediaType: "application/pdf"}, AcquireOptions{})

	assert.Equal(t, dto.DiagnosticEmptyDocument, res.Diagnostic)
	assert.Equal(t, dto.DecidedNone, res.DecidedMethod)
}

func TestAcquire_NotAPDF(t *testing.T) {
	a := newTestAcquirer(&fakePDF{text: "this would be accepted as a text layer"}, nil, nil)

	res := a.Acquire(context.Background(), dto.RawDocument{Data: []byte("hello"), MediaType: "application/pdf"}, AcquireOptions{})

	assert.Equal(t, dto.DiagnosticUnreadableDocument, res.Diagnostic)
}

func TestAcquire_ImageDocuments(t *testing.T) {
	a := newTestAcquirer(&fakePDF{}, nil, &fakeRecognizer{recognize: constantText("x")})
	doc := dto.RawDocument{Data: []byte("not an image"), MediaType: "image/png"}

	res := a.Acquire(context.Background(), doc, AcquireOptions{})
	assert.Equal(t, dto.DiagnosticUnreadableDocument, res.Diagnostic)

	res = a.Acquire(context.Background(), doc, AcquireOptions{Method: dto.MethodText})
	assert.Equal(t, dto.DiagnosticNoTextLayer, res.Diagnostic)
}

func TestAcquire_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAcquirer(&fakePDF{}, &fakeRasterizer{pages: 2}, &fakeRecognizer{recognize: constantText("x")})

	res := a.Acquire(ctx, pdfDoc(), AcquireOptions{Method: dto.MethodOCR})

	assert.NotEqual(t, dto.DiagnosticNone, res.Diagnostic)
	assert.Equal(t, dto.DecidedNone, res.DecidedMethod)
}
