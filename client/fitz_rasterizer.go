package client

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// RasterizationError reports a page that could not be rendered.
type RasterizationError struct {
	Page int
	Err  error
}

func (e *RasterizationError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("rasterize document: %v", e.Err)
	}
	return fmt.Sprintf("rasterize page %d: %v", e.Page+1, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// FitzRasterizer renders PDF pages through MuPDF.
type FitzRasterizer struct {
	enabled bool
}

func NewFitzRasterizer(enabled bool) *FitzRasterizer {
	return &FitzRasterizer{enabled: enabled}
}

// Available reports whether page rendering can be attempted.
func (r *FitzRasterizer) Available() error {
	if !r.enabled {
		return fmt.Errorf("page rasterizer disabled")
	}
	return nil
}

// PageCount opens the document and returns its number of pages.
func (r *FitzRasterizer) PageCount(pdfData []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return 0, &RasterizationError{Page: -1, Err: err}
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPage renders the zero-based page at dpi.
func (r *FitzRasterizer) RenderPage(pdfData []byte, page, dpi int) (image.Image, error) {
	if !r.enabled {
		return nil, &RasterizationError{Page: page, Err: fmt.Errorf("page rasterizer disabled")}
	}
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, &RasterizationError{Page: page, Err: err}
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, &RasterizationError{Page: page, Err: fmt.Errorf("page out of range (document has %d)", doc.NumPage())}
	}
	img, err := doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, &RasterizationError{Page: page, Err: err}
	}
	return img, nil
}
