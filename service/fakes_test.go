package service

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/utils/imageprep"
)

var fakePDFBytes = []byte("%PDF-1.4\n% test document\n")

type fakePDF struct {
	text     string
	textErr  error
	images   []image.Image
	imageErr error
	pages    int
}

func (f *fakePDF) ExtractText([]byte) (string, error) { return f.text, f.textErr }

func (f *fakePDF) ExtractImages([]byte) ([]image.Image, error) {
	return f.images, f.imageErr
}

func (f *fakePDF) PageCount([]byte) (int, error) { return f.pages, nil }

// fakeRasterizer renders page i as a white image 10+i pixels wide so the
// recognizer can tell pages apart.
type fakeRasterizer struct {
	unavailable error
	pages       int
	countErr    error
	renderErr   error

	mu   sync.Mutex
	dpis []int
}

func (r *fakeRasterizer) Available() error { return r.unavailable }

func (r *fakeRasterizer) PageCount([]byte) (int, error) { return r.pages, r.countErr }

func (r *fakeRasterizer) RenderPage(_ []byte, page, dpi int) (image.Image, error) {
	r.mu.Lock()
	r.dpis = append(r.dpis, dpi)
	r.mu.Unlock()
	if r.renderErr != nil {
		return nil, &client.RasterizationError{Page: page, Err: r.renderErr}
	}
	return pageImage(page), nil
}

func pageImage(page int) image.Image {
	img := image.NewGray(image.Rect(0, 0, 10+page, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

type fakeRecognizer struct {
	unavailable error
	// recognize returns the text for one pass; nil means "".
	recognize func(img image.Image, cfg client.EngineConfig) (string, error)

	mu    sync.Mutex
	calls int
}

func (r *fakeRecognizer) Available(string) error { return r.unavailable }

func (r *fakeRecognizer) Recognize(img image.Image, _ string, cfg client.EngineConfig) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.recognize == nil {
		return "", nil
	}
	return r.recognize(img, cfg)
}

func (r *fakeRecognizer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// pageNumberText reports which fake page an image came from.
func pageNumberText(img image.Image, _ client.EngineConfig) (string, error) {
	return fmt.Sprintf("page %d", img.Bounds().Dx()-10+1), nil
}

func constantText(text string) func(image.Image, client.EngineConfig) (string, error) {
	return func(image.Image, client.EngineConfig) (string, error) { return text, nil }
}

var errUnavailable = errors.New("not installed")

var imageOCROptions = imageprep.Options{}

func whiteImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	return img
}

func newTestAcquirer(pdf *fakePDF, rast *fakeRasterizer, rec *fakeRecognizer) *TextAcquirer {
	cfg := DefaultAcquisitionConfig()
	cfg.Workers = 2
	var r Recognizer
	if rec != nil {
		r = rec
	}
	var rs Rasterizer
	if rast != nil {
		rs = rast
	}
	return NewTextAcquirer(pdf, rs, r, NewImageOCR(r, imageOCROptions, 2), cfg)
}
