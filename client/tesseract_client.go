package client

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// EngineConfig is one Tesseract configuration used for a recognition pass.
type EngineConfig struct {
	Name string
	PSM  gosseract.PageSegMode
	// OEM selects the engine mode; 0 keeps the library default.
	OEM int
}

var (
	// ConfigDefault is used for rendered PDF pages.
	ConfigDefault = EngineConfig{Name: "auto", PSM: gosseract.PSM_AUTO}

	ConfigBlock        = EngineConfig{Name: "block", PSM: gosseract.PSM_SINGLE_BLOCK}
	ConfigSingleColumn = EngineConfig{Name: "column", PSM: gosseract.PSM_SINGLE_COLUMN}
	ConfigSparse       = EngineConfig{Name: "sparse", PSM: gosseract.PSM_SPARSE_TEXT}
	ConfigAltEngine    = EngineConfig{Name: "lstm", PSM: gosseract.PSM_AUTO, OEM: 1}
)

// VariantConfigs are the configurations every image variant is recognized with.
var VariantConfigs = []EngineConfig{ConfigBlock, ConfigSingleColumn, ConfigSparse, ConfigAltEngine}

type TesseractClient struct {
	dataPath string

	mu          sync.Mutex
	configFiles map[int]string
}

func NewTesseractClient(dataPath string) *TesseractClient {
	return &TesseractClient{
		dataPath:    dataPath,
		configFiles: make(map[int]string),
	}
}

// Available reports whether the trained data for every language in lang
// ("eng" or "eng+hin") can be found.
func (tc *TesseractClient) Available(lang string) error {
	langs := strings.Split(lang, "+")

	if tc.dataPath != "" {
		for _, l := range langs {
			path := filepath.Join(tc.dataPath, l+".traineddata")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("tesseract language %q not installed: %w", l, err)
			}
		}
		return nil
	}

	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("failed to list tesseract languages: %w", err)
	}
	for _, l := range langs {
		found := false
		for _, have := range installed {
			if have == l {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("tesseract language %q not installed", l)
		}
	}
	return nil
}

// Recognize runs a single OCR pass over img.
func (tc *TesseractClient) Recognize(img image.Image, lang string, cfg EngineConfig) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(cfg.PSM); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if cfg.OEM > 0 {
		path, err := tc.engineModeConfig(cfg.OEM)
		if err != nil {
			return "", fmt.Errorf("failed to prepare engine mode %d: %w", cfg.OEM, err)
		}
		if err := client.SetConfigFile(path); err != nil {
			return "", fmt.Errorf("failed to set config file: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// Version returns the linked Tesseract version.
func (tc *TesseractClient) Version() string {
	return gosseract.Version()
}

// engineModeConfig returns a Tesseract config file selecting oem. The engine
// mode is only read while the engine initializes, so it cannot be set as a
// variable afterwards.
func (tc *TesseractClient) engineModeConfig(oem int) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if path, ok := tc.configFiles[oem]; ok {
		return path, nil
	}
	f, err := os.CreateTemp("", "tesseract-oem-*.cfg")
	if err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(f, "tessedit_ocr_engine_mode %d\n", oem); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	tc.configFiles[oem] = f.Name()
	return f.Name(), nil
}

// Close removes the generated config files.
func (tc *TesseractClient) Close() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	for oem, path := range tc.configFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove tesseract config", zap.String("path", path), zap.Error(err))
		}
		delete(tc.configFiles, oem)
	}
	logger.Info("Tesseract client closed")
}
