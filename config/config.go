package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort        string  `yaml:"server_port"`
	TesseractDataPath string  `yaml:"tessdata_prefix"`
	MaxFileSize       int64   `yaml:"max_file_size"`
	DefaultDPI        int     `yaml:"default_dpi"`
	MinDPI            int     `yaml:"min_dpi"`
	MaxDPI            int     `yaml:"max_dpi"`
	DefaultLanguage   string  `yaml:"default_language"`
	Tolerance         float64 `yaml:"tolerance"`
	OCRWorkers        int     `yaml:"ocr_workers"`
	AdaptiveThreshold bool    `yaml:"adaptive_threshold"`
	RasterizePages    bool    `yaml:"rasterize_pages"`
	// MinTextLayerChars is the trimmed length a PDF text layer needs before
	// auto mode trusts it over OCR.
	MinTextLayerChars int `yaml:"min_text_layer_chars"`
}

func defaults() *Config {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	return &Config{
		ServerPort:        "8080",
		TesseractDataPath: "/usr/share/tesseract-ocr/5/tessdata/",
		MaxFileSize:       10 * 1024 * 1024, // 10 MB
		DefaultDPI:        300,
		MinDPI:            100,
		MaxDPI:            600,
		DefaultLanguage:   "eng",
		Tolerance:         0.1,
		OCRWorkers:        workers,
		AdaptiveThreshold: true,
		RasterizePages:    true,
		MinTextLayerChars: 20,
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// named by CONFIG_FILE, and finally environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.ServerPort = v
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		cfg.TesseractDataPath = v
	}
	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.DefaultLanguage = v
	}
	if v, err := strconv.Atoi(os.Getenv("DEFAULT_DPI")); err == nil {
		cfg.DefaultDPI = v
	}
	if v, err := strconv.Atoi(os.Getenv("OCR_WORKERS")); err == nil {
		cfg.OCRWorkers = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("VERIFY_TOLERANCE"), 64); err == nil {
		cfg.Tolerance = v
	}
	if v, err := strconv.ParseBool(os.Getenv("ADAPTIVE_THRESHOLD")); err == nil {
		cfg.AdaptiveThreshold = v
	}
	if v, err := strconv.ParseBool(os.Getenv("RASTERIZE_PAGES")); err == nil {
		cfg.RasterizePages = v
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the acquisition pipeline cannot honor.
func (c *Config) Validate() error {
	if c.MinDPI <= 0 || c.MinDPI > c.MaxDPI {
		return fmt.Errorf("invalid DPI bounds %d-%d", c.MinDPI, c.MaxDPI)
	}
	if c.DefaultDPI < c.MinDPI || c.DefaultDPI > c.MaxDPI {
		return fmt.Errorf("default DPI %d outside %d-%d", c.DefaultDPI, c.MinDPI, c.MaxDPI)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}
	if c.OCRWorkers < 1 {
		c.OCRWorkers = 1
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "eng"
	}
	return nil
}
