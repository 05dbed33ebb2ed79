package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/config"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/service"
	"github.com/gabriel-vasile/mimetype"
)

type options struct {
	path      string
	method    string
	dpi       string
	lang      string
	stage     string
	entered   float64
	tolerance float64
}

type report struct {
	Debug        dto.AcquisitionResult    `json:"debug"`
	Fields       dto.FieldsOrError        `json:"fields"`
	Verification *dto.VerificationOutcome `json:"verification,omitempty"`
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marksheet-inspect: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "marksheet-inspect: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: marksheet-inspect [flags] <pdf|png|jpg>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.method, "method", "auto", "Acquisition method: auto, text or ocr")
	flag.StringVar(&opts.dpi, "dpi", "", "Rasterization density for OCR (default from config)")
	flag.StringVar(&opts.lang, "lang", "", "Tesseract language, e.g. eng or eng+hin")
	flag.StringVar(&opts.stage, "stage", "", "Verify against this stage: 10, 12 or UG")
	flag.Float64Var(&opts.entered, "entered", 0, "Declared percentage or CGPA to verify")
	flag.Float64Var(&opts.tolerance, "tolerance", dto.DefaultTolerance, "Verification tolerance")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing document path")
	}
	opts.path = flag.Arg(0)
	if math.IsNaN(opts.entered) || math.IsInf(opts.entered, 0) {
		return options{}, fmt.Errorf("-entered must be a finite number")
	}
	if opts.tolerance < 0 || math.IsNaN(opts.tolerance) || math.IsInf(opts.tolerance, 0) {
		return options{}, fmt.Errorf("-tolerance must be a non-negative number")
	}
	return opts, nil
}

func run(opts options) error {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	method, err := dto.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	dpi, err := dto.ParseDPI(opts.dpi, cfg.DefaultDPI, cfg.MinDPI, cfg.MaxDPI)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	doc := dto.RawDocument{Data: data, MediaType: detectMediaType(opts.path, data)}
	acquire := service.AcquireOptions{Method: method, DPI: dpi, Language: opts.lang}

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()
	svc := service.NewMarksheetServiceFromConfig(cfg, tesseractClient)

	ctx := context.Background()
	res := svc.ExtractTextWithDiagnostics(ctx, doc, acquire)

	out := report{Debug: res}
	if fields, err := service.FieldsFromAcquisition(res); err != nil {
		out.Fields = dto.FieldsOrError{Error: err.Error()}
	} else {
		out.Fields = dto.FieldsOrError{ExtractedFields: fields}
	}

	if opts.stage != "" {
		stage, err := dto.ParseStage(opts.stage)
		if err != nil {
			return err
		}
		v := svc.VerifyAcademicRecord(ctx, stage, opts.entered, doc, acquire, opts.tolerance)
		out.Verification = &v
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func detectMediaType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return mimetype.Detect(data).String()
}
