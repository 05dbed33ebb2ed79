package dto

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultDPI        = 300
	MinDPI            = 100
	MaxDPI            = 600
	DefaultLanguage   = "eng"
	DefaultTolerance  = 0.1
	MaxFilenameLength = 255
)

var allowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}

var (
	ErrFileRequired    = errors.New("file is required")
	ErrInvalidFileType = errors.New("invalid file type. Supported: PDF, PNG, JPG")
	ErrFilenameTooLong = fmt.Errorf("filename too long. Maximum length is %d characters", MaxFilenameLength)
)

// MarksheetRequest is the validated upload plus its processing options.
type MarksheetRequest struct {
	File     *multipart.FileHeader
	Method   string
	DPI      string
	Language string
}

// Validate checks the upload the same way for every marksheet endpoint.
func (r *MarksheetRequest) Validate(maxFileSize int64) error {
	if r.File == nil {
		return ErrFileRequired
	}
	if len(r.File.Filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	ext := strings.ToLower(filepath.Ext(r.File.Filename))
	valid := false
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidFileType
	}

	if maxFileSize > 0 && r.File.Size > maxFileSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %.1fMB", float64(maxFileSize)/(1024*1024))
	}
	return nil
}

// ParseMethod validates the method query parameter; empty means auto.
func ParseMethod(s string) (Method, error) {
	m := strings.ToLower(strings.TrimSpace(s))
	switch Method(m) {
	case "":
		return MethodAuto, nil
	case MethodAuto, MethodText, MethodOCR:
		return Method(m), nil
	}
	return MethodAuto, errors.New("invalid method. Must be one of: auto, text, ocr")
}

// ParseDPI validates the dpi query parameter; empty means the default.
func ParseDPI(s string, def, lo, hi int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	dpi, err := strconv.Atoi(s)
	if err != nil {
		return def, errors.New("invalid DPI value. Must be an integer")
	}
	if dpi < lo || dpi > hi {
		return def, fmt.Errorf("DPI must be between %d and %d", lo, hi)
	}
	return dpi, nil
}

// VerifyRequest carries the declared value a verification is checked against,
// as received.
type VerifyRequest struct {
	Stage        string
	EnteredValue string
	Tolerance    string
}

// VerifyInput is a validated VerifyRequest.
type VerifyInput struct {
	Stage        Stage
	EnteredValue float64
	Tolerance    float64
}

// Parse validates the request; an empty tolerance means defaultTolerance.
func (r VerifyRequest) Parse(defaultTolerance float64) (VerifyInput, error) {
	stage, err := ParseStage(r.Stage)
	if err != nil {
		return VerifyInput{}, err
	}
	entered, err := ParseEnteredValue(r.EnteredValue)
	if err != nil {
		return VerifyInput{}, err
	}
	tolerance, err := ParseTolerance(r.Tolerance, defaultTolerance)
	if err != nil {
		return VerifyInput{}, err
	}
	return VerifyInput{Stage: stage, EnteredValue: entered, Tolerance: tolerance}, nil
}

// ParseEnteredValue validates the declared percentage or CGPA.
func ParseEnteredValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !isFinite(v) {
		return 0, errors.New("entered_value must be a number")
	}
	return v, nil
}

// ParseTolerance validates an optional tolerance; empty means the default.
func ParseTolerance(s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	t, err := strconv.ParseFloat(s, 64)
	if err != nil || t < 0 || !isFinite(t) {
		return def, errors.New("tolerance must be a non-negative number")
	}
	return t, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
