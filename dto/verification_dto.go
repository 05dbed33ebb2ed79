package dto

import (
	"fmt"
	"strings"
)

// Stage is the academic level the entered value belongs to.
type Stage string

const (
	Stage10 Stage = "10"
	Stage12 Stage = "12"
	StageUG Stage = "UG"
)

// ParseStage accepts "10", "10th", "12", "12th" and "UG" in any case.
func ParseStage(s string) (Stage, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "10", "10TH", "X", "SSC":
		return Stage10, nil
	case "12", "12TH", "XII", "HSC":
		return Stage12, nil
	case "UG", "GRADUATION", "DEGREE":
		return StageUG, nil
	}
	return "", fmt.Errorf("invalid stage %q. Must be one of: 10, 12, UG", s)
}

// ComparisonSource names the field the extracted value was taken from.
type ComparisonSource string

const (
	SourcePercentage           ComparisonSource = "percentage"
	SourceCalculatedPercentage ComparisonSource = "calculated_percentage"
	SourceCGPA                 ComparisonSource = "cgpa"
	SourceComputedTotal        ComparisonSource = "computed_total"
	SourceNone                 ComparisonSource = "none"
)

// VerificationOutcome is the result of comparing a declared score with the
// score read from the document.
type VerificationOutcome struct {
	Stage            Stage            `json:"stage"`
	EnteredValue     float64          `json:"entered_value"`
	ExtractedValue   *float64         `json:"extracted_value"`
	Difference       *float64         `json:"difference"`
	Tolerance        float64          `json:"tolerance"`
	ComparisonSource ComparisonSource `json:"comparison_source"`
	Verified         bool             `json:"verified"`
	Attempts         int              `json:"attempts"`
	Method           string           `json:"method,omitempty"`
	Error            string           `json:"error,omitempty"`
}
