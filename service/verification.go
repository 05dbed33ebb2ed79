package service

import (
	"math"

	"github.com/Aashish23092/ocr-marksheet-verification/dto"
)

// floating point slack for differences that round to exactly the tolerance
const toleranceEpsilon = 1e-9

type candidate struct {
	source dto.ComparisonSource
	value  func(*dto.ExtractedFields) *float64
}

var (
	fromPercentage = candidate{dto.SourcePercentage, func(f *dto.ExtractedFields) *float64 { return f.Percentage }}
	fromCalculated = candidate{dto.SourceCalculatedPercentage, func(f *dto.ExtractedFields) *float64 { return f.CalculatedPercentage }}
	fromCGPA       = candidate{dto.SourceCGPA, func(f *dto.ExtractedFields) *float64 { return f.CGPA }}
	fromTotals     = candidate{dto.SourceComputedTotal, func(f *dto.ExtractedFields) *float64 {
		if p, ok := f.TotalsPercentage(); ok {
			return &p
		}
		return nil
	}}
)

// School results are declared as percentages, degrees as CGPA.
var stagePriority = map[dto.Stage][]candidate{
	dto.Stage10: {fromPercentage, fromCalculated, fromTotals, fromCGPA},
	dto.Stage12: {fromPercentage, fromCalculated, fromTotals, fromCGPA},
	dto.StageUG: {fromCGPA, fromPercentage, fromCalculated, fromTotals},
}

// Verify compares the declared value against the first value the stage
// priority finds in fields. Both sides and the difference are rounded to two
// decimals before the tolerance check.
func Verify(stage dto.Stage, entered float64, fields *dto.ExtractedFields, tolerance float64) dto.VerificationOutcome {
	out := dto.VerificationOutcome{
		Stage:            stage,
		EnteredValue:     entered,
		Tolerance:        tolerance,
		ComparisonSource: dto.SourceNone,
	}
	if fields == nil {
		return out
	}

	priority, ok := stagePriority[stage]
	if !ok {
		priority = stagePriority[dto.Stage12]
	}
	for _, c := range priority {
		v := c.value(fields)
		if v == nil {
			continue
		}
		extracted := round2(*v)
		diff := round2(math.Abs(extracted - round2(entered)))
		out.ExtractedValue = &extracted
		out.Difference = &diff
		out.ComparisonSource = c.source
		out.Verified = diff <= tolerance+toleranceEpsilon
		return out
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
