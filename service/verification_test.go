package service

import (
	"testing"

	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_WithinTolerance(t *testing.T) {
	fields := &dto.ExtractedFields{Percentage: dto.Float(78.3)}

	out := Verify(dto.Stage12, 78.33, fields, dto.DefaultTolerance)

	assert.True(t, out.Verified)
	require.NotNil(t, out.Difference)
	assert.Equal(t, 0.03, *out.Difference)
	assert.Equal(t, 78.3, *out.ExtractedValue)
	assert.Equal(t, dto.SourcePercentage, out.ComparisonSource)
}

func TestVerify_UGMismatch(t *testing.T) {
	fields := &dto.ExtractedFields{CGPA: dto.Float(7.2)}

	out := Verify(dto.StageUG, 8.5, fields, dto.DefaultTolerance)

	assert.False(t, out.Verified)
	require.NotNil(t, out.Difference)
	assert.Equal(t, 1.3, *out.Difference)
	assert.Equal(t, dto.SourceCGPA, out.ComparisonSource)
}

func TestVerify_StagePriority(t *testing.T) {
	fields := &dto.ExtractedFields{
		Percentage: dto.Float(72.5),
		CGPA:       dto.Float(7.8),
	}

	assert.Equal(t, dto.SourcePercentage, Verify(dto.Stage10, 72.5, fields, 0.1).ComparisonSource)
	assert.Equal(t, dto.SourceCGPA, Verify(dto.StageUG, 7.8, fields, 0.1).ComparisonSource)

	onlyTotals := &dto.ExtractedFields{TotalMarks: dto.Float(410), MaxMarks: dto.Float(500)}
	out := Verify(dto.StageUG, 82, onlyTotals, 0.1)
	assert.Equal(t, dto.SourceComputedTotal, out.ComparisonSource)
	assert.True(t, out.Verified)

	calculated := &dto.ExtractedFields{CalculatedPercentage: dto.Float(66.5)}
	assert.Equal(t, dto.SourceCalculatedPercentage, Verify(dto.Stage12, 66.5, calculated, 0.1).ComparisonSource)

	cgpaOnly := &dto.ExtractedFields{CGPA: dto.Float(9.1)}
	assert.Equal(t, dto.SourceCGPA, Verify(dto.Stage10, 9.1, cgpaOnly, 0.1).ComparisonSource)
}

func TestVerify_BoundaryIsInclusive(t *testing.T) {
	out := Verify(dto.Stage10, 80.1, &dto.ExtractedFields{Percentage: dto.Float(80)}, 0.1)

	assert.True(t, out.Verified)
	assert.Equal(t, 0.1, *out.Difference)
}

func TestVerify_NothingToCompare(t *testing.T) {
	for _, fields := range []*dto.ExtractedFields{nil, {}} {
		out := Verify(dto.Stage12, 70, fields, 0.1)

		assert.False(t, out.Verified)
		assert.Nil(t, out.ExtractedValue)
		assert.Nil(t, out.Difference)
		assert.Equal(t, dto.SourceNone, out.ComparisonSource)
	}
}
