package utils

import (
	"errors"
	"testing"

	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFields_ScalarLabels(t *testing.T) {
	text := Normalize(`
		CENTRAL BOARD OF SECONDARY EDUCATION
		Examination: Senior School Certificate Examination
		Candidate's Name: RAHUL SHARMA
		Father's Name: SURESH SHARMA
		Roll No. : 1234567  Regn No: AB/2020/123
		Date of Birth: 15-08-2004
		Year of Passing: 2022
		School: Delhi Public School
		Percentage: 78.33%
	`)

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, "RAHUL SHARMA", *fields.Name)
	assert.Equal(t, "SURESH SHARMA", *fields.FatherName)
	assert.Equal(t, "1234567", *fields.RollNumber)
	assert.Equal(t, "AB/2020/123", *fields.RegistrationNumber)
	assert.Equal(t, "15-08-2004", *fields.DOB)
	assert.Equal(t, "2022", *fields.Year)
	assert.Equal(t, "Senior School Certificate Examination", *fields.ExamName)
	assert.Equal(t, "CENTRAL BOARD OF SECONDARY EDUCATION", *fields.University)
	assert.Equal(t, "Delhi Public School", *fields.College)
	assert.Equal(t, 78.33, *fields.Percentage)
	assert.Equal(t, 78.33, *fields.CalculatedPercentage)
	assert.Equal(t, 78.33, *fields.PercentageCGPA)
	assert.Nil(t, fields.CGPA)
}

func TestExtractFields_NameSkipsFatherLabel(t *testing.T) {
	fields, err := ExtractFields("Father's Name: MOHAN LAL\nName: GEETA DEVI")
	require.NoError(t, err)

	assert.Equal(t, "GEETA DEVI", *fields.Name)
	assert.Equal(t, "MOHAN LAL", *fields.FatherName)
}

func TestExtractFields_LabeledCGPA(t *testing.T) {
	text := "XYZ UNIVERSITY\nName: RAHUL SHARMA\nRoll No: 12345\nCGPA: 7.45"

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, "XYZ UNIVERSITY", *fields.University)
	assert.Equal(t, 7.45, *fields.CGPA)
	assert.InDelta(t, 70.775, *fields.CalculatedPercentage, 1e-9)
	assert.InDelta(t, 70.775, *fields.Percentage, 1e-9)
	assert.Nil(t, fields.TotalMarks)
	assert.Nil(t, fields.MarksObtainedOutOf)
}

func TestExtractFields_CGPAFromSemesterTable(t *testing.T) {
	text := `ABC INSTITUTE OF TECHNOLOGY
SEM | TTCR | TTCP | SGPA | CGPA | RESULT
I | 22 | 156 | 6.80 | 6.80 | PASSED
II | 22 | 172 | 7.09 | 7.45 | PASSED`

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	require.NotNil(t, fields.CGPA)
	assert.Equal(t, 7.45, *fields.CGPA)
	assert.InDelta(t, 7.45*dto.CGPAToPercentage, *fields.CalculatedPercentage, 1e-9)

	require.Len(t, fields.Subjects, 2)
	for _, s := range fields.Subjects {
		assert.True(t, s.GradePoint)
	}
	assert.Nil(t, fields.TotalMarks, "grade point rows never count as marks")
}

func TestExtractFields_CGPAProseIsNotATableHeader(t *testing.T) {
	text := Normalize("Note: CGPA is computed as per UGC norms\nCGPA: 7.45\nPage 1 of 2")

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	require.NotNil(t, fields.CGPA)
	assert.Equal(t, 7.45, *fields.CGPA)
}

func TestExtractFields_CGPATableEndsAtFirstNonRow(t *testing.T) {
	text := `SEM TTCR SGPA CGPA RESULT
I 22 6.80 6.80 PASSED
II 22 7.09 7.45 PASSED
Date of issue: 12/05/2021
Printed 2 copies 9.5 3`

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	require.NotNil(t, fields.CGPA)
	assert.Equal(t, 7.45, *fields.CGPA)
}

func TestExtractFields_CGPAFromResultRows(t *testing.T) {
	text := `SEMESTER GRADE REPORT
VII 24 172 7.20 7.31 PASSED
VIII 24 180 7.50 7.38 PASSED`

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	require.NotNil(t, fields.CGPA)
	assert.Equal(t, 7.38, *fields.CGPA)
}

func TestExtractFields_CGPAByProximity(t *testing.T) {
	text := `Semester VIII
TTCR 180
CGPA
Final 8.12 on scale of 10.00`

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	require.NotNil(t, fields.CGPA)
	assert.Equal(t, 8.12, *fields.CGPA)
}

func TestExtractFields_TotalsFromLine(t *testing.T) {
	text := `Name: PRIYA VERMA
English 78/100 A
Mathematics 91/100 A1
Science 85/100 A
Total Marks: 254/300`

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, 254.0, *fields.TotalMarks)
	assert.Equal(t, 300.0, *fields.MaxMarks)
	assert.Equal(t, "254/300", *fields.MarksObtainedOutOf)
	assert.InDelta(t, 254.0/300*100, *fields.CalculatedPercentage, 1e-9)
	assert.InDelta(t, *fields.CalculatedPercentage, *fields.Percentage, 1e-9)

	require.Len(t, fields.Subjects, 3)
	assert.Equal(t, "English", fields.Subjects[0].Name)
	assert.Equal(t, 78.0, fields.Subjects[0].MarksObtained)
	assert.Equal(t, 100.0, *fields.Subjects[0].MaxMarks)
	assert.Equal(t, "A", *fields.Subjects[0].Grade)

	math, ok := fields.SubjectMarks["Mathematics"]
	require.True(t, ok)
	assert.Equal(t, 91.0, math.Marks)
	assert.Equal(t, "A1", *math.Grade)
}

func TestExtractFields_TotalsFromSubjects(t *testing.T) {
	text := "Hindi 67\nEnglish 80/100\nSanskrit 45/50"

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, 192.0, *fields.TotalMarks)
	assert.Equal(t, 250.0, *fields.MaxMarks)
	assert.Equal(t, "192/250", *fields.MarksObtainedOutOf)
	assert.InDelta(t, 76.8, *fields.CalculatedPercentage, 1e-9)
}

func TestExtractFields_TotalColumnsSwapped(t *testing.T) {
	fields, err := ExtractFields("GRAND TOTAL | 500 | 412")
	require.NoError(t, err)

	assert.Equal(t, 412.0, *fields.TotalMarks)
	assert.Equal(t, 500.0, *fields.MaxMarks)
}

func TestExtractFields_ExplicitPercentageWins(t *testing.T) {
	text := "Percentage: 81.5\nCGPA: 8.2\nTotal Marks: 400/500"

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, 81.5, *fields.CalculatedPercentage)
	assert.Equal(t, 81.5, *fields.PercentageCGPA)
	assert.Equal(t, 8.2, *fields.CGPA)
}

func TestExtractFields_TabularSubjectRow(t *testing.T) {
	fields, err := ExtractFields("ENGLISH CORE 080 020 100 A1\nMATHEMATICS | 100 | 33 | 87 | A2")
	require.NoError(t, err)

	require.Len(t, fields.Subjects, 2)
	assert.Equal(t, "ENGLISH CORE", fields.Subjects[0].Name)
	assert.Equal(t, 100.0, fields.Subjects[0].MarksObtained)
	assert.Equal(t, "A1", *fields.Subjects[0].Grade)

	assert.Equal(t, "MATHEMATICS", fields.Subjects[1].Name)
	assert.Equal(t, 87.0, fields.Subjects[1].MarksObtained)
	assert.Equal(t, 100.0, *fields.Subjects[1].MaxMarks)
}

func TestExtractFields_OutOfRangeValuesIgnored(t *testing.T) {
	fields, err := ExtractFields("CGPA: 12.5\nPercentage: 140")
	require.NoError(t, err)

	assert.Nil(t, fields.CGPA)
	assert.Nil(t, fields.Percentage)
	assert.Nil(t, fields.CalculatedPercentage)
	assert.Nil(t, fields.PercentageCGPA)
}

func TestExtractFields_NothingRecognized(t *testing.T) {
	fields, err := ExtractFields("lorem ipsum dolor sit amet")
	require.NoError(t, err)

	assert.Nil(t, fields.Name)
	assert.Empty(t, fields.Subjects)
	assert.NotNil(t, fields.SubjectMarks)
	assert.Nil(t, fields.CalculatedPercentage)
}

func TestExtractFields_Markers(t *testing.T) {
	for _, d := range []dto.Diagnostic{
		dto.DiagnosticNoTextLayer,
		dto.DiagnosticOCRUnavailable,
		dto.DiagnosticRasterizeFailed,
		dto.DiagnosticOCRProducedNothing,
	} {
		fields, err := ExtractFields(d.Message())
		assert.Nil(t, fields)
		require.Error(t, err)
		assert.Equal(t, d.Message(), err.Error())

		var derr *dto.DiagnosticError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, d, derr.Diagnostic)
	}
}

func TestExtractFields_EmptyText(t *testing.T) {
	_, err := ExtractFields("  \n\n ")

	var derr *dto.DiagnosticError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, dto.DiagnosticEmptyDocument, derr.Diagnostic)
}

func TestExtractFields_Idempotent(t *testing.T) {
	text := Normalize("Name: RAHUL SHARMA\nEnglish 78/100 A\nCGPA: 7.45\nTotal Marks: 78/100")

	first, err := ExtractFields(text)
	require.NoError(t, err)
	second, err := ExtractFields(Normalize(text))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
