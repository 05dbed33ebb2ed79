package dto

import (
	"strconv"
)

// CGPAToPercentage is the UGC conversion factor from a 10-point CGPA.
const CGPAToPercentage = 9.5

// SubjectRecord is one recognized row of the marks table.
type SubjectRecord struct {
	Name          string   `json:"name"`
	MarksObtained float64  `json:"marks"`
	MaxMarks      *float64 `json:"max_marks"`
	Grade         *string  `json:"grade"`
	// GradePoint marks rows of a semester table (SGPA/CGPA on a 10 point
	// scale) rather than subject marks; they never count towards totals.
	GradePoint bool `json:"grade_point,omitempty"`
}

// SubjectMarks is the per-subject entry of the name→marks view.
type SubjectMarks struct {
	Marks float64  `json:"marks"`
	Max   *float64 `json:"max"`
	Grade *string  `json:"grade"`
}

// ExtractedFields is the structured record recovered from a marksheet or
// degree certificate. Every scalar is optional.
type ExtractedFields struct {
	Name                 *string  `json:"name"`
	FatherName           *string  `json:"father_name"`
	RollNumber           *string  `json:"roll_number"`
	RegistrationNumber   *string  `json:"registration_number"`
	DOB                  *string  `json:"dob"`
	ExamName             *string  `json:"exam"`
	Year                 *string  `json:"year"`
	University           *string  `json:"university"`
	College              *string  `json:"college"`
	Percentage           *float64 `json:"percentage"`
	CGPA                 *float64 `json:"cgpa"`
	TotalMarks           *float64 `json:"total_marks"`
	MaxMarks             *float64 `json:"max_marks"`
	CalculatedPercentage *float64 `json:"calculated_percentage"`

	Subjects []SubjectRecord `json:"subjects"`

	SubjectMarks       map[string]SubjectMarks `json:"subject_marks"`
	MarksObtainedOutOf *string                 `json:"marks_obtained_out_of"`
	PercentageCGPA     *float64                `json:"percentage_cgpa"`
}

// Finalize reconciles percentage and CGPA and materializes the derived views.
// It must be called once all scalars and subjects are populated.
//
// calculated_percentage follows explicit percentage, then CGPA x 9.5, then
// total/max x 100. A missing percentage is back-filled from it.
func (f *ExtractedFields) Finalize() {
	f.CalculatedPercentage = nil
	switch {
	case f.Percentage != nil:
		f.CalculatedPercentage = Float(*f.Percentage)
	case f.CGPA != nil:
		f.CalculatedPercentage = Float(*f.CGPA * CGPAToPercentage)
	default:
		if p, ok := f.TotalsPercentage(); ok {
			f.CalculatedPercentage = Float(p)
		}
	}
	if f.Percentage == nil && f.CalculatedPercentage != nil {
		f.Percentage = Float(*f.CalculatedPercentage)
	}

	f.SubjectMarks = make(map[string]SubjectMarks, len(f.Subjects))
	for _, s := range f.Subjects {
		if _, seen := f.SubjectMarks[s.Name]; seen {
			continue
		}
		f.SubjectMarks[s.Name] = SubjectMarks{Marks: s.MarksObtained, Max: s.MaxMarks, Grade: s.Grade}
	}

	f.MarksObtainedOutOf = nil
	if f.TotalMarks != nil && f.MaxMarks != nil {
		f.MarksObtainedOutOf = String(FormatNumber(*f.TotalMarks) + "/" + FormatNumber(*f.MaxMarks))
	}

	f.PercentageCGPA = nil
	switch {
	case f.Percentage != nil:
		f.PercentageCGPA = Float(*f.Percentage)
	case f.CGPA != nil:
		f.PercentageCGPA = Float(*f.CGPA)
	case f.CalculatedPercentage != nil:
		f.PercentageCGPA = Float(*f.CalculatedPercentage)
	}
}

// TotalsPercentage computes total/max x 100 when both totals are known.
func (f *ExtractedFields) TotalsPercentage() (float64, bool) {
	if f.TotalMarks == nil || f.MaxMarks == nil || *f.MaxMarks <= 0 {
		return 0, false
	}
	return *f.TotalMarks / *f.MaxMarks * 100, true
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// FormatNumber renders a mark without a trailing ".0" for whole numbers.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
