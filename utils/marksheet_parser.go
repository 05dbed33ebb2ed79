package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Aashish23092/ocr-marksheet-verification/dto"
)

// Value fragments shared by the label patterns.
const (
	namePart    = `([A-Za-z][A-Za-z .']*)`
	idPart      = `([A-Za-z0-9][A-Za-z0-9/\-]*)`
	numericDate = `(\d{1,2}[\-/.]\d{1,2}[\-/.]\d{2,4})`
	wordDate    = `(\d{1,2}(?:st|nd|rd|th)?[\s\-]+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[\s,\-]+\d{4})`
	yearPart    = `((?:19|20)\d{2})\b`
	gpaPart     = `[ \t]*[:\-=]?[ \t]*(\d{1,2}(?:\.\d{1,3})?)\b`
)

// Label patterns per field, in precedence order. The first pattern with a
// valid match wins.
var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^(?:student'?s?|candidate'?s?)\s*name\s*[:\-]?\s*` + namePart),
		regexp.MustCompile(`(?im)^name\s*(?:of\s+(?:the\s+)?(?:student|candidate|examinee))?\s*[:\-]\s*` + namePart),
		regexp.MustCompile(`(?i)\bname\s*[:\-]\s*` + namePart),
		regexp.MustCompile(`(?i)certif(?:y|ied)\s+that\s+(?:(?:mr|ms|mrs|miss|shri|smt|kumari|km)\.?\s+)?([A-Za-z][A-Za-z .']+?)\s+(?:son|daughter|s/o|d/o|w/o|has|bearing|roll)\b`),
	}

	fatherNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)father'?s?\s*(?:/(?:guardian|husband)'?s?)?\s*name\s*[:\-]?\s*` + namePart),
		regexp.MustCompile(`(?i)(?:\bs/o|\bd/o|\bson\s+of|\bdaughter\s+of)\s*[:\-]?\s*(?:(?:mr|shri|sh)\.?\s+)?` + namePart),
		regexp.MustCompile(`(?i)guardian'?s?\s*name\s*[:\-]?\s*` + namePart),
	}

	rollNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\broll\s*(?:no\.?|number|num|code)?\s*[:\-.]?\s*` + idPart),
		regexp.MustCompile(`(?i)\bseat\s*(?:no\.?|number)\s*[:\-.]?\s*` + idPart),
		regexp.MustCompile(`(?i)\benrol(?:l)?ment\s*(?:no\.?|number)?\s*[:\-.]?\s*` + idPart),
	}

	registrationNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\breg(?:istration|n|d)?\.?\s*(?:no\.?|number)\s*[:\-.]?\s*` + idPart),
		regexp.MustCompile(`(?i)\bregistration\s*[:\-]\s*` + idPart),
	}

	dobPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:d\.?o\.?b\.?|date\s+of\s+birth|birth\s+date)\s*[:\-]?\s*` + numericDate),
		regexp.MustCompile(`(?i)\b(?:d\.?o\.?b\.?|date\s+of\s+birth|birth\s+date)\s*[:\-]?\s*` + wordDate),
	}

	examNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:name\s+of\s+(?:the\s+)?)?exam(?:ination)?[ \t]*(?:name)?[ \t]*[:\-]\s*([A-Za-z][A-Za-z0-9 .,()&'\-]*)`),
		regexp.MustCompile(`(?i)\b((?:all\s+india\s+)?(?:senior\s+school|secondary\s+school|higher\s+secondary|senior\s+secondary|secondary|matriculation|intermediate)\s+(?:school\s+)?(?:certificate\s+)?(?:examination|exam))`),
		regexp.MustCompile(`(?i)\b((?:bachelor|master)\s+of\s+[a-z]+(?:\s+(?:in|and)\s+[a-z]+(?:\s+[a-z]+)?)?)`),
		regexp.MustCompile(`(?i)\b(b\.?\s?tech|m\.?\s?tech|b\.?\s?sc|m\.?\s?sc|b\.?\s?com|bca|bba|mba|mca)\b`),
	}

	yearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\byear\s+of\s+(?:passing|examination|exam)\s*[:\-]?\s*` + yearPart),
		regexp.MustCompile(`(?i)\bpassing\s+year\s*[:\-]?\s*` + yearPart),
		regexp.MustCompile(`(?i)\byear\s*[:\-]\s*` + yearPart),
		regexp.MustCompile(`(?i)\bexam(?:ination)?\b[^\n]{0,40}?\b` + yearPart),
		regexp.MustCompile(`(?i)\b(?:session|academic\s+year)\s*[:\-]?\s*` + yearPart),
		regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)[\s,\-]+` + yearPart),
	}

	universityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:university|board)[ \t]*(?:name)?[ \t]*[:\-]\s*([A-Za-z][A-Za-z .,&()'\-]*)`),
		regexp.MustCompile(`(?im)^([A-Za-z][A-Za-z .,&'\-]*\buniversity\b[A-Za-z .,&'\-]*)$`),
		regexp.MustCompile(`(?im)^([A-Za-z][A-Za-z .,&'\-]*\bboard\s+of\b[A-Za-z .,&'\-]*)$`),
		regexp.MustCompile(`(?im)^([A-Za-z][A-Za-z .,&'\-]*\b(?:vidyapeeth|vishwavidyalaya|institute\s+of\s+technology)\b[A-Za-z .,&'\-]*)$`),
	}

	collegePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:college|school|institute|institution)[ \t]*(?:name)?[ \t]*[:\-]\s*([A-Za-z0-9][A-Za-z0-9 .,&()'\-]*)`),
		regexp.MustCompile(`(?im)^([A-Za-z][A-Za-z .,&'\-]*\b(?:college|vidyalaya)\b[A-Za-z .,&'\-]*)$`),
		regexp.MustCompile(`(?im)^([A-Za-z][A-Za-z .,&'\-]*\b(?:public|high|senior\s+secondary|model)\s+school\b[A-Za-z .,&'\-]*)$`),
	}

	percentagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpercent(?:age)?\s*(?:of\s+marks)?\s*(?:obtained|scored|secured)?\s*[:\-]?\s*(\d{1,3}(?:\.\d+)?)\s*%?`),
		regexp.MustCompile(`(?i)\b(?:aggregate|overall)\s*(?:percentage|marks)?\s*[:\-]?\s*(\d{1,3}(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`),
	}

	cgpaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bc\.?g\.?p\.?a\.?[ \t]*(?:obtained|earned|secured)?` + gpaPart),
		regexp.MustCompile(`(?i)\bcumulative\s+grade\s+point\s+average` + gpaPart),
		regexp.MustCompile(`(?i)\b(?:cpi|ogpa)` + gpaPart),
	}

	// "Total marks 450 of 500", "Grand Total: 450/500"
	totalOutOfPattern = regexp.MustCompile(`(?i)\b(?:grand\s+)?total\s*(?:marks)?\s*(?:obtained|secured)?\s*[:\-]?\s*(\d{1,4}(?:\.\d+)?)\s*(?:/|of|out\s+of)\s*(\d{1,4})\b`)
	// "TOTAL 450 500", "GRAND TOTAL | 450 | 500"
	totalColumnsPattern = regexp.MustCompile(`(?i)\b(?:grand\s+)?total\s*(?:marks)?\s*[:\-|]?\s*(\d{1,4}(?:\.\d+)?)[ \t|]+(\d{1,4})\b`)
)

// labelStop cuts a captured value where the next label on the same line
// begins, e.g. "RAHUL SHARMA Roll No".
var labelStop = regexp.MustCompile(`(?i)\s+(?:roll|reg(?:istration|n|d)?\.?|father'?s?|mother'?s?|guardian'?s?|d\.?o\.?b\.?|date|class|seat|enrol+ment|year|session|gender|sex|category|s/o|d/o|w/o|son\s+of|daughter\s+of|centre|center|school\s+code|percentage|cgpa|result)\b.*$`)

// namePrefixGuard rejects "name:" matches that belong to another label.
var namePrefixGuard = regexp.MustCompile(`(?i)(?:father|mother|guardian|husband|school|college|institute|exam|examination|board|university|centre|center)'?s?\s*$`)

// ExtractFields recovers the structured record from normalized document
// text. Empty text and acquisition markers are returned as a
// *dto.DiagnosticError carrying the original diagnostic.
func ExtractFields(text string) (*dto.ExtractedFields, error) {
	if d, ok := dto.DiagnosticFromText(text); ok {
		return nil, dto.NewDiagnosticError(d, "")
	}
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, dto.NewDiagnosticError(dto.DiagnosticEmptyDocument, "no text to extract fields from")
	}
	joined := strings.Join(lines, "\n")

	fields := &dto.ExtractedFields{
		Name:               firstMatch(joined, namePatterns, validName, namePrefixGuard),
		FatherName:         firstMatch(joined, fatherNamePatterns, validName, nil),
		RollNumber:         firstMatch(joined, rollNumberPatterns, validIdentifier, nil),
		RegistrationNumber: firstMatch(joined, registrationNumberPatterns, validIdentifier, nil),
		DOB:                firstMatch(joined, dobPatterns, validDate, nil),
		ExamName:           firstMatch(joined, examNamePatterns, validPhrase, nil),
		Year:               firstMatch(joined, yearPatterns, validYear, nil),
		University:         firstMatch(joined, universityPatterns, validPhrase, nil),
		College:            firstMatch(joined, collegePatterns, validPhrase, nil),
		Percentage:         firstNumber(joined, percentagePatterns, validPercentage),
	}

	fields.Subjects = ExtractSubjects(lines)
	fields.CGPA = extractCGPA(lines, joined)
	fields.TotalMarks, fields.MaxMarks = extractTotals(joined, fields.Subjects)

	fields.Finalize()
	return fields, nil
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// firstMatch walks the patterns in order and, within a pattern, its matches
// in document order, returning the first value the validator accepts.
// A guard, when set, rejects matches whose preceding text on the same line
// matches it.
func firstMatch(text string, patterns []*regexp.Regexp, validate func(string) (string, bool), guard *regexp.Regexp) *string {
	for _, re := range patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			if guard != nil && guard.MatchString(linePrefix(text, loc[0])) {
				continue
			}
			if v, ok := validate(text[loc[2]:loc[3]]); ok {
				return dto.String(v)
			}
		}
	}
	return nil
}

func firstNumber(text string, patterns []*regexp.Regexp, validate func(float64) bool) *float64 {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || !validate(v) {
				continue
			}
			return dto.Float(v)
		}
	}
	return nil
}

// linePrefix returns the text between the start of the line and pos.
func linePrefix(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	return text[start:pos]
}

func cleanValue(v string) string {
	v = labelStop.ReplaceAllString(" "+v, "")
	v = strings.Join(strings.Fields(v), " ")
	return strings.Trim(v, " .,:;-|")
}

func validName(v string) (string, bool) {
	v = cleanValue(v)
	if countLetters(v) < 2 || len(v) > 60 {
		return "", false
	}
	lower := strings.ToLower(v)
	for _, bad := range []string{"of the candidate", "of candidate", "of student", "name"} {
		if lower == bad {
			return "", false
		}
	}
	return v, true
}

func validIdentifier(v string) (string, bool) {
	v = strings.Trim(v, "/-.")
	if len(v) < 3 || len(v) > 25 || !strings.ContainsAny(v, "0123456789") {
		return "", false
	}
	return strings.ToUpper(v), true
}

func validDate(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

func validPhrase(v string) (string, bool) {
	v = cleanValue(v)
	if len(v) < 3 || len(v) > 120 {
		return "", false
	}
	return v, true
}

func validYear(v string) (string, bool) {
	y, err := strconv.Atoi(v)
	if err != nil || y < 1900 || y > 2099 {
		return "", false
	}
	return v, true
}

func validPercentage(v float64) bool { return v > 0 && v <= 100 }

func validCGPA(v float64) bool { return v >= 0 && v <= 10 }

// extractTotals prefers an explicit total line and otherwise sums the
// recognized subjects, assuming 100 for subjects without a maximum.
func extractTotals(joined string, subjects []dto.SubjectRecord) (*float64, *float64) {
	for _, m := range totalOutOfPattern.FindAllStringSubmatch(joined, -1) {
		total, err1 := strconv.ParseFloat(m[1], 64)
		max, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || max <= 0 || total > max {
			continue
		}
		return dto.Float(total), dto.Float(max)
	}
	for _, m := range totalColumnsPattern.FindAllStringSubmatch(joined, -1) {
		total, err1 := strconv.ParseFloat(m[1], 64)
		max, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if total > max {
			total, max = max, total
		}
		if max <= 0 {
			continue
		}
		return dto.Float(total), dto.Float(max)
	}

	var total, max float64
	counted := 0
	for _, s := range subjects {
		if s.GradePoint {
			continue
		}
		total += s.MarksObtained
		if s.MaxMarks != nil {
			max += *s.MaxMarks
		} else {
			max += 100
		}
		counted++
	}
	if counted == 0 {
		return nil, nil
	}
	return dto.Float(total), dto.Float(max)
}
