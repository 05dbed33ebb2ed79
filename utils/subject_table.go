package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Aashish23092/ocr-marksheet-verification/dto"
)

// "English 85/100 A", "Mathematics: 92 A1", "Hindi 67 out of 100"
var freeFormSubjectPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z .&()'\-]*?[A-Za-z).])\s*[:\-]?\s+(\d{1,3}(?:\.\d{1,2})?)(?:\s*(?:/|out of)\s*(\d{1,4}))?(?:\s+([A-Z][A-Z0-9+\-]{0,2}))?$`)

var numericCell = regexp.MustCompile(`^\d{1,4}(?:\.\d{1,3})?$`)

var gradeCell = regexp.MustCompile(`^(?:[A-F][1-2+\-]?|O|AB|E[1-2]?|P|F)$`)

// Lines starting with one of these are scalar labels, never subjects.
var nonSubjectPrefixes = []string{
	"name", "student", "candidate", "father", "mother", "guardian",
	"roll", "reg.", "regd", "regn", "registration", "enrol", "seat", "dob", "d.o.b", "date", "exam",
	"year", "session", "percent", "cgpa", "c.g.p.a", "sgpa", "cpi",
	"total", "grand", "result", "university", "board", "college",
	"school", "institute", "aggregate", "division", "marks", "max",
	"page", "class", "subject", "grade", "issue", "place", "serial",
	"s.no", "sl.no", "certificate", "centre", "center",
}

// ExtractSubjects scans lines for subject rows. A free-form
// "label marks[/max] [grade]" row takes precedence; otherwise a tabular row
// with at least three contiguous numeric cells is read as label, numbers and
// trailing grade text. Tabular rows whose last number is a decimal on a
// 10 point scale are kept as grade-point rows.
func ExtractSubjects(lines []string) []dto.SubjectRecord {
	var subjects []dto.SubjectRecord
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isNonSubjectLine(line) {
			continue
		}
		if s, ok := parseFreeFormSubject(line); ok {
			subjects = append(subjects, s)
			continue
		}
		if s, ok := parseTabularSubject(line); ok {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

func isNonSubjectLine(line string) bool {
	lower := strings.ToLower(strings.TrimLeft(line, "| "))
	for _, p := range nonSubjectPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func parseFreeFormSubject(line string) (dto.SubjectRecord, bool) {
	m := freeFormSubjectPattern.FindStringSubmatch(line)
	if m == nil {
		return dto.SubjectRecord{}, false
	}
	name := strings.Join(strings.Fields(m[1]), " ")
	if countLetters(name) < 2 {
		return dto.SubjectRecord{}, false
	}
	marks, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return dto.SubjectRecord{}, false
	}

	rec := dto.SubjectRecord{Name: name, MarksObtained: marks}
	if m[3] != "" {
		max, err := strconv.ParseFloat(m[3], 64)
		if err != nil || max <= 0 || marks > max {
			return dto.SubjectRecord{}, false
		}
		rec.MaxMarks = dto.Float(max)
	} else if marks > 100 {
		return dto.SubjectRecord{}, false
	}
	if m[4] != "" {
		rec.Grade = dto.String(m[4])
	}
	return rec, true
}

func parseTabularSubject(line string) (dto.SubjectRecord, bool) {
	cells := splitCells(line)

	first := -1
	for i, c := range cells {
		if numericCell.MatchString(c) {
			first = i
			break
		}
	}
	if first < 0 {
		return dto.SubjectRecord{}, false
	}
	end := first
	for end < len(cells) && numericCell.MatchString(cells[end]) {
		end++
	}

	label := strings.Join(cells[:first], " ")
	numbers := cells[first:end]
	if first == 0 {
		// Row led by a numeric label, e.g. a semester number.
		label, numbers = cells[0], cells[1:end]
	}
	trailing := cells[end:]
	if len(numbers) < 3 || len(trailing) > 4 {
		return dto.SubjectRecord{}, false
	}
	label = strings.Trim(label, " .:-")
	if label == "" {
		return dto.SubjectRecord{}, false
	}

	values := make([]float64, 0, len(numbers))
	for _, n := range numbers {
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return dto.SubjectRecord{}, false
		}
		values = append(values, v)
	}
	last := values[len(values)-1]
	rec := dto.SubjectRecord{Name: label, MarksObtained: last}

	switch {
	case last <= 10 && strings.Contains(numbers[len(numbers)-1], "."):
		rec.GradePoint = true
		rec.MaxMarks = dto.Float(10)
	case last > 1000:
		return dto.SubjectRecord{}, false
	case values[0] > last && isRoundMaximum(values[0]):
		// "Subject | Max | Min | Obtained"
		rec.MaxMarks = dto.Float(values[0])
	}

	if len(trailing) > 0 {
		g := trailing[len(trailing)-1]
		if !gradeCell.MatchString(g) {
			g = strings.Join(trailing, " ")
		}
		rec.Grade = dto.String(g)
	}
	return rec, true
}

func isRoundMaximum(v float64) bool {
	switch v {
	case 50, 75, 100, 150, 200:
		return true
	}
	return false
}

// splitCells splits a table row on pipes when the row is pipe-delimited and
// on whitespace otherwise.
func splitCells(line string) []string {
	var raw []string
	if isPiped(line) {
		raw = strings.Split(line, "|")
	} else {
		raw = strings.Fields(line)
	}
	cells := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			n++
		}
	}
	return n
}
