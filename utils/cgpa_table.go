package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	proximityDecimal = regexp.MustCompile(`\b(\d{1,2}\.\d{1,2})\b`)
	semesterContext  = regexp.MustCompile(`(?i)\b(?:sem(?:ester)?|ttcr|ttcp)\b`)
)

// Values that show up next to CGPA labels as scale or credit figures.
var proximityBlacklist = map[float64]bool{0: true, 1: true, 4: true, 10: true}

const proximityWindow = 3

// extractCGPA resolves the cumulative grade point average. A CGPA column in
// a semester table beats a labeled scalar; without either, the last semester
// row and then decimals near a CGPA label are tried.
func extractCGPA(lines []string, joined string) *float64 {
	if v, ok := cgpaFromHeaderTable(lines); ok {
		return &v
	}
	if v := firstNumber(joined, cgpaPatterns, validCGPA); v != nil {
		return v
	}
	if v, ok := cgpaFromResultRows(lines); ok {
		return &v
	}
	if v, ok := cgpaFromProximity(lines); ok {
		return &v
	}
	return nil
}

// Column titles that appear next to CGPA in semester result tables.
var tableHeaderWords = map[string]bool{
	"SEM": true, "SEMESTER": true, "SGPA": true, "GPA": true, "TTCR": true,
	"TTCP": true, "RESULT": true, "CREDITS": true, "CREDIT": true, "CR": true,
	"CP": true, "ECP": true, "GRADE": true, "STATUS": true, "YEAR": true,
	"MARKS": true, "TOTAL": true, "REMARKS": true,
}

// tableHeader is the header row of a CGPA table and the layout its data
// rows must keep.
type tableHeader struct {
	col   int
	cells int
	piped bool
}

// cgpaFromHeaderTable locates a header row with a CGPA column and returns
// the value in that column on the last row of the table that carries one.
// The table ends at the first row that is not laid out like a data row.
func cgpaFromHeaderTable(lines []string) (float64, bool) {
	var (
		found bool
		last  float64
		table *tableHeader
	)
	for _, line := range lines {
		cells := splitCells(line)
		if h, ok := cgpaHeader(line, cells); ok {
			table = &h
			continue
		}
		if table == nil {
			continue
		}
		if !isTableRow(line, cells, *table) {
			table = nil
			continue
		}
		if v, ok := cellValue(cells, table.col, table.cells); ok {
			last, found = v, true
		}
	}
	return last, found
}

// cgpaHeader accepts a line as a table header when it has a CGPA cell, no
// numeric cells, and is either pipe delimited or names at least two other
// result table columns.
func cgpaHeader(line string, cells []string) (tableHeader, bool) {
	if len(cells) < 3 {
		return tableHeader{}, false
	}
	col, others := -1, 0
	for i, c := range cells {
		if numericCell.MatchString(c) {
			return tableHeader{}, false
		}
		word := strings.ToUpper(strings.ReplaceAll(c, ".", ""))
		switch {
		case word == "CGPA" && col < 0:
			col = i
		case tableHeaderWords[word]:
			others++
		}
	}
	if col < 0 {
		return tableHeader{}, false
	}
	piped := isPiped(line)
	if !piped && others < 2 {
		return tableHeader{}, false
	}
	return tableHeader{col: col, cells: len(cells), piped: piped}, true
}

// isTableRow reports whether a line keeps the table going: same delimiter
// as the header, at least two numeric cells, and not much wider.
func isTableRow(line string, cells []string, h tableHeader) bool {
	if isPiped(line) != h.piped || len(cells) > h.cells+2 {
		return false
	}
	numeric := 0
	for _, c := range cells {
		if numericCell.MatchString(c) {
			numeric++
		}
	}
	return numeric >= 2
}

func isPiped(line string) bool {
	return strings.Count(line, "|") >= 2
}

// cellValue reads the CGPA column of a data row, aligning from the right
// when the row and header split into a different number of cells.
func cellValue(cells []string, col, header int) (float64, bool) {
	try := func(i int) (float64, bool) {
		if i < 0 || i >= len(cells) || !numericCell.MatchString(cells[i]) {
			return 0, false
		}
		v, err := strconv.ParseFloat(cells[i], 64)
		if err != nil || !validCGPA(v) {
			return 0, false
		}
		return v, true
	}
	if v, ok := try(col); ok {
		return v, true
	}
	if len(cells) != header {
		return try(len(cells) - (header - col))
	}
	return 0, false
}

// cgpaFromResultRows reads semester result rows such as
// "VIII 24 180 7.50 7.45 PASSED" and returns the last decimal on the
// 10 point scale from the last such row.
func cgpaFromResultRows(lines []string) (float64, bool) {
	var (
		found bool
		last  float64
	)
	for _, line := range lines {
		cells := splitCells(line)
		lower := strings.ToLower(line)
		if len(cells) < 5 && !strings.Contains(lower, "passed") && !strings.Contains(lower, "result") {
			continue
		}

		var numeric []string
		for _, c := range cells {
			if numericCell.MatchString(c) {
				numeric = append(numeric, c)
			}
		}
		if len(numeric) < 3 {
			continue
		}
		tail := numeric[len(numeric)-1]
		if !strings.Contains(tail, ".") {
			continue
		}
		v, err := strconv.ParseFloat(tail, 64)
		if err != nil || !validCGPA(v) {
			continue
		}
		last, found = v, true
	}
	return last, found
}

// cgpaFromProximity scans a few lines around every CGPA mention that sits in
// a semester context and returns the last plausible decimal.
func cgpaFromProximity(lines []string) (float64, bool) {
	var (
		found bool
		last  float64
		seen  = make(map[int]bool)
	)
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "cgpa") {
			continue
		}
		lo, hi := window(i, len(lines))
		if !semesterContext.MatchString(strings.Join(lines[lo:hi], "\n")) {
			continue
		}
		for j := lo; j < hi; j++ {
			if seen[j] {
				continue
			}
			seen[j] = true
			for _, m := range proximityDecimal.FindAllString(lines[j], -1) {
				v, err := strconv.ParseFloat(m, 64)
				if err != nil || !validCGPA(v) || proximityBlacklist[v] {
					continue
				}
				last, found = v, true
			}
		}
	}
	return last, found
}

func window(i, n int) (int, int) {
	lo := i - proximityWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + proximityWindow + 1
	if hi > n {
		hi = n
	}
	return lo, hi
}
