package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"dashes", "Roll No \u2014 12345 \u2013 A", "Roll No - 12345 - A"},
		{"non-breaking spaces", "Name:\u00a0RAHUL\u202fSHARMA", "Name: RAHUL SHARMA"},
		{"zero width removed", "CG\u200bPA: 7.45\ufeff", "CGPA: 7.45"},
		{"quotes", "Father\u2019s Name", "Father's Name"},
		{"fullwidth digits", "\uff17\uff18.\uff13\uff13%", "78.33%"},
		{"slash spacing", "Marks 78 / 100", "Marks 78/100"},
		{"horizontal whitespace", "English \t  85   A", "English 85 A"},
		{"line endings", "a\r\nb\rc", "a\nb\nc"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trimmed", "  \n  Name: X  \n\n", "Name: X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "  Candidate\u2019s  Name : RAHUL \n\n\n\n English 78 / 100 \u2014 A  "
	once := Normalize(in)

	assert.Equal(t, once, Normalize(once))
}
