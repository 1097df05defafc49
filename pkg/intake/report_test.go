package intake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		text    string
		want    Report
	}{
		{
			name:    "planner two lines",
			feature: "Planner",
			text:    "CSEN102\nThe prerequisites shown are incorrect.",
			want:    Report{CourseCode: "CSEN102", Description: "The prerequisites shown are incorrect."},
		},
		{
			name:    "planner code is upper cased and trimmed",
			feature: "Planner",
			text:    "  csen102 \n  wrong credit hours  ",
			want:    Report{CourseCode: "CSEN102", Description: "wrong credit hours"},
		},
		{
			name:    "planner splits on the first line break only",
			feature: "Planner",
			text:    "MATH101\nline one\nline two",
			want:    Report{CourseCode: "MATH101", Description: "line one\nline two"},
		},
		{
			name:    "planner single line",
			feature: "Planner",
			text:    "just one line",
			want:    Report{Description: "just one line"},
		},
		{
			name:    "planner empty second line",
			feature: "Planner",
			text:    "CSEN102\n   ",
			want:    Report{Description: "CSEN102\n   "},
		},
		{
			name:    "other feature keeps line breaks",
			feature: "GPA",
			text:    "CSEN102\nwrong",
			want:    Report{Description: "CSEN102\nwrong"},
		},
		{
			name:    "feature match is exact",
			feature: "planner",
			text:    "CSEN102\nwrong",
			want:    Report{Description: "CSEN102\nwrong"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseReport(tt.feature, tt.text))
		})
	}
}
