package intake

import (
	"strings"

	"github.com/Jacobbrewer1/triage/pkg/entities"
)

// Report is a description message split into its parts.
type Report struct {
	CourseCode  string
	Description string
}

// ParseReport splits a description message. Planner reports carry the course code on the first line and
// the description after it. Anything else, including a planner report on a single line, is taken whole
// as the description. Parsing never fails.
func ParseReport(feature, text string) Report {
	if feature != entities.FeaturePlanner {
		return Report{Description: text}
	}

	parts := strings.SplitN(text, "\n", 2)
	if len(parts) < 2 {
		return Report{Description: text}
	}

	desc := strings.TrimSpace(parts[1])
	if desc == "" {
		// A course code with nothing after it keeps the text rather than storing an empty description.
		return Report{Description: text}
	}

	return Report{
		CourseCode:  strings.ToUpper(strings.TrimSpace(parts[0])),
		Description: desc,
	}
}
