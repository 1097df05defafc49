package entities

const (
	FeatureStopList   = "Stop List"
	FeatureGPA        = "GPA"
	FeatureCoursework = "Coursework"
	FeaturePlanner    = "Planner"
	FeatureOthers     = "Others"
)

// Features are the canonical product areas, in display order.
// Reports against other names are accepted and stored verbatim.
var Features = []string{
	FeatureStopList,
	FeatureGPA,
	FeatureCoursework,
	FeaturePlanner,
	FeatureOthers,
}

// IsCanonicalFeature reports whether f is one of Features.
func IsCanonicalFeature(f string) bool {
	for _, c := range Features {
		if c == f {
			return true
		}
	}
	return false
}
