package common

import "strings"

var AllowedLandTypes = []string{"residential", "agricultural", "commercial", "industrial", "mixed_use"}

// CanonicalLandType folds common aliases onto the canonical land type
// labels. Unknown values are returned trimmed and lower-cased.
func CanonicalLandType(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	lower = strings.NewReplacer("-", "_", " ", "_").Replace(lower)
	switch lower {
	case "":
		return ""
	case "residential", "residence", "home", "housing", "plot":
		return "residential"
	case "agricultural", "agriculture", "agri", "farm", "farmland", "ranch":
		return "agricultural"
	case "commercial", "business", "shop":
		return "commercial"
	case "industrial", "godown", "warehouse":
		return "industrial"
	case "mixed_use", "mixed", "mixeduse":
		return "mixed_use"
	}
	return lower
}
