package domain

// Categories is the closed topic vocabulary used during enrichment.
var Categories = []string{
	"llm",
	"safety",
	"research",
	"tools",
	"policy",
	"business",
	"open-source",
	"robotics",
	"computer-vision",
	"other",
}

// CategoryOther is assigned when nothing else applies.
const CategoryOther = "other"

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

var categoryLabels = map[string]string{
	"llm":             "LLM",
	"safety":          "Safety",
	"research":        "Research",
	"tools":           "Tools",
	"policy":          "Policy",
	"business":        "Business",
	"open-source":     "Open Source",
	"robotics":        "Robotics",
	"computer-vision": "Vision",
	"other":           "Other",
}

// IsCategory reports whether tag belongs to the vocabulary.
func IsCategory(tag string) bool {
	_, ok := categorySet[tag]
	return ok
}

// FilterCategories keeps only known tags, preserving order.
func FilterCategories(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if IsCategory(t) {
			out = append(out, t)
		}
	}
	return out
}

// CategoryLabel maps a tag to its display label; unknown tags pass through.
func CategoryLabel(tag string) string {
	if label, ok := categoryLabels[tag]; ok {
		return label
	}
	return tag
}
