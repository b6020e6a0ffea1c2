package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"NewsDigest/internal/domain"
)

const defaultScore = 5

// DefaultEnrichment is used whenever the model answer cannot be trusted.
func DefaultEnrichment(title, source string) domain.Enrichment {
	return domain.Enrichment{
		Summary:        fmt.Sprintf("%s - from %s", title, source),
		Categories:     []string{domain.CategoryOther},
		RelevanceScore: defaultScore,
		IsActionable:   false,
	}
}

type rawEnrichment struct {
	Summary        any `json:"summary"`
	Categories     any `json:"categories"`
	RelevanceScore any `json:"relevance_score"`
	IsActionable   any `json:"is_actionable"`
}

// ParseEnrichment sanitizes a model answer field by field. The boolean is
// false when the answer was not a JSON object and defaults were used.
func ParseEnrichment(text, title, source string) (domain.Enrichment, bool) {
	out := DefaultEnrichment(title, source)

	var raw rawEnrichment
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return out, false
	}

	if s, ok := raw.Summary.(string); ok && s != "" {
		out.Summary = s
	}

	if list, ok := raw.Categories.([]any); ok {
		cats := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok && domain.IsCategory(s) {
				cats = append(cats, s)
			}
		}
		if len(cats) > 0 {
			out.Categories = cats
		}
	}

	if f, ok := raw.RelevanceScore.(float64); ok && f >= 1 && f <= 10 {
		out.RelevanceScore = int(math.Floor(f + 0.5))
	}

	if b, ok := raw.IsActionable.(bool); ok {
		out.IsActionable = b
	}

	return out, true
}

type rawPick struct {
	ArticleID any `json:"article_id"`
	Intro     any `json:"intro"`
}

// ParsePick decodes the editor answer. A missing or non-string id is an error.
func ParsePick(text string) (domain.Pick, error) {
	var raw rawPick
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return domain.Pick{}, fmt.Errorf("decode pick: %w", err)
	}

	id, ok := raw.ArticleID.(string)
	if !ok || id == "" {
		return domain.Pick{}, fmt.Errorf("pick has no article_id")
	}
	intro, _ := raw.Intro.(string)
	return domain.Pick{ArticleID: id, Intro: intro}, nil
}

// stripFences removes a surrounding markdown code fence if the model added one.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
