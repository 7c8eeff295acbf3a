// Package keyword implements ai.FeatureExtractor with fixed phrase lists and
// regular expressions. It needs no external service and is deterministic.
//
// Person names require entity recognition and are never reported.
package keyword

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/core"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsince (last )?\w+`),
	regexp.MustCompile(`(?i)\b\w+day\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(st|nd|rd|th)?\s+[a-z]+\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
}

// nearPattern captures a capitalized place name following "near".
var nearPattern = regexp.MustCompile(`\b[Nn]ear\s+([A-Z][\w]*(?:[ \t]+[A-Z][\w]*)*)`)

// Extractor matches complaint text against phrase lists.
type Extractor struct {
	issues  *regexp.Regexp
	urgency *regexp.Regexp
}

var _ ai.FeatureExtractor = (*Extractor)(nil)

// New creates an extractor over ai.IssueKeywords and ai.UrgencyKeywords.
func New() *Extractor {
	return NewWithKeywords(ai.IssueKeywords, ai.UrgencyKeywords)
}

// NewWithKeywords creates an extractor over custom phrase lists.
func NewWithKeywords(issues, urgency []string) *Extractor {
	return &Extractor{
		issues:  phrasePattern(issues),
		urgency: phrasePattern(urgency),
	}
}

// ExtractFeatures returns the phrases of text that match the extractor's lists.
// Matched issue and urgency phrases are lowercased.
func (e *Extractor) ExtractFeatures(ctx context.Context, text string) (*core.Extract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	extract := &core.Extract{
		Location:  []string{},
		IssueType: lowered(e.issues.FindAllString(text, -1)),
		Urgency:   lowered(e.urgency.FindAllString(text, -1)),
		Date:      []string{},
		Person:    []string{},
	}

	for _, m := range nearPattern.FindAllStringSubmatch(text, -1) {
		extract.Location = appendUnique(extract.Location, strings.TrimSpace(m[1]))
	}
	for _, p := range datePatterns {
		for _, m := range p.FindAllString(text, -1) {
			extract.Date = appendUnique(extract.Date, m)
		}
	}
	return extract, nil
}

// phrasePattern builds a case-insensitive alternation matching whole phrases.
// Longer phrases come first so they win over their prefixes.
func phrasePattern(phrases []string) *regexp.Regexp {
	if len(phrases) == 0 {
		return regexp.MustCompile(`$^`)
	}
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	slices.SortStableFunc(quoted, func(a, b string) int {
		return len(b) - len(a)
	})
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func lowered(matches []string) []string {
	out := []string{}
	for _, m := range matches {
		m = strings.Join(strings.Fields(strings.ToLower(m)), " ")
		out = appendUnique(out, m)
	}
	return out
}

func appendUnique(s []string, v string) []string {
	if v == "" || slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
