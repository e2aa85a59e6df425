package resource

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ServiceTags is the closed set of service types the extractor may emit.
var ServiceTags = []string{
	"Food",
	"Housing",
	"Housing/Shelter",
	"Legal",
	"Education",
	"Healthcare",
	"Employment",
	"Cash Assistance",
	"Mental Health",
	"Other",
}

// LanguageTags is the closed set of languages the extractor may emit.
var LanguageTags = []string{
	"English",
	"Spanish",
	"French",
	"Portuguese",
	"Haitian Creole",
	"Arabic",
	"Mandarin",
	"Cantonese",
	"Somali",
	"Swahili",
	"Dari",
	"Pashto",
	"Maay Maay",
	"Darija",
}

// CanonicalService maps loosely written service text to a tag from
// ServiceTags. The second result is false when nothing is close enough.
func CanonicalService(s string) (string, bool) {
	return canonical(s, ServiceTags)
}

// CanonicalLanguage maps loosely written language text to a tag from
// LanguageTags.
func CanonicalLanguage(s string) (string, bool) {
	return canonical(s, LanguageTags)
}

// canonical tries an exact match, then a case-insensitive one, then the best
// fuzzy match whose matched characters cover at least half of the tag.
func canonical(s string, tags []string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, t := range tags {
		if t == s {
			return t, true
		}
	}
	for _, t := range tags {
		if strings.EqualFold(t, s) {
			return t, true
		}
	}

	matches := fuzzy.Find(strings.ToLower(s), lowered(tags))
	if len(matches) == 0 {
		return "", false
	}
	best := matches[0]
	if len(best.MatchedIndexes)*2 < len(tags[best.Index]) {
		return "", false
	}
	return tags[best.Index], true
}

func lowered(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(t)
	}
	return out
}
