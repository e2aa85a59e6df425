package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/refugee-resources/resource-locator/internal/resource"
	"github.com/refugee-resources/resource-locator/internal/search"
)

// Field names used when asking the user for missing details.
const (
	FieldLocation = "location"
	FieldService  = "service type"
	FieldLanguage = "preferred language"
)

var (
	// ErrNoChoices is returned when the model replies without any choice.
	ErrNoChoices = errors.New("model returned no choices")
	// ErrNoJSON is returned when the reply holds no JSON object.
	ErrNoJSON = errors.New("no JSON object in model reply")
)

// Extractor turns free text into search criteria.
type Extractor interface {
	Extract(ctx context.Context, text string) (Result, error)
}

// Result is a best-effort extraction. A nil field was not found in the text;
// a non-nil empty field was found but blank.
type Result struct {
	Location *string `json:"location,omitempty"`
	Service  *string `json:"service,omitempty"`
	Language *string `json:"language,omitempty"`
}

// Complete reports whether all three fields carry a value.
func (r Result) Complete() bool {
	return len(r.Missing()) == 0
}

// Missing lists the fields that are absent or blank, in prompt order.
func (r Result) Missing() []string {
	var missing []string
	if blank(r.Location) {
		missing = append(missing, FieldLocation)
	}
	if blank(r.Service) {
		missing = append(missing, FieldService)
	}
	if blank(r.Language) {
		missing = append(missing, FieldLanguage)
	}
	return missing
}

// Criteria converts the result for the matcher. Call only when Complete.
func (r Result) Criteria() search.Criteria {
	return search.Criteria{
		Location: value(r.Location),
		Service:  value(r.Service),
		Language: value(r.Language),
	}
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildPrompt asks the model for a JSON object restricted to the known tags.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Please respond only in JSON format. Extract location, service type, and language from this message: %q.

Use only the following exact terms if found:
Service types = [%s]
Languages = [%s]

Return a JSON object with the keys "location", "service" and "language". Leave out any key you cannot find in the message instead of guessing.
For example: {"location": "Boston", "service": "Food", "language": "English"}

IMPORTANT: Your response MUST be a valid JSON object and nothing else.`,
		text, quoteAll(resource.ServiceTags), quoteAll(resource.LanguageTags))
}

func quoteAll(tags []string) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

// ParseResponse decodes the first JSON object found in raw. Service and
// language values outside the known tags are dropped so the user is asked
// for them again.
func ParseResponse(raw string) (Result, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return Result{}, fmt.Errorf("%w: %q", ErrNoJSON, raw)
	}

	var res Result
	if err := json.Unmarshal([]byte(raw[start:end+1]), &res); err != nil {
		return Result{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	if res.Location != nil {
		loc := strings.TrimSpace(*res.Location)
		res.Location = &loc
	}
	if res.Service != nil {
		res.Service = canonicalOrNil(*res.Service, resource.CanonicalService)
		if res.Service == nil {
			log.Printf("Dropping unknown service type from model reply")
		}
	}
	if res.Language != nil {
		res.Language = canonicalOrNil(*res.Language, resource.CanonicalLanguage)
		if res.Language == nil {
			log.Printf("Dropping unknown language from model reply")
		}
	}
	return res, nil
}

func canonicalOrNil(s string, canon func(string) (string, bool)) *string {
	tag, ok := canon(s)
	if !ok {
		return nil
	}
	return &tag
}

var (
	spaceRe = regexp.MustCompile(`\s+`)
	punctRe = regexp.MustCompile(`[-,./()!?;:'"]`)
)

// NormalizeMessage folds a user message into a cache key: lowercase, no
// punctuation, single spaces.
func NormalizeMessage(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = punctRe.ReplaceAllString(normalized, " ")
	normalized = spaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
