package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/refugee-resources/resource-locator/internal/resource"
)

// Weights sets how much each record field contributes to a candidate score.
type Weights struct {
	Location float64 `yaml:"location"`
	Service  float64 `yaml:"service"`
	Language float64 `yaml:"language"`
}

// DefaultWeights rank location highest, then service type, then language.
var DefaultWeights = Weights{Location: 0.5, Service: 0.4, Language: 0.3}

// DefaultThreshold keeps candidates scoring at most 0.6 (0 is a perfect match).
const DefaultThreshold = 0.6

// IndexOptions tune the fuzzy index.
type IndexOptions struct {
	Weights   Weights
	Threshold float64
}

// Candidate is a record returned by the index together with its score.
type Candidate struct {
	Record resource.Record
	Score  float64
}

// Searcher is the fuzzy pre-filter consumed by the matcher.
type Searcher interface {
	Search(query string) []Candidate
}

// Index is an in-memory fuzzy index over a fixed record set. Token position is
// ignored: each query token is scored against every word of a field and the
// best token wins for that field.
type Index struct {
	records []resource.Record
	docs    []document
	opts    IndexOptions
}

type document struct {
	location []string
	service  []string
	language []string
}

// NewIndex builds an index over records. Zero options fall back to
// DefaultWeights and DefaultThreshold.
func NewIndex(records []resource.Record, opts IndexOptions) *Index {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	docs := make([]document, len(records))
	for i, r := range records {
		docs[i] = document{
			location: words(r.LocationText),
			service:  words(strings.Join(r.ServiceTypes, " ")),
			language: words(strings.Join(r.Languages, " ")),
		}
	}
	return &Index{records: records, docs: docs, opts: opts}
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.records) }

// Records returns the indexed records in load order.
func (ix *Index) Records() []resource.Record { return ix.records }

// Search returns the records whose weighted score is within the threshold,
// best first. Ties keep load order.
func (ix *Index) Search(query string) []Candidate {
	tokens := words(query)
	if len(tokens) == 0 {
		return nil
	}

	w := ix.opts.Weights
	total := w.Location + w.Service + w.Language

	var out []Candidate
	for i, doc := range ix.docs {
		score := (w.Location*fieldScore(tokens, doc.location) +
			w.Service*fieldScore(tokens, doc.service) +
			w.Language*fieldScore(tokens, doc.language)) / total
		if score <= ix.opts.Threshold {
			out = append(out, Candidate{Record: ix.records[i], Score: score})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Score < out[b].Score })
	return out
}

// fieldScore is the best score any query token reaches against the field.
func fieldScore(tokens, field []string) float64 {
	if len(field) == 0 {
		return 1
	}
	best := 1.0
	for _, tok := range tokens {
		for _, word := range field {
			if s := tokenScore(tok, word); s < best {
				best = s
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

// tokenScore compares one lowercase query token to one lowercase field word.
// Substrings score 0, in-order subsequences score by the share of skipped
// characters, everything else by normalized edit distance.
func tokenScore(tok, word string) float64 {
	if len(tok) < 2 {
		return 1
	}
	if strings.Contains(word, tok) {
		return 0
	}

	score := 1.0
	if fuzzy.Match(tok, word) {
		score = float64(len(word)-len(tok)) / float64(len(word))
	}

	longest := len(tok)
	if len(word) > longest {
		longest = len(word)
	}
	if d := float64(fuzzy.LevenshteinDistance(tok, word)) / float64(longest); d < score {
		score = d
	}
	return score
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
