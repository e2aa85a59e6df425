package search

import (
	"strings"

	"github.com/refugee-resources/resource-locator/internal/resource"
)

// Criteria is one structured search request.
type Criteria struct {
	Location string `json:"location"`
	Service  string `json:"service"`
	Language string `json:"language"`
}

// Query is the string submitted to the fuzzy index.
func (c Criteria) Query() string {
	return strings.Join([]string{c.Service, c.Language, c.Location}, " ")
}

// Match is a record annotated with the criteria it satisfied.
type Match struct {
	Record   resource.Record `json:"record"`
	Service  bool            `json:"service"`
	Language bool            `json:"language"`
	Location bool            `json:"location"`
}

// requested reports which criteria carry a value. A blank criterion is never
// satisfied and does not count against a full match.
func (c Criteria) requested() (service, language, location bool) {
	return strings.TrimSpace(c.Service) != "",
		strings.TrimSpace(c.Language) != "",
		strings.TrimSpace(c.Location) != ""
}

// full reports whether every requested criterion holds.
func (m Match) full(c Criteria) bool {
	service, language, location := c.requested()
	if !service && !language && !location {
		return false
	}
	return (!service || m.Service) && (!language || m.Language) && (!location || m.Location)
}

// partial reports whether at least one criterion holds.
func (m Match) partial() bool { return m.Service || m.Language || m.Location }

// Result holds both buckets for one query, in fuzzy index order.
type Result struct {
	Criteria Criteria `json:"criteria"`
	Full     []Match  `json:"full"`
	Partial  []Match  `json:"partial"`
}

// Selected returns the full matches when there are any, otherwise the partial
// matches. The two buckets are never mixed.
func (r Result) Selected() []Match {
	if len(r.Full) > 0 {
		return r.Full
	}
	return r.Partial
}

// IsFull reports whether Selected returned full matches.
func (r Result) IsFull() bool { return len(r.Full) > 0 }

// Empty reports a query with no matching resources.
func (r Result) Empty() bool { return len(r.Full) == 0 && len(r.Partial) == 0 }

// Evaluate runs the fuzzy pre-filter for c and splits the candidates into
// full and partial matches. Service and language membership are
// case-sensitive; location containment is not. Full matches are always also
// partial matches.
func Evaluate(c Criteria, idx Searcher) Result {
	res := Result{Criteria: c, Full: []Match{}, Partial: []Match{}}
	for _, cand := range idx.Search(c.Query()) {
		m := Match{
			Record:   cand.Record,
			Service:  cand.Record.HasService(c.Service),
			Language: cand.Record.HasLanguage(c.Language),
			Location: strings.TrimSpace(c.Location) != "" && cand.Record.InLocation(c.Location),
		}
		if m.full(c) {
			res.Full = append(res.Full, m)
		}
		if m.partial() {
			res.Partial = append(res.Partial, m)
		}
	}
	return res
}

// Resolve returns the records to show for c: full matches if any, otherwise
// partial matches. An empty slice means nothing matched.
func Resolve(c Criteria, idx Searcher) []resource.Record {
	selected := Evaluate(c, idx).Selected()
	out := make([]resource.Record, len(selected))
	for i, m := range selected {
		out[i] = m.Record
	}
	return out
}
