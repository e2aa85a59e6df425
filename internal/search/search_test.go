package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refugee-resources/resource-locator/internal/resource"
)

func fixture() []resource.Record {
	return []resource.Record{
		{
			OrganizationName: "Greater Boston Food Bank",
			LocationText:     "70 South Bay Ave, BOSTON, MA 02118",
			ServiceTypes:     []string{"Food", "Housing"},
			Languages:        []string{"Spanish", "English"},
		},
		{
			OrganizationName: "Cambridge Legal Aid",
			LocationText:     "CAMBRIDGE, MA 02141",
			ServiceTypes:     []string{"Legal"},
			Languages:        []string{"English", "Haitian Creole"},
		},
		{
			OrganizationName: "Dorchester Health Center",
			LocationText:     "BOSTON, MA 02122",
			ServiceTypes:     []string{"Healthcare", "Mental Health"},
			Languages:        []string{"Somali", "Arabic"},
		},
		{
			OrganizationName: "Chelsea Job Hub",
			LocationText:     "CHELSEA, MA 02150",
			ServiceTypes:     []string{"Employment"},
			Languages:        []string{"Portuguese"},
		},
	}
}

// staticIndex returns fixed candidates regardless of the query.
type staticIndex []resource.Record

func (s staticIndex) Search(string) []Candidate {
	out := make([]Candidate, len(s))
	for i, r := range s {
		out[i] = Candidate{Record: r}
	}
	return out
}

func names(records []resource.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.OrganizationName
	}
	return out
}

func matchNames(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Record.OrganizationName
	}
	return out
}

func TestCriteriaQuery(t *testing.T) {
	c := Criteria{Location: "Boston", Service: "Food", Language: "Spanish"}
	assert.Equal(t, "Food Spanish Boston", c.Query())
}

func TestIndex_ExactMatchRanksFirst(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	require.Equal(t, 4, idx.Len())

	got := idx.Search("Food Spanish Boston")
	require.NotEmpty(t, got)
	assert.Equal(t, "Greater Boston Food Bank", got[0].Record.OrganizationName)
	assert.Equal(t, 0.0, got[0].Score)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Score, got[i].Score, "candidates are sorted best first")
	}
}

func TestIndex_IgnoresTokenOrder(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	a := idx.Search("Food Spanish Boston")
	b := idx.Search("boston spanish food")
	assert.Equal(t, a, b)
}

func TestIndex_ToleratesMisspelledLocation(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	got := idx.Search("Legal English Cambrige")
	require.NotEmpty(t, got)
	assert.Equal(t, "Cambridge Legal Aid", got[0].Record.OrganizationName)
}

func TestIndex_ThresholdBoundsCandidates(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	got := idx.Search("Legal English Cambridge")

	var found []string
	for _, c := range got {
		found = append(found, c.Record.OrganizationName)
	}
	assert.Contains(t, found, "Cambridge Legal Aid")
	assert.NotContains(t, found, "Chelsea Job Hub", "unrelated records are filtered out")
	assert.Less(t, len(got), idx.Len())
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	assert.Empty(t, idx.Search("   "))
}

func TestTokenScore(t *testing.T) {
	assert.Equal(t, 0.0, tokenScore("bost", "boston"))
	assert.Equal(t, 1.0, tokenScore("a", "boston"), "single characters are ignored")
	assert.InDelta(t, 1.0/6.0, tokenScore("bostn", "boston"), 1e-9)
	assert.Greater(t, tokenScore("food", "cambridge"), DefaultThreshold)
}

func TestEvaluate_FullMatch(t *testing.T) {
	rec := resource.Record{
		OrganizationName: "Example",
		LocationText:     "Boston, MA",
		ServiceTypes:     []string{"Food", "Housing"},
		Languages:        []string{"Spanish", "English"},
	}

	res := Evaluate(Criteria{Service: "Food", Language: "Spanish", Location: "Boston"}, staticIndex{rec})
	require.Len(t, res.Full, 1)
	assert.True(t, res.IsFull())
	assert.Equal(t, []string{"Example"}, matchNames(res.Selected()))
}

func TestEvaluate_ServiceMismatchIsPartial(t *testing.T) {
	rec := resource.Record{
		OrganizationName: "Example",
		LocationText:     "Boston, MA",
		ServiceTypes:     []string{"Food", "Housing"},
		Languages:        []string{"Spanish", "English"},
	}

	res := Evaluate(Criteria{Service: "Legal", Language: "Spanish", Location: "Boston"}, staticIndex{rec})
	assert.Empty(t, res.Full)
	require.Len(t, res.Partial, 1)
	m := res.Partial[0]
	assert.False(t, m.Service)
	assert.True(t, m.Language)
	assert.True(t, m.Location)
}

func TestEvaluate_CaseRules(t *testing.T) {
	rec := resource.Record{
		OrganizationName: "Example",
		LocationText:     "123 Main St, Boston, MA",
		ServiceTypes:     []string{"Food"},
		Languages:        []string{"Spanish"},
	}

	res := Evaluate(Criteria{Service: "food", Language: "spanish", Location: "boston"}, staticIndex{rec})
	assert.Empty(t, res.Full, "service and language are case-sensitive")
	require.Len(t, res.Partial, 1)
	assert.True(t, res.Partial[0].Location, "location is case-insensitive")
}

func TestEvaluate_FullIsSubsetOfPartial(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})
	queries := []Criteria{
		{Service: "Food", Language: "Spanish", Location: "Boston"},
		{Service: "Legal", Language: "English", Location: "Cambridge"},
		{Service: "Healthcare", Language: "English", Location: "Boston"},
		{Service: "Employment", Language: "Somali", Location: "Chelsea"},
		{Service: "Education", Language: "Dari", Location: "Worcester"},
	}

	for _, c := range queries {
		t.Run(c.Query(), func(t *testing.T) {
			res := Evaluate(c, idx)
			partial := matchNames(res.Partial)
			for _, name := range matchNames(res.Full) {
				assert.Contains(t, partial, name)
			}
			if res.IsFull() {
				assert.Equal(t, res.Full, res.Selected(), "full matches are never mixed with partial ones")
			} else {
				assert.Equal(t, res.Partial, res.Selected())
			}
		})
	}
}

func TestResolve_PrefersFullMatches(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})

	got := Resolve(Criteria{Service: "Food", Language: "Spanish", Location: "Boston"}, idx)
	assert.Equal(t, []string{"Greater Boston Food Bank"}, names(got))
}

func TestResolve_FallsBackToPartial(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})

	got := Resolve(Criteria{Service: "Healthcare", Language: "English", Location: "Boston"}, idx)
	require.NotEmpty(t, got)
	assert.Contains(t, names(got), "Dorchester Health Center")
	assert.Contains(t, names(got), "Greater Boston Food Bank", "location-only match")
}

func TestResolve_NoResults(t *testing.T) {
	idx := NewIndex(fixture(), IndexOptions{})

	got := Resolve(Criteria{Service: "Cash Assistance", Language: "Pashto"}, idx)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	res := Evaluate(Criteria{Service: "Cash Assistance", Language: "Pashto"}, idx)
	assert.True(t, res.Empty())
}

func TestResolve_PreservesIndexOrder(t *testing.T) {
	a := resource.Record{OrganizationName: "A", LocationText: "Boston", ServiceTypes: []string{"Food"}, Languages: []string{"English"}}
	b := resource.Record{OrganizationName: "B", LocationText: "Boston", ServiceTypes: []string{"Food"}, Languages: []string{"English"}}

	got := Resolve(Criteria{Service: "Food", Language: "English", Location: "boston"}, staticIndex{b, a})
	assert.Equal(t, []string{"B", "A"}, names(got))
}

func TestMarkers_Policy(t *testing.T) {
	records := fixture()

	tests := []struct {
		name     string
		filter   MarkerFilter
		wantFull []string
		wantPart []string
	}{
		{
			name:     "empty selection plots everything as full",
			filter:   MarkerFilter{},
			wantFull: []string{"Greater Boston Food Bank", "Cambridge Legal Aid", "Dorchester Health Center", "Chelsea Job Hub"},
		},
		{
			name:     "one service allows partial",
			filter:   MarkerFilter{Services: []string{"Food"}, Languages: []string{"English"}},
			wantFull: []string{"Greater Boston Food Bank"},
			wantPart: []string{"Cambridge Legal Aid"},
		},
		{
			name:     "single language alone",
			filter:   MarkerFilter{Languages: []string{"English"}},
			wantFull: []string{"Greater Boston Food Bank", "Cambridge Legal Aid"},
		},
		{
			name:     "multiple languages allow partial",
			filter:   MarkerFilter{Languages: []string{"English", "Somali"}},
			wantPart: []string{"Greater Boston Food Bank", "Cambridge Legal Aid", "Dorchester Health Center"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var full, part []string
			for _, m := range Markers(tt.filter, records) {
				if m.Full {
					full = append(full, m.Record.OrganizationName)
				} else {
					part = append(part, m.Record.OrganizationName)
				}
			}
			assert.Equal(t, tt.wantFull, full)
			assert.Equal(t, tt.wantPart, part)
		})
	}
}

func TestMarkers_MatchedTags(t *testing.T) {
	got := Markers(MarkerFilter{Services: []string{"Housing", "Food"}, Languages: []string{"Arabic"}}, fixture())
	require.NotEmpty(t, got)
	assert.Equal(t, "Greater Boston Food Bank", got[0].Record.OrganizationName)
	assert.Equal(t, []string{"Housing", "Food"}, got[0].MatchedServices)
	assert.Equal(t, []string{}, got[0].MatchedLanguages)
	assert.Equal(t, "70 South Bay Ave, BOSTON, MA 02118", got[0].Address)
}

func TestZoomForRadius(t *testing.T) {
	tests := []struct {
		distance float64
		unit     string
		want     int
	}{
		{1, "miles", 15},
		{2, "miles", 14},
		{10, "miles", 12},
		{1, "kilometers", 16},
		{0.0001, "miles", 22},
		{1e9, "miles", 0},
	}
	for _, tt := range tests {
		got, err := ZoomForRadius(tt.distance, tt.unit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s", tt.distance, tt.unit)
	}

	_, err := ZoomForRadius(0, "miles")
	assert.Error(t, err)
	_, err = ZoomForRadius(5, "furlongs")
	assert.Error(t, err)
}
