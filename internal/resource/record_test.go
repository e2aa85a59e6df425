package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) []string
		in    string
		want  []string
	}{
		{"services", ParseServiceTypes, "Food, Housing", []string{"Food", "Housing"}},
		{"services trailing comma", ParseServiceTypes, "Employment, Education,", []string{"Employment", "Education"}},
		{"services empty", ParseServiceTypes, "", []string{}},
		{"services blanks only", ParseServiceTypes, " , ,", []string{}},
		{"languages", ParseLanguages, "Spanish - English", []string{"Spanish", "English"}},
		{"languages multi word", ParseLanguages, "Haitian Creole-Maay Maay", []string{"Haitian Creole", "Maay Maay"}},
		{"languages empty part", ParseLanguages, "Spanish -  - Portuguese", []string{"Spanish", "Portuguese"}},
		{"languages duplicate", ParseLanguages, "English - English", []string{"English"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.parse(tt.in))
		})
	}
}

func TestParseTags_Idempotent(t *testing.T) {
	services := ParseServiceTypes(" Food ,Housing,, Legal ")
	assert.Equal(t, services, ParseServiceTypes(JoinServiceTypes(services)))

	languages := ParseLanguages("Spanish- English -Haitian Creole")
	assert.Equal(t, languages, ParseLanguages(JoinLanguages(languages)))
}

func TestRecordPredicates(t *testing.T) {
	rec := Record{
		LocationText: "123 Main St, Boston, MA",
		ServiceTypes: []string{"Food", "Housing"},
		Languages:    []string{"Spanish", "English"},
	}

	assert.True(t, rec.HasService("Food"))
	assert.False(t, rec.HasService("food"), "service membership is case-sensitive")
	assert.True(t, rec.HasLanguage("Spanish"))
	assert.False(t, rec.HasLanguage("spanish"))
	assert.True(t, rec.InLocation("boston"))
	assert.True(t, rec.InLocation("BOSTON, ma"))
	assert.True(t, rec.InLocation(""))
	assert.False(t, rec.InLocation("Cambridge"))
}

func TestRecordAddress(t *testing.T) {
	assert.Equal(t, "70 South Bay Ave, BOSTON, MA", Record{Street: "70 South Bay Ave", LocationText: "BOSTON, MA"}.Address())
	assert.Equal(t, "BOSTON, MA", Record{Street: "Not Available", LocationText: "BOSTON, MA"}.Address())
	assert.Equal(t, "BOSTON, MA", Record{LocationText: "BOSTON, MA"}.Address())
}

func TestDecode_Fixture(t *testing.T) {
	f, err := os.Open("testdata/resources.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := Decode(f)
	require.NoError(t, err)
	require.Len(t, records, 4, "blank line is skipped")

	food := records[0]
	assert.Equal(t, "Greater Boston Food Bank", food.OrganizationName)
	assert.Equal(t, "BOSTON, MA 02118", food.LocationText)
	assert.Equal(t, []string{"Food", "Housing"}, food.ServiceTypes)
	assert.Equal(t, []string{"Spanish", "English"}, food.Languages)
	assert.Equal(t, "617-427-5200", food.Phone, "phone header alias")
	assert.Equal(t, "https://www.gbfb.org", food.Website)

	legal := records[1]
	assert.Equal(t, "", legal.Website)
	assert.Equal(t, []string{"English", "Haitian Creole", "Portuguese"}, legal.Languages)

	jobs := records[3]
	assert.Equal(t, []string{"Employment", "Education"}, jobs.ServiceTypes)
	assert.Equal(t, []string{"Spanish", "Portuguese"}, jobs.Languages)
}

func TestDecode_MalformedRows(t *testing.T) {
	csv := "Name of Organization,City/State/ZIP,Service Type\n" +
		"Short Row\n" +
		"Full Row,\"Boston, MA\",Food\n" +
		",,\n"

	records, err := Decode(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Short Row", records[0].OrganizationName)
	assert.Equal(t, "", records[0].LocationText)
	assert.Equal(t, []string{}, records[0].ServiceTypes)
	assert.Equal(t, []string{}, records[0].Languages, "missing column normalizes to an empty set")
	assert.Equal(t, "Boston, MA", records[1].LocationText)
}

func TestDecode_MissingColumns(t *testing.T) {
	_, err := Decode(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestDecode_Empty(t *testing.T) {
	records, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRows_KeepsRawValues(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("\ufeffName of Organization, Service Type\nA,\"Food, Legal\"\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["Name of Organization"])
	assert.Equal(t, "Food, Legal", rows[0]["Service Type"])
}

func TestLoad_Sources(t *testing.T) {
	data, err := os.ReadFile("testdata/resources.csv")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resources.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	ctx := context.Background()

	fromFile, err := Load(ctx, FileSource{Path: "testdata/resources.csv"})
	require.NoError(t, err)

	fromHTTP, err := Load(ctx, HTTPSource{URL: srv.URL + "/resources.csv"})
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromHTTP)

	_, err = Load(ctx, HTTPSource{URL: srv.URL + "/missing.csv"})
	assert.Error(t, err)

	_, err = Load(ctx, FileSource{Path: "testdata/nope.csv"})
	assert.Error(t, err)
}

func TestNewS3Source(t *testing.T) {
	src, err := NewS3Source(S3Options{
		Endpoint: "localhost:9000",
		Bucket:   "datasets",
		Key:      "normalized_services.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://datasets/normalized_services.csv", src.String())
}

func TestCanonicalTags(t *testing.T) {
	tests := []struct {
		in     string
		canon  func(string) (string, bool)
		want   string
		wantOK bool
	}{
		{"Food", CanonicalService, "Food", true},
		{"food", CanonicalService, "Food", true},
		{" MENTAL HEALTH ", CanonicalService, "Mental Health", true},
		{"", CanonicalService, "", false},
		{"xyz", CanonicalService, "", false},
		{"spanish", CanonicalLanguage, "Spanish", true},
		{"spansh", CanonicalLanguage, "Spanish", true},
		{"haitian", CanonicalLanguage, "Haitian Creole", true},
		{"Klingon", CanonicalLanguage, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := tt.canon(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, ServiceTags, 10)
	assert.Len(t, LanguageTags, 14)
}
