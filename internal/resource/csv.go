package resource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// Column headers of the normalized services dataset.
const (
	ColumnName         = "Name of Organization"
	ColumnSummary      = "Summary of Services"
	ColumnLocation     = "City/State/ZIP"
	ColumnServiceType  = "Service Type"
	ColumnLanguages    = "Languages"
	ColumnWebsite      = "Website"
	ColumnPhone        = "Phone Number"
	ColumnStreet       = "Street"
	ColumnCity         = "City"
	ColumnNeighborhood = "Neighborhood"
	ColumnHours        = "Hours"
)

// ErrMissingColumn is returned when a dataset has none of the headers that
// identify an organization.
var ErrMissingColumn = errors.New("missing required column")

// aliases lists alternate headers seen in exported spreadsheets.
var aliases = map[string][]string{
	ColumnLanguages: {"Services offered in these languages"},
	ColumnPhone:     {"Phone Number (for public to contact)", "Phone"},
	ColumnLocation:  {"City/State/Zip", "Location"},
	ColumnName:      {"Organization", "Name"},
	ColumnSummary:   {"Summary"},
}

// ReadRows decodes a CSV with a header line into one map per row, keyed by
// the trimmed header. Blank lines are skipped, short rows are padded.
func ReadRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := []map[string]string{}
	line := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(fields) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Decode reads a CSV dataset into records.
func Decode(r io.Reader) ([]Record, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows converts raw rows into records. A row missing an expected field
// yields empty values for that field rather than failing the batch.
func FromRows(rows []map[string]string) ([]Record, error) {
	if len(rows) > 0 && !hasAny(rows[0], ColumnName) && !hasAny(rows[0], ColumnLocation) {
		return nil, fmt.Errorf("%w: %q or %q", ErrMissingColumn, ColumnName, ColumnLocation)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec := FromRow(row)
		if rec.OrganizationName == "" && rec.LocationText == "" {
			log.Printf("Skipping row %d: no organization name or location", i+2)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FromRow builds a record from one raw row.
func FromRow(row map[string]string) Record {
	location := field(row, ColumnLocation)
	if location == "" {
		location = field(row, ColumnCity)
	}
	return Record{
		OrganizationName: field(row, ColumnName),
		Summary:          field(row, ColumnSummary),
		LocationText:     location,
		Street:           field(row, ColumnStreet),
		Neighborhood:     field(row, ColumnNeighborhood),
		Hours:            field(row, ColumnHours),
		Website:          field(row, ColumnWebsite),
		Phone:            field(row, ColumnPhone),
		ServiceTypes:     ParseServiceTypes(field(row, ColumnServiceType)),
		Languages:        ParseLanguages(field(row, ColumnLanguages)),
	}
}

func field(row map[string]string, name string) string {
	if v, ok := row[name]; ok {
		return strings.TrimSpace(v)
	}
	for _, alias := range aliases[name] {
		if v, ok := row[alias]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func hasAny(row map[string]string, name string) bool {
	if _, ok := row[name]; ok {
		return true
	}
	for _, alias := range aliases[name] {
		if _, ok := row[alias]; ok {
			return true
		}
	}
	return false
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
