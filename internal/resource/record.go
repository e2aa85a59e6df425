package resource

import "strings"

// Record is one organization from the resources dataset.
// Records are loaded once and never mutated afterwards.
type Record struct {
	OrganizationName string   `json:"organizationName"`
	Summary          string   `json:"summary"`
	LocationText     string   `json:"locationText"`
	Street           string   `json:"street,omitempty"`
	Neighborhood     string   `json:"neighborhood,omitempty"`
	Hours            string   `json:"hours,omitempty"`
	Website          string   `json:"website,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	ServiceTypes     []string `json:"serviceTypes"`
	Languages        []string `json:"languages"`
}

// HasService reports whether tag is one of the record's service types.
// The comparison is case-sensitive.
func (r Record) HasService(tag string) bool {
	return contains(r.ServiceTypes, tag)
}

// HasLanguage reports whether tag is one of the record's languages.
// The comparison is case-sensitive.
func (r Record) HasLanguage(tag string) bool {
	return contains(r.Languages, tag)
}

// InLocation reports whether the record's location text contains location,
// ignoring case.
func (r Record) InLocation(location string) bool {
	return strings.Contains(strings.ToLower(r.LocationText), strings.ToLower(location))
}

// Address returns the street address used for geocoding, falling back to the
// location text when no street is known.
func (r Record) Address() string {
	street := strings.TrimSpace(r.Street)
	if street == "" || strings.EqualFold(street, "Not Available") {
		return r.LocationText
	}
	return street + ", " + r.LocationText
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseServiceTypes splits a comma-delimited service type field.
func ParseServiceTypes(field string) []string {
	return splitTags(field, ",")
}

// ParseLanguages splits a hyphen-delimited languages field.
func ParseLanguages(field string) []string {
	return splitTags(field, "-")
}

// splitTags trims every part and drops empty parts and duplicates, keeping
// first-seen order. An empty field yields an empty, non-nil slice.
func splitTags(field, sep string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(field, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		tags = append(tags, part)
	}
	return tags
}

// JoinServiceTypes is the inverse of ParseServiceTypes.
func JoinServiceTypes(tags []string) string {
	return strings.Join(tags, ", ")
}

// JoinLanguages is the inverse of ParseLanguages.
func JoinLanguages(tags []string) string {
	return strings.Join(tags, " - ")
}
