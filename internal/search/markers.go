package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/refugee-resources/resource-locator/internal/resource"
)

// MarkerFilter is the checkbox selection of the map view.
type MarkerFilter struct {
	Services  []string `json:"services"`
	Languages []string `json:"languages"`
}

// Marker is a record to plot on the map.
type Marker struct {
	Record           resource.Record `json:"record"`
	Address          string          `json:"address"`
	Full             bool            `json:"full"`
	MatchedServices  []string        `json:"matchedServices"`
	MatchedLanguages []string        `json:"matchedLanguages"`
}

// allowPartial decides whether partially matching records are plotted at all
// for this selection.
func (f MarkerFilter) allowPartial() bool {
	return len(f.Services) > 0 ||
		len(f.Languages) > 1 ||
		(len(f.Languages) == 1 && len(f.Services) == 0)
}

// Markers applies the map policy to every record. This policy is independent
// of Evaluate: a record is plotted when it has every selected tag, or when it
// has some selected tag and the selection allows partial markers. With an
// empty selection every record is a full match.
func Markers(f MarkerFilter, records []resource.Record) []Marker {
	allow := f.allowPartial()
	out := []Marker{}
	for _, r := range records {
		services := intersect(f.Services, r.ServiceTypes)
		languages := intersect(f.Languages, r.Languages)

		full := len(services) == len(f.Services) && len(languages) == len(f.Languages)
		partial := len(services) > 0 || len(languages) > 0
		if !full && !(partial && allow) {
			continue
		}
		out = append(out, Marker{
			Record:           r,
			Address:          r.Address(),
			Full:             full,
			MatchedServices:  services,
			MatchedLanguages: languages,
		})
	}
	return out
}

// intersect keeps the selected tags present in tags, in selection order.
func intersect(selected, tags []string) []string {
	out := []string{}
	for _, s := range selected {
		for _, t := range tags {
			if s == t {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

const (
	kmToMiles = 0.621371
	minZoom   = 0
	maxZoom   = 22
)

// ZoomForRadius converts a search radius to a map zoom level. unit is "miles"
// or "kilometers".
func ZoomForRadius(distance float64, unit string) (int, error) {
	if distance <= 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return 0, fmt.Errorf("invalid distance %v", distance)
	}

	miles := distance
	switch strings.ToLower(unit) {
	case "", "mi", "mile", "miles":
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		miles = distance * kmToMiles
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}

	zoom := int(math.Round(15 - math.Log2(miles)))
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	return zoom, nil
}
