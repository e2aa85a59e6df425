package chat

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/refugee-resources/resource-locator/internal/search"
)

const (
	GreetingMessage = "Hello! To help you find resources, please tell me your location, the type of service you need, " +
		"and your preferred language (e.g., 'I'm in Boston, looking for food services, and prefer English.')."
	ClarifyMessage = "To provide accurate recommendations, please include your location, service type, " +
		"and preferred language in one message."
	NoResultsMessage = "I'm sorry, but I couldn't find any resources that match all your criteria. " +
		"Please try rephrasing or providing more details."
)

// clarification asks again, naming the missing fields when known.
func clarification(missing []string) string {
	if len(missing) == 0 || len(missing) == 3 {
		return ClarifyMessage
	}
	return ClarifyMessage + " I still need your " + joinFields(missing) + "."
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	return strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1]
}

// RenderResults formats the selected matches as HTML recommendations. Partial
// matches also list the criteria they satisfied.
func RenderResults(res search.Result) string {
	selected := res.Selected()
	if len(selected) == 0 {
		return NoResultsMessage
	}
	parts := make([]string, len(selected))
	for i, m := range selected {
		parts[i] = recommendation(m, !res.IsFull())
	}
	return strings.Join(parts, "<br><br>")
}

func recommendation(m search.Match, annotate bool) string {
	r := m.Record
	website := orNA(r.Website)
	href := safeHref(r.Website)

	var b strings.Builder
	fmt.Fprintf(&b, "<strong>%s</strong><br>\n", html.EscapeString(r.OrganizationName))
	fmt.Fprintf(&b, "<strong>Summary:</strong> %s<br>\n", html.EscapeString(r.Summary))
	fmt.Fprintf(&b, "<strong>Location:</strong> %s<br>\n", html.EscapeString(r.LocationText))
	fmt.Fprintf(&b, "<strong>Website:</strong> <a href=\"%s\" target=\"_blank\">%s</a><br>\n",
		html.EscapeString(href), html.EscapeString(website))
	fmt.Fprintf(&b, "<strong>Contact:</strong> %s", html.EscapeString(orNA(r.Phone)))
	if annotate {
		fmt.Fprintf(&b, "<br>\n<strong>Matches:</strong> %s", strings.Join(matched(m), ", "))
	}
	return b.String()
}

func matched(m search.Match) []string {
	var out []string
	if m.Service {
		out = append(out, "service")
	}
	if m.Language {
		out = append(out, "language")
	}
	if m.Location {
		out = append(out, "location")
	}
	return out
}

// safeHref returns the link target for a dataset URL; anything but an
// absolute http(s) URL becomes "#".
func safeHref(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return "#"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
