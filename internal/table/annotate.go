package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const rowHeaderWords = 5

type topic struct {
	name     string
	keywords []string
}

// topics are checked in order; the first hit names the table's purpose.
var topics = []topic{
	{"deployment", []string{"deployment", "deploy", "release", "version", "service"}},
	{"checklist", []string{"checklist", "status", "done", "completed", "verified"}},
	{"comparison", []string{"vs", "versus", "compare", "difference", "before", "after"}},
	{"pricing", []string{"price", "cost", "fee", "amount", "payment"}},
	{"schedule", []string{"date", "time", "schedule", "timeline", "deadline"}},
	{"contact", []string{"name", "email", "phone", "contact", "person"}},
	{"configuration", []string{"config", "setting", "parameter", "value", "option"}},
	{"metrics", []string{"metric", "measurement", "count", "total", "average"}},
	{"requirements", []string{"requirement", "criteria", "specification", "rule"}},
	{"issues", []string{"issue", "bug", "error", "problem", "ticket"}},
}

func summary(s structure) string {
	header := "no header row"
	if s.hasHeader {
		header = "has header row"
	}

	spans := "no spans"
	if len(s.colspans) > 0 || len(s.rowspans) > 0 {
		var parts []string
		if len(s.colspans) > 0 {
			parts = append(parts, fmt.Sprintf("%d colspans (%s)", len(s.colspans), joinSpans(s.colspans)))
		}
		if len(s.rowspans) > 0 {
			parts = append(parts, fmt.Sprintf("%d rowspans (%s)", len(s.rowspans), joinSpans(s.rowspans)))
		}
		spans = "contains " + strings.Join(parts, ", ")
	}

	return comment("Table Summary", fmt.Sprintf("%d columns, %d rows, %s, %s", s.columns, len(s.rows), header, spans))
}

func joinSpans(spans []spanAt) string {
	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func sectionLine(sec Section) string {
	if sec.Text != "" {
		return comment("Table Section", fmt.Sprintf("%s (H%d level)", sec.Text, sec.Level))
	}
	return comment("Table Section", levelDescription(sec.Level))
}

func levelDescription(level int) string {
	switch level {
	case 0:
		return "Document root level"
	case 1:
		return "Main section (H1 level)"
	case 2:
		return "Subsection (H2 level)"
	case 3:
		return "Sub-subsection (H3 level)"
	default:
		return fmt.Sprintf("Deep subsection (H%d level)", level)
	}
}

// purpose guesses what a table is for from its headers, then from the text
// of the section it sits in.
func purpose(headers []string, section string) string {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = clean(h)
	}
	headerText := strings.ToLower(strings.Join(cleaned, " "))

	if t, ok := matchTopic(headerText); ok {
		return title(t) + " data"
	}
	if section != "" {
		if t, ok := matchTopic(strings.ToLower(section)); ok {
			return title(t) + " table"
		}
	}

	switch {
	case len(headers) <= 2:
		return "Simple data listing"
	case len(headers) <= 4:
		return "Data comparison table"
	default:
		return "Detailed information matrix"
	}
}

func matchTopic(text string) (string, bool) {
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(text, kw) {
				return t.name, true
			}
		}
	}
	return "", false
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func complexity(s structure) string {
	score := 0
	cells := len(s.rows) * s.columns
	switch {
	case cells > 50:
		score += 2
	case cells > 20:
		score++
	}

	spans := len(s.colspans) + len(s.rowspans)
	if spans > 0 {
		score++
		if spans > 3 {
			score++
		}
	}
	if !s.hasHeader {
		score++
	}
	if s.columns > 6 || len(s.rows) > 10 {
		score++
	}

	switch {
	case score <= 1:
		return "Simple"
	case score <= 3:
		return "Medium"
	default:
		return "Complex"
	}
}

// rowHeaders returns the first-cell text of every data row, shortened to a
// few words.
func rowHeaders(ids []string) []string {
	out := []string{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		words := strings.Fields(id)
		if len(words) > rowHeaderWords {
			id = strings.Join(words[:rowHeaderWords], " ") + "..."
		}
		out = append(out, id)
	}
	return out
}

// jsonList renders strings as a JSON array with ", " separators and no HTML
// escaping.
func jsonList(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(item); err != nil {
			continue
		}
		parts = append(parts, strings.TrimSuffix(buf.String(), "\n"))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// comment renders one annotation line. Cell text may contain "--", which
// would end the comment early, so every run is broken up.
func comment(label, body string) string {
	for strings.Contains(body, "--") {
		body = strings.ReplaceAll(body, "--", "- -")
	}
	return "<!-- " + label + ": " + body + " -->"
}
