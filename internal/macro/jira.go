package macro

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultMaxIssues = 1000

// JiraHandler renders single issue references as links and JQL queries as
// tables that the table stage converts later.
func JiraHandler() Handler {
	return Handler{
		Name: "jira",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			base, err := trackerURL(env)
			if errors.Is(err, ErrNoTracker) {
				return Comment(" JIRA macro: No JIRA client provided ").
					Then(Text("\n\n**JIRA Reference** _(Could not be resolved without JIRA client)_\n\n")), nil
			}

			if key, ok := m.Params.Get("key"); ok {
				key = strings.TrimSpace(key)
				url := base + "/browse/" + key
				env.Meta.AddIssueLink(key, url)
				return Text("[" + key + "](" + url + ")"), nil
			}

			if query, ok := m.Params.Get("jqlQuery"); ok {
				return jiraTable(ctx, env, m, base, strings.TrimSpace(query))
			}

			return Comment(" Unknown JIRA macro format ").
				Then(Text("\n\n**JIRA Reference** _(Format not recognized)_\n\n")), nil
		},
		Placeholder: func(m Macro, err error) Fragment {
			return Comment(" Error parsing JIRA macro: " + err.Error() + " ").
				Then(Text("\n\n**JIRA Reference Error** _(Could not be processed)_\n\n"))
		},
	}
}

func trackerURL(env *Env) (string, error) {
	if env.Issues == nil {
		return "", ErrNoTracker
	}
	return strings.TrimRight(env.Issues.BaseURL(), "/"), nil
}

func jiraTable(ctx context.Context, env *Env, m Macro, base, query string) (Fragment, error) {
	columns := splitList(m.Params.Value("columns", ""))
	columnIDs := splitList(m.Params.Value("columnIds", ""))

	limit := defaultMaxIssues
	if raw, ok := m.Params.Get("maximumIssues"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Empty(), fmt.Errorf("invalid maximumIssues %q: %w", raw, err)
		}
		limit = n
	}

	issues, err := env.Issues.Search(ctx, query, limit, columnIDs)
	if err != nil {
		return Empty(), fmt.Errorf("issue search failed: %w", err)
	}

	display := columns
	if len(display) == 0 {
		display = columnIDs
	}

	var b strings.Builder
	b.WriteString("<table border='1'><thead><tr>")
	for _, col := range display {
		b.WriteString("<th>" + html.EscapeString(capitalize(col)) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")

	for _, issue := range issues {
		url := ""
		if issue.Key != "" {
			url = base + "/browse/" + issue.Key
			env.Meta.AddIssueLink(issue.Key, url)
		}

		b.WriteString("<tr>")
		for _, id := range columnIDs {
			b.WriteString("<td>")
			switch strings.ToLower(id) {
			case "issuekey":
				b.WriteString("<a href='" + html.EscapeString(url) + "'>" + html.EscapeString(issue.Key) + "</a>")
			case "project", "issuetype", "priority", "status":
				b.WriteString(html.EscapeString(namedField(issue.Fields[id])))
			case "components":
				b.WriteString(html.EscapeString(componentNames(issue.Fields["components"])))
			default:
				b.WriteString(html.EscapeString(fieldString(issue.Fields[id])))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")

	return Comment(" JIRA Table: JQL Query: " + query + " ").
		Then(Text("\n\n")).
		Then(Markup(b.String())), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func namedField(v any) string {
	if obj, ok := v.(map[string]any); ok {
		return fieldString(obj["name"])
	}
	return fieldString(v)
}

func componentNames(v any) string {
	items, ok := v.([]any)
	if !ok {
		return ""
	}
	var names []string
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			names = append(names, fieldString(obj["name"]))
		}
	}
	return strings.Join(names, ", ")
}

func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
