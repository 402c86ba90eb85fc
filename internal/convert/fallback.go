package convert

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

var (
	codeMacroPattern = regexp.MustCompile(`(?s)<ac:structured-macro[^>]*ac:name="(?:code|noformat)"[^>]*>.*?<ac:plain-text-body>\s*<!\[CDATA\[(.*?)\]\]>\s*</ac:plain-text-body>.*?</ac:structured-macro>`)
	cdataPattern     = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
)

// marker stands in for a fragment the generic converter would mangle.
type marker struct {
	id      string
	restore func() string
}

// fallback converts markup the document parser rejected. Code bodies are
// swapped for markers before the generic HTML conversion and put back
// afterwards, so their content survives verbatim.
type fallback struct {
	conv *converter.Converter
}

func newFallback() *fallback {
	return &fallback{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func newMarker(restore func() string) marker {
	return marker{
		id:      "CFMDMARKER" + uuid.New().String()[:8],
		restore: restore,
	}
}

// protect replaces code bodies and CDATA sections with markers.
func protect(markup string) (string, []marker) {
	var markers []marker

	markup = codeMacroPattern.ReplaceAllStringFunc(markup, func(match string) string {
		body := codeMacroPattern.FindStringSubmatch(match)[1]
		m := newMarker(func() string {
			return "```\n" + body + "\n```"
		})
		markers = append(markers, m)
		return "<p>" + m.id + "</p>"
	})

	markup = cdataPattern.ReplaceAllStringFunc(markup, func(match string) string {
		body := cdataPattern.FindStringSubmatch(match)[1]
		m := newMarker(func() string { return body })
		markers = append(markers, m)
		return m.id
	})

	return markup, markers
}

// Convert runs the generic HTML conversion.
func (f *fallback) Convert(markup string) (string, error) {
	protected, markers := protect(markup)
	md, err := f.conv.ConvertString(protected)
	if err != nil {
		return "", err
	}
	for _, m := range markers {
		md = strings.ReplaceAll(md, m.id, m.restore())
	}
	return strings.TrimSpace(md), nil
}

// convertOrText runs Convert and degrades to the markup's plain text when
// the generic conversion fails as well.
func (f *fallback) convertOrText(markup string) string {
	md, err := f.Convert(markup)
	if err == nil {
		return md
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}
	return strings.TrimSpace(doc.Text())
}
