// Package inspect reports what a Storage Format page contains before it is
// converted: which macros it uses, its tables and the resources it links.
package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gerunddev/confluence2md/internal/macro"
)

// MacroCount is how often a macro name occurs.
type MacroCount struct {
	Name      string
	Count     int
	Supported bool
}

// Inventory summarizes a page.
type Inventory struct {
	Macros       []MacroCount
	Tables       int
	NestedTables int
	Attachments  []string
	Users        []string
	Pages        []string
	Links        []string
	Images       int
	Words        int
}

// Unsupported returns the macros that will be rendered by the fallback
// handler.
func (inv *Inventory) Unsupported() []string {
	var names []string
	for _, m := range inv.Macros {
		if !m.Supported {
			names = append(names, m.Name)
		}
	}
	return names
}

// Inspect builds the inventory of markup.
func Inspect(markup string) (*Inventory, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	inv := &Inventory{}

	counts := make(map[string]int)
	doc.Find("ac\\:structured-macro").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("ac:name", "")))
		if name == "" {
			name = "unknown"
		}
		counts[name]++
	})
	for name, n := range counts {
		inv.Macros = append(inv.Macros, MacroCount{
			Name:      name,
			Count:     n,
			Supported: macro.ParseKind(name).Valid(),
		})
	}
	sort.Slice(inv.Macros, func(i, j int) bool {
		if inv.Macros[i].Count != inv.Macros[j].Count {
			return inv.Macros[i].Count > inv.Macros[j].Count
		}
		return inv.Macros[i].Name < inv.Macros[j].Name
	})

	tables := doc.Find("table")
	inv.Tables = tables.Length()
	inv.NestedTables = tables.Filter("table table").Length()

	inv.Attachments = unique(doc.Find("ri\\:attachment"), "ri:filename")
	inv.Users = unique(doc.Find("ri\\:user"), "ri:account-id")
	inv.Pages = unique(doc.Find("ac\\:link ri\\:page"), "ri:content-title")
	inv.Links = unique(doc.Find("a[href^='http']"), "href")
	inv.Images = doc.Find("ac\\:image, img").Length()

	// Code bodies are not prose.
	body := doc.Selection.Clone()
	body.Find("ac\\:plain-text-body, ac\\:parameter").Remove()
	inv.Words = len(strings.Fields(body.Text()))

	return inv, nil
}

func unique(sel *goquery.Selection, attr string) []string {
	seen := make(map[string]bool)
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	})
	return out
}
