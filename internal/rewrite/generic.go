package rewrite

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/meta"
)

type group uint8

// Groups run in this order; within a group the deepest elements go first.
const (
	groupFormatting group = iota
	groupLinks
	groupBreaks
	groupOther
	groupBlocks
	groupCount
)

func classify(tag string) group {
	switch tag {
	case "strong", "b", "em", "i", "code", "s", "del", "strike":
		return groupFormatting
	case "a":
		return groupLinks
	case "br":
		return groupBreaks
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "blockquote":
		return groupBlocks
	default:
		return groupOther
	}
}

// externalLinks converts http(s) anchors before anything else touches them,
// so links nested in formatting are still recorded.
func (r *Rewriter) externalLinks(tree *dom.Tree, cc *meta.Context, scope dom.NodeID) {
	for _, id := range tree.FindAll(scope, "a") {
		if !tree.Within(id, scope) {
			continue
		}
		href := tree.AttrOr(id, "href", "")
		card := tree.AttrOr(id, "data-card-appearance", "") != ""
		md, ok := r.links.ExternalLink(cc, href, strings.TrimSpace(tree.Text(id)), card)
		if !ok {
			continue
		}
		if err := replace(tree, id, md); err != nil {
			r.log.ElementFailed(documentID(cc), "a", err)
		}
	}
}

// generic rewrites every element under scope, deepest first within each
// group. Elements for which skip reports true are left alone.
func (r *Rewriter) generic(tree *dom.Tree, cc *meta.Context, scope dom.NodeID, skip func(dom.NodeID) bool) {
	var elements []dom.NodeID
	depth := make(map[dom.NodeID]int)
	for _, id := range tree.FindAll(scope) {
		if skip != nil && skip(id) {
			continue
		}
		elements = append(elements, id)
		depth[id] = tree.Depth(id, scope)
	}
	sort.SliceStable(elements, func(i, j int) bool {
		return depth[elements[i]] > depth[elements[j]]
	})

	for g := groupFormatting; g < groupCount; g++ {
		for _, id := range elements {
			if classify(tree.Tag(id)) != g || !tree.Within(id, scope) {
				continue
			}
			if err := replace(tree, id, r.element(tree, cc, id, g)); err != nil {
				r.log.ElementFailed(documentID(cc), tree.Tag(id), err)
			}
		}
	}
}

func (r *Rewriter) element(tree *dom.Tree, cc *meta.Context, id dom.NodeID, g group) string {
	switch g {
	case groupFormatting:
		return formatting(tree, id)
	case groupLinks:
		return r.link(tree, cc, id)
	case groupBreaks:
		return "\n\n"
	case groupBlocks:
		return block(tree, id)
	default:
		return other(tree, id)
	}
}

func formatting(tree *dom.Tree, id dom.NodeID) string {
	text := strings.TrimSpace(tree.Text(id))
	if text == "" {
		return ""
	}
	switch tree.Tag(id) {
	case "strong", "b":
		return "**" + text + "**"
	case "em", "i":
		return "*" + text + "*"
	case "code":
		if tree.Ancestor(id, dom.None, "pre") != dom.None {
			return tree.Text(id)
		}
		return "`" + text + "`"
	default:
		return "~~" + text + "~~"
	}
}

func (r *Rewriter) link(tree *dom.Tree, cc *meta.Context, id dom.NodeID) string {
	href := tree.AttrOr(id, "href", "")
	text := strings.TrimSpace(tree.Text(id))
	card := tree.AttrOr(id, "data-card-appearance", "") != ""
	if md, ok := r.links.ExternalLink(cc, href, text, card); ok {
		return md
	}
	switch {
	case text == "":
		return ""
	case href != "":
		return "[" + text + "](" + href + ")"
	default:
		return text
	}
}

func block(tree *dom.Tree, id dom.NodeID) string {
	inner := strings.TrimSpace(tree.InnerMarkdown(id))
	if inner == "" {
		return ""
	}
	tag := tree.Tag(id)
	switch tag {
	case "p", "div":
		return inner + "\n\n"
	case "blockquote":
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight("> "+line, " ")
		}
		return strings.Join(lines, "\n") + "\n\n"
	default:
		level, _ := strconv.Atoi(strings.TrimPrefix(tag, "h"))
		return strings.Repeat("#", level) + " " + inner + "\n\n"
	}
}

// other handles tags with no Markdown meaning of their own: they are
// replaced by their content. A few void and preformatted tags get a
// dedicated form.
func other(tree *dom.Tree, id dom.NodeID) string {
	switch tree.Tag(id) {
	case "img":
		src := tree.AttrOr(id, "src", "")
		if src == "" {
			return ""
		}
		return "![" + tree.AttrOr(id, "alt", "") + "](" + src + ")"
	case "hr":
		return "\n\n---\n\n"
	case "pre":
		text := strings.Trim(tree.Text(id), "\n")
		if strings.TrimSpace(text) == "" {
			return ""
		}
		return "\n\n```\n" + text + "\n```\n\n"
	}

	inner := tree.InnerMarkdown(id)
	if strings.TrimSpace(inner) == "" && inner != "" {
		return " "
	}
	return inner
}
