package rewrite

import (
	"context"
	"strings"

	"github.com/gosimple/slug"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/meta"
)

const (
	unknownImage    = "\n\n[🖼️ Image attachment](ASSET_PLACEHOLDER_unknown)\n\n"
	brokenImage     = "\n\n[🖼️ Image attachment (error processing)](ASSET_PLACEHOLDER_error)\n\n"
	notePanelPrefix = "> 📝 "
	notePanelEmpty  = "> ⚠️  Note panel content not found"
	notePanelBroken = "> ⚠️  Error processing note panel"
)

func confluenceElements() map[string]ElementHandler {
	return map[string]ElementHandler{
		"ac:link":                  {Render: renderLink},
		"ac:emoticon":              {Render: renderEmoticon},
		"ac:inline-comment-marker": {Render: renderInlineComment},
		"time":                     {Render: renderTime},
		"ac:adf-extension": {
			Render:      renderADFExtension,
			Placeholder: func(Element, error) string { return notePanelBroken },
		},
		"ac:image": {
			Render:      renderImage,
			Placeholder: func(Element, error) string { return brokenImage },
		},
		"ac:task-list":   {Render: renderTaskList},
		"ac:placeholder": {Render: func(context.Context, Element) (string, error) { return "", nil }},
	}
}

// renderLink handles links to users, pages, attachments and anchors.
func renderLink(ctx context.Context, el Element) (string, error) {
	tree := el.Tree
	body := linkBody(el)

	if user := tree.Find(el.ID, "ri:user"); user != dom.None {
		id := tree.AttrOr(user, "ri:account-id", "")
		if id == "" {
			return body, nil
		}
		return el.Links.UserLink(el.Meta, id), nil
	}

	if page := tree.Find(el.ID, "ri:page"); page != dom.None {
		title := tree.AttrOr(page, "ri:content-title", "")
		if title == "" {
			return body, nil
		}
		return el.Links.PageLink(el.Meta, title, body), nil
	}

	if att := tree.Find(el.ID, "ri:attachment"); att != dom.None {
		filename := tree.AttrOr(att, "ri:filename", "")
		if filename == "" {
			return body, nil
		}
		el.Meta.AddAsset(filename)
		return meta.AssetLink(attachmentIcon(filename), filename), nil
	}

	if anchor := el.Attr("ac:anchor"); anchor != "" {
		label := body
		if label == "" {
			label = anchor
		}
		return "[" + label + "](#" + slug.Make(anchor) + ")", nil
	}

	return body, nil
}

func linkBody(el Element) string {
	b := el.Tree.Find(el.ID, "ac:link-body", "ac:plain-text-link-body")
	if b == dom.None {
		return ""
	}
	return strings.TrimSpace(el.Tree.Text(b))
}

func attachmentIcon(filename string) string {
	if icon := meta.MediaIcon(filename); icon != "📎" {
		return icon
	}
	return meta.FileIcon(filename)
}

// renderEmoticon prefers the emoji itself, then the shortname, then the
// emoticon name.
func renderEmoticon(ctx context.Context, el Element) (string, error) {
	if emoji := el.Attr("ac:emoji-fallback"); emoji != "" {
		return emoji, nil
	}
	if short := strings.Trim(el.Attr("ac:emoji-shortname"), ":"); short != "" {
		return short, nil
	}
	name := el.Attr("ac:name")
	if name == "" {
		name = "unknown"
	}
	return ":" + name + ":", nil
}

func renderInlineComment(ctx context.Context, el Element) (string, error) {
	return el.Tree.InnerMarkdown(el.ID), nil
}

func renderTime(ctx context.Context, el Element) (string, error) {
	if dt := el.Attr("datetime"); dt != "" {
		return dt, nil
	}
	return strings.TrimSpace(el.Text()), nil
}

// renderADFExtension renders note panels stored as ADF. Other extensions
// keep their fallback text.
func renderADFExtension(ctx context.Context, el Element) (string, error) {
	tree := el.Tree
	for _, n := range tree.FindAll(el.ID, "ac:adf-node") {
		if tree.AttrOr(n, "type", "") != "panel" {
			continue
		}
		content := tree.Find(n, "ac:adf-content")
		if content == dom.None {
			return notePanelEmpty, nil
		}
		return notePanelPrefix + strings.TrimSpace(tree.Text(content)), nil
	}

	if fb := tree.Find(el.ID, "ac:adf-fallback"); fb != dom.None {
		return strings.TrimSpace(tree.InnerMarkdown(fb)), nil
	}
	return strings.TrimSpace(el.Text()), nil
}

// renderImage links attached images and videos through the asset
// placeholder, and external images directly.
func renderImage(ctx context.Context, el Element) (string, error) {
	tree := el.Tree
	if att := tree.Find(el.ID, "ri:attachment"); att != dom.None {
		filename := tree.AttrOr(att, "ri:filename", "")
		if filename == "" {
			return unknownImage, nil
		}
		el.Meta.AddAsset(filename)
		return meta.AssetLink(meta.MediaIcon(filename), filename), nil
	}

	if u := tree.Find(el.ID, "ri:url"); u != dom.None {
		if src := tree.AttrOr(u, "ri:value", ""); src != "" {
			return "![" + el.Attr("ac:alt") + "](" + src + ")", nil
		}
	}
	return unknownImage, nil
}

// renderTaskList writes a Markdown checklist.
func renderTaskList(ctx context.Context, el Element) (string, error) {
	tree := el.Tree
	var lines []string
	for _, task := range tree.Elements(el.ID, "ac:task") {
		box := "[ ]"
		if strings.TrimSpace(tree.Text(tree.Find(task, "ac:task-status"))) == "complete" {
			box = "[x]"
		}
		body := strings.Join(strings.Fields(tree.TextSep(tree.Find(task, "ac:task-body"), " ")), " ")
		lines = append(lines, "- "+box+" "+body)
	}
	if len(lines) == 0 {
		return "", nil
	}
	return "\n\n" + strings.Join(lines, "\n") + "\n\n", nil
}
