package meta

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
)

const (
	unknownUser    = "Unknown User"
	defaultProfile = "#"
)

// Extractor resolves user and page references and formats outbound links.
// Its collaborators are optional; a nil collaborator skips that lookup.
type Extractor struct {
	users UserLookup
	pages PageLookup
	log   *logger.Logger
}

// UserLookup is the slice of confluence.UserDirectory the extractor needs.
type UserLookup = confluence.UserDirectory

// PageLookup is the slice of confluence.PageFinder the extractor needs.
type PageLookup = confluence.PageFinder

// NewExtractor creates an extractor. users and pages may be nil.
func NewExtractor(users UserLookup, pages PageLookup, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &Extractor{users: users, pages: pages, log: log}
}

// Prefetch performs every directory lookup the document needs before the
// tree is mutated: one bulk user lookup, then one page lookup per distinct
// linked title. Results land in the context caches; lookup failures are
// logged and leave the affected references unresolved.
func (e *Extractor) Prefetch(ctx context.Context, tree *dom.Tree, cc *Context) {
	root := tree.Root()
	e.prefetchUsers(ctx, tree, root, cc)
	e.prefetchPages(ctx, tree, root, cc)
}

func (e *Extractor) prefetchUsers(ctx context.Context, tree *dom.Tree, root dom.NodeID, cc *Context) {
	if e.users == nil {
		return
	}
	ids := uniqueAttr(tree, root, "ri:user", "ri:account-id")
	if len(ids) == 0 {
		return
	}

	found, err := e.users.UsersByAccountIDs(ctx, ids)
	if err != nil {
		e.log.LookupFailed(cc.DocumentID, "users", err)
		return
	}

	for _, id := range ids {
		u, ok := found[id]
		if !ok {
			continue
		}
		u.AccountID = id
		if u.DisplayName == "" {
			u.DisplayName = unknownUser
		}
		if u.ProfileURL == "" {
			u.ProfileURL = defaultProfile
		}
		cc.CacheUser(u)
		cc.AddUserMention(UserMention{
			AccountID:   id,
			DisplayName: u.DisplayName,
			ProfileURL:  u.ProfileURL,
		})
	}
}

func (e *Extractor) prefetchPages(ctx context.Context, tree *dom.Tree, root dom.NodeID, cc *Context) {
	if e.pages == nil {
		return
	}

	var titles []string
	seen := make(map[string]bool)
	for _, p := range tree.FindAll(root, "ri:page") {
		if tree.Ancestor(p, root, "ac:link") == dom.None {
			continue
		}
		title := tree.AttrOr(p, "ri:content-title", "")
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}

	for _, title := range titles {
		if ctx.Err() != nil {
			return
		}
		page, err := e.pages.FindPageByTitle(ctx, cc.SpaceID, title)
		if err != nil {
			if !errors.Is(err, confluence.ErrPageNotFound) {
				e.log.LookupFailed(cc.DocumentID, "page", err)
			}
			continue
		}
		if page == nil {
			continue
		}
		p := *page
		if p.Title == "" {
			p.Title = title
		}
		cc.CachePage(title, p)
		cc.AddInternalLink(InternalLink{PageID: p.ID, PageTitle: p.Title, PageURL: p.URL})
	}
}

// ExternalLink formats an http(s) anchor as Markdown and records it. card
// reports whether the anchor was rendered as a smart-link card. ok is false
// for any other scheme.
func (e *Extractor) ExternalLink(cc *Context, href, text string, card bool) (string, bool) {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return "", false
	}
	cc.AddExternalLink(text, href)

	display := text
	if isDriveLink(href) {
		icon := DriveIcon(href)
		if text == "" || text == href || card {
			display = icon + "Google Drive Link"
		} else {
			display = icon + text
		}
	} else if text == "" || text == href {
		display = href
	}
	return "[" + display + "](" + href + ")", true
}

// UserLink renders an ac:link to a user. Unresolved ids become a visible
// placeholder.
func (e *Extractor) UserLink(cc *Context, accountID string) string {
	if u, ok := cc.User(accountID); ok {
		return "[" + u.DisplayName + "](" + u.ProfileURL + ")"
	}
	return "[@user:" + accountID + "]"
}

// PageLink renders an ac:link to a page. body is the link body text, if any.
// Unresolved pages fall back to plain text.
func (e *Extractor) PageLink(cc *Context, title, body string) string {
	label := strings.TrimSpace(body)
	if label == "" {
		label = title
	}
	if p, ok := cc.Page(title); ok && p.URL != "" {
		return "[" + label + "](" + p.URL + ")"
	}
	return label
}

func isDriveLink(href string) bool {
	return strings.Contains(href, "drive.google.com") || strings.Contains(href, "docs.google.com")
}

// DriveIcon picks the icon prefix for a Google Drive or Docs URL.
func DriveIcon(href string) string {
	switch {
	case strings.Contains(href, "/document/"):
		return "📄 "
	case strings.Contains(href, "/spreadsheets/"), strings.Contains(href, "/spreadsheet/"):
		return "📊 "
	case strings.Contains(href, "/presentation/"):
		return "🎭 "
	case strings.Contains(href, "/forms/"), strings.Contains(href, "/form/"):
		return "📝 "
	default:
		return "📎 "
	}
}

// AssetLink renders the placeholder link for an attachment. The placeholder
// target is swapped for the download URL once attachments are resolved.
func AssetLink(icon, filename string) string {
	return "\n\n[" + icon + " " + filename + "](" + AssetPlaceholder(filename) + ")\n\n"
}

// AssetPlaceholder is the link target used for an attachment before its
// download URL is known.
func AssetPlaceholder(filename string) string {
	return "ASSET_PLACEHOLDER_" + filename
}

// FileIcon picks an icon for a view-file attachment by extension.
func FileIcon(filename string) string {
	switch extension(filename) {
	case "pdf", "txt", "md", "json", "xml":
		return "📄"
	case "doc", "docx":
		return "📝"
	case "xls", "xlsx", "ppt", "pptx", "csv":
		return "📊"
	case "zip", "rar":
		return "📦"
	default:
		return "📎"
	}
}

// MediaIcon picks an icon for an embedded image attachment by extension.
func MediaIcon(filename string) string {
	switch extension(filename) {
	case "jpg", "jpeg", "png", "gif", "svg", "webp", "bmp", "tiff":
		return "🖼️"
	case "mp4", "avi", "mov", "wmv", "flv", "webm", "mkv":
		return "🎬"
	default:
		return "📎"
	}
}

// AssetType classifies an attachment for the metadata record.
func AssetType(filename string) string {
	switch MediaIcon(filename) {
	case "🖼️":
		return "image"
	case "🎬":
		return "video"
	}
	if FileIcon(filename) != "📎" {
		return "document"
	}
	return "file"
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

func uniqueAttr(tree *dom.Tree, scope dom.NodeID, tag, key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range tree.FindAll(scope, tag) {
		v := tree.AttrOr(id, key, "")
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
