package convert

import (
	"context"
	"strings"

	"github.com/gerunddev/confluence2md/internal/meta"
)

// resolveAssets matches the discovered attachment filenames against the
// page's attachments with a single lookup. Unknown filenames stay
// discovered but unresolved. With asset links enabled, the placeholder
// targets of resolved assets are replaced by their download URLs.
func (c *Converter) resolveAssets(ctx context.Context, cc *meta.Context, md string) string {
	discovered := cc.Assets()
	if len(discovered) == 0 || c.attachments == nil || cc.DocumentID == "" {
		return md
	}

	attachments, err := c.attachments.PageAttachments(ctx, cc.DocumentID)
	if err != nil {
		c.log.LookupFailed(cc.DocumentID, "attachments", err)
		return md
	}
	byTitle := make(map[string]int, len(attachments))
	for i, a := range attachments {
		if _, ok := byTitle[a.Title]; !ok {
			byTitle[a.Title] = i
		}
	}

	var resolved []meta.Asset
	for _, filename := range discovered {
		i, ok := byTitle[filename]
		if !ok {
			continue
		}
		a := attachments[i]
		resolved = append(resolved, meta.Asset{
			ID:          a.ID,
			Title:       a.Title,
			Type:        meta.AssetType(a.Title),
			Size:        a.FileSize,
			MimeType:    a.MediaType,
			DownloadURL: a.DownloadURL,
		})
	}
	cc.SetResolvedAssets(resolved)

	if !c.assetLinks {
		return md
	}
	for _, a := range resolved {
		if a.DownloadURL == "" {
			continue
		}
		md = strings.ReplaceAll(md, "("+meta.AssetPlaceholder(a.Title)+")", "("+a.DownloadURL+")")
	}
	return md
}
