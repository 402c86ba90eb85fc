package macro

import (
	"context"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/embed"
	"github.com/gerunddev/confluence2md/internal/meta"
)

const defaultIframeTitle = "Iframe Content"

// ViewFileHandler renders attached files as placeholder links and records
// them as discovered assets.
func ViewFileHandler() Handler {
	return Handler{
		Name: "view-file",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			att := m.Find("ri:attachment")
			filename := env.Tree.AttrOr(att, "ri:filename", "")
			if filename == "" {
				return Text("\n\n[📎 File attachment](" + meta.AssetPlaceholder("unknown") + ")\n\n"), nil
			}
			env.Meta.AddAsset(filename)
			return Text(meta.AssetLink(meta.FileIcon(filename), filename)), nil
		},
		Placeholder: func(m Macro, err error) Fragment {
			return Text("\n\n[📎 File attachment (error processing)](" + meta.AssetPlaceholder("error") + ")\n\n")
		},
	}
}

// IframeHandler renders embedded frames as a link to the embedded content.
func IframeHandler() Handler {
	return Handler{
		Name: "iframe",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			url := ""
			if src := m.ParamNode("src"); src != dom.None {
				url = env.Tree.AttrOr(env.Tree.Find(src, "ri:url"), "ri:value", "")
			}
			if url == "" {
				return Text("\n\n[" + defaultIframeTitle + "]()\n\n"), nil
			}

			title := m.Params.Value("title", defaultIframeTitle)
			resolved := embed.Resolve(url)
			env.Meta.AddExternalLink(title, resolved)
			return Text("\n\n[" + title + "](" + resolved + ")\n\n"), nil
		},
		Placeholder: func(m Macro, err error) Fragment {
			return Text("\n\n[" + defaultIframeTitle + "]()\n\n")
		},
	}
}
