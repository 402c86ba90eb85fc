package macro

import (
	"context"
	"strings"
)

const (
	codeNotFound   = "```\nCode block content not found\n```"
	codeError      = "```\nError parsing code block\n```"
	expandNotFound = "\n\nNo content found\n\n"
	expandError    = "\n\nError parsing content\n\n"
)

var panelPrefixes = map[Kind]string{
	KindPanel:   "> ",
	KindInfo:    "> ℹ️  ",
	KindTip:     "> ✅  ",
	KindNote:    "> ⚠️  ",
	KindWarning: "> ❌  ",
}

var statusEmoji = map[string]string{
	"green":  "🟢",
	"yellow": "🟡",
	"red":    "🔴",
	"blue":   "🔵",
	"grey":   "⚪",
	"gray":   "⚪",
	"purple": "🟣",
	"pink":   "🔴",
	"orange": "🟠",
	"brown":  "🟤",
	"black":  "⚫",
	"white":  "⚪",
}

// CodeHandler renders code macros as fenced blocks.
func CodeHandler() Handler {
	return Handler{
		Name: "code",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			return Text(fence(m, m.Params.Value("language", ""))), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Text(codeError) },
	}
}

// NoFormatHandler renders noformat macros as fenced blocks without a language.
func NoFormatHandler() Handler {
	return Handler{
		Name: "noformat",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			return Text(fence(m, "")), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Text(codeError) },
	}
}

func fence(m Macro, language string) string {
	body, ok := m.PlainTextBody()
	if !ok {
		return codeNotFound
	}
	switch {
	case body == "":
		body = "\n"
	default:
		if !strings.HasPrefix(body, "\n") {
			body = "\n" + body
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
	}
	return "```" + strings.TrimSpace(language) + body + "```"
}

// PanelHandler renders panel, info, note, warning and tip macros as
// blockquotes with a kind-specific marker.
func PanelHandler() Handler {
	return Handler{
		Name: "panel",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			body, ok := m.RichTextBody()
			if !ok {
				return Text("> **" + strings.ToUpper(m.Kind.String()) + "**: Content not found"), nil
			}
			content, err := env.RenderBody(ctx, body)
			if err != nil {
				return Empty(), err
			}

			prefix := panelPrefixes[m.Kind]
			var lines []string
			if title := m.Params.Value("title", ""); title != "" {
				lines = append(lines, prefix+" **"+title+"**")
			}
			for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
				lines = append(lines, prefix+" "+line)
			}
			return Text(strings.Join(lines, "\n")), nil
		},
		Placeholder: func(m Macro, err error) Fragment {
			return Text("> **" + strings.ToUpper(m.Kind.String()) + "**: Error parsing content")
		},
	}
}

// StatusHandler renders status lozenges as a colored dot and title.
func StatusHandler() Handler {
	return Handler{
		Name: "status",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			colour := m.Params.Value("colour", m.Params.Value("color", "grey"))
			emoji, ok := statusEmoji[strings.ToLower(colour)]
			if !ok {
				emoji = "⚪"
			}
			if title := m.Params.Value("title", ""); title != "" {
				return Text("(" + emoji + " " + title + ")"), nil
			}
			return Text(emoji), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Text("⚪ Unknown") },
	}
}

// ExpandHandler renders expand, details and excerpt macros as their body.
func ExpandHandler() Handler {
	return Handler{
		Name: "expand",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			body, ok := m.RichTextBody()
			if !ok {
				return Text(expandNotFound), nil
			}
			content, err := env.RenderBody(ctx, body)
			if err != nil {
				return Empty(), err
			}
			if title := m.Params.Value("title", ""); title != "" && m.Kind == KindExpand {
				content = "**" + title + "**\n\n" + content
			}
			return Text("\n\n" + content + "\n\n"), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Text(expandError) },
	}
}

// TOCHandler leaves a marker where the table of contents was.
func TOCHandler() Handler {
	return Handler{
		Name: "toc",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			return Comment(" Table of Contents placeholder ").Then(Text("\n\n")), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Empty() },
	}
}

// AnchorHandler drops anchor macros; they carry no text.
func AnchorHandler() Handler {
	return Handler{
		Name: "anchor",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			return Empty(), nil
		},
		Placeholder: func(m Macro, err error) Fragment { return Empty() },
	}
}

// FallbackHandler renders macros nobody else handles. The output always
// names the macro so nothing disappears silently.
func FallbackHandler() Handler {
	return Handler{
		Name: "fallback",
		Render: func(ctx context.Context, env *Env, m Macro) (Fragment, error) {
			name := m.DisplayName()
			comment := Comment(" Unsupported Confluence Macro: " + name + " " + m.Params.String() + " ").Then(Text("\n\n"))

			body, ok := m.RichTextBody()
			if !ok {
				return comment.Then(Text("**" + name + " Macro** _(Content could not be extracted)_\n\n")), nil
			}
			content, err := env.RenderBody(ctx, body)
			if err != nil {
				return Empty(), err
			}
			return comment.Then(Text("**" + name + " Macro Content:**\n\n" + content + "\n\n")), nil
		},
		Placeholder: func(m Macro, err error) Fragment {
			return Comment(" Unsupported Confluence Macro ").
				Then(Text("\n\n**" + m.DisplayName() + " Macro** _(Content could not be extracted)_\n\n"))
		},
	}
}
