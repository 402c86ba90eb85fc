// Package embed recovers the public URL of third-party content from the
// iframe URL used to embed it.
package embed

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	mapsCoordPattern = regexp.MustCompile(`!2d([-+]?\d*\.?\d+)!3d([-+]?\d*\.?\d+)`)
	urlParamPattern  = regexp.MustCompile(`url=([^&]+)`)
	srcParamPattern  = regexp.MustCompile(`(?:src|url)=([^&]+)`)
)

// embedURL is a parsed embed URL as the rules see it.
type embedURL struct {
	raw    string
	scheme string
	domain string
	path   string
	query  url.Values
}

// rule derives a canonical URL. ok=false means the rule recognized the
// platform but could not derive anything, which ends resolution.
type rule struct {
	name    string
	matches func(u embedURL) bool
	derive  func(u embedURL) (string, bool)
}

var rules = []rule{
	{
		name:    "youtube",
		matches: func(u embedURL) bool { return u.onDomain("youtube.com") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			return "https://www.youtube.com/watch?v=" + path.Base(u.path), true
		},
	},
	{
		name:    "vimeo",
		matches: func(u embedURL) bool { return u.onDomain("vimeo.com") && u.hasPath("/video/") },
		derive: func(u embedURL) (string, bool) {
			return "https://vimeo.com/" + path.Base(u.path), true
		},
	},
	{
		name:    "google-maps",
		matches: func(u embedURL) bool { return u.onDomain("google.com") && u.hasPath("maps/embed") },
		derive: func(u embedURL) (string, bool) {
			m := mapsCoordPattern.FindStringSubmatch(u.query.Get("pb"))
			if m == nil {
				return "", false
			}
			lng, lat := m[1], m[2]
			return "https://maps.google.com/?q=" + lat + "," + lng, true
		},
	},
	{
		name: "twitter",
		matches: func(u embedURL) bool {
			return u.onDomain("platform.twitter.com") || u.onDomain("twitter.com") || u.domain == "x.com" || u.domain == "platform.x.com"
		},
		derive: func(u embedURL) (string, bool) {
			m := urlParamPattern.FindStringSubmatch(u.raw)
			if m == nil {
				return "", false
			}
			return unescape(m[1]), true
		},
	},
	{
		name:    "instagram",
		matches: func(u embedURL) bool { return u.onDomain("instagram.com") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			rest := u.path[strings.LastIndex(u.path, "/embed/")+len("/embed/"):]
			id, _, _ := strings.Cut(rest, "/")
			return "https://www.instagram.com/p/" + id + "/", true
		},
	},
	{
		name:    "tiktok",
		matches: func(u embedURL) bool { return u.onDomain("tiktok.com") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			return "https://www.tiktok.com/@user/video/" + path.Base(u.path), true
		},
	},
	{
		name:    "soundcloud",
		matches: func(u embedURL) bool { return u.onDomain("w.soundcloud.com") },
		derive: func(u embedURL) (string, bool) {
			track := u.query.Get("url")
			if track == "" {
				return "", false
			}
			return unescape(track), true
		},
	},
	{
		name:    "spotify",
		matches: func(u embedURL) bool { return u.onDomain("open.spotify.com") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			return "https://open.spotify.com" + strings.ReplaceAll(u.path, "/embed/", "/"), true
		},
	},
	{
		name:    "twitch",
		matches: func(u embedURL) bool { return u.onDomain("player.twitch.tv") },
		derive: func(u embedURL) (string, bool) {
			if channel := u.query.Get("channel"); channel != "" {
				return "https://www.twitch.tv/" + channel, true
			}
			if video := u.query.Get("video"); video != "" {
				return "https://www.twitch.tv/videos/" + video, true
			}
			return "", false
		},
	},
	{
		name:    "codepen",
		matches: func(u embedURL) bool { return u.onDomain("codepen.io") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			return "https://codepen.io" + strings.ReplaceAll(u.path, "/embed/", "/"), true
		},
	},
	{
		name:    "gist",
		matches: func(u embedURL) bool { return u.onDomain("gist.github.com") },
		derive: func(u embedURL) (string, bool) {
			before, _, _ := strings.Cut(u.raw, ".js")
			return before, true
		},
	},
	{
		name:    "jsfiddle",
		matches: func(u embedURL) bool { return u.onDomain("jsfiddle.net") && u.hasPath("/embedded/") },
		derive: func(u embedURL) (string, bool) {
			return "https://jsfiddle.net" + strings.ReplaceAll(u.path, "/embedded/", "/"), true
		},
	},
	{
		name:    "loom",
		matches: func(u embedURL) bool { return u.onDomain("loom.com") && u.hasPath("/embed/") },
		derive: func(u embedURL) (string, bool) {
			return "https://www.loom.com/share/" + path.Base(u.path), true
		},
	},
}

// Resolve maps an embed URL to the canonical URL of the embedded content.
// Unrecognized URLs come back unchanged. Resolve never panics.
func Resolve(embedURL string) (resolved string) {
	defer func() {
		if recover() != nil {
			resolved = embedURL
		}
	}()

	u, ok := parse(embedURL)
	if !ok {
		return embedURL
	}

	for _, r := range rules {
		if !r.matches(u) {
			continue
		}
		if out, ok := r.derive(u); ok {
			return out
		}
		return embedURL
	}

	return generic(u)
}

// Platform returns the name of the rule that recognizes embedURL, or
// "generic" when none does.
func Platform(embedURL string) string {
	u, ok := parse(embedURL)
	if !ok {
		return "generic"
	}
	for _, r := range rules {
		if r.matches(u) {
			return r.name
		}
	}
	return "generic"
}

func generic(u embedURL) string {
	if u.hasPath("/embed/") {
		return u.scheme + "://" + u.domain + strings.ReplaceAll(u.path, "/embed/", "/")
	}
	if strings.Contains(u.raw, "src=") || strings.Contains(u.raw, "url=") {
		if m := srcParamPattern.FindStringSubmatch(u.raw); m != nil {
			return unescape(m[1])
		}
	}
	return u.raw
}

func parse(raw string) (embedURL, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return embedURL{}, false
	}
	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		query = url.Values{}
	}
	return embedURL{
		raw:    raw,
		scheme: parsed.Scheme,
		domain: strings.ToLower(parsed.Host),
		path:   parsed.Path,
		query:  query,
	}, true
}

func (u embedURL) onDomain(d string) bool {
	return strings.Contains(u.domain, d)
}

func (u embedURL) hasPath(fragment string) bool {
	return strings.Contains(u.path, fragment)
}

func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}
