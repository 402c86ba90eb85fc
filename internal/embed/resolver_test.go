package embed

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "youtube embed",
			input:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
			expected: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "vimeo player",
			input:    "https://player.vimeo.com/video/76979871",
			expected: "https://vimeo.com/76979871",
		},
		{
			name:     "google maps coordinates",
			input:    "https://www.google.com/maps/embed?pb=!1m18!2d-122.4194!3d37.7749!4f13.1",
			expected: "https://maps.google.com/?q=37.7749,-122.4194",
		},
		{
			name:     "google maps without coordinates",
			input:    "https://www.google.com/maps/embed?pb=!1m3",
			expected: "https://www.google.com/maps/embed?pb=!1m3",
		},
		{
			name:     "twitter url parameter",
			input:    "https://platform.twitter.com/embed/Tweet.html?url=https%3A%2F%2Ftwitter.com%2Fuser%2Fstatus%2F1",
			expected: "https://twitter.com/user/status/1",
		},
		{
			name:     "instagram post",
			input:    "https://www.instagram.com/p/embed/CxYz123/captioned",
			expected: "https://www.instagram.com/p/CxYz123/",
		},
		{
			name:     "tiktok video",
			input:    "https://www.tiktok.com/embed/v2/7012345678901234567",
			expected: "https://www.tiktok.com/@user/video/7012345678901234567",
		},
		{
			name:     "soundcloud track",
			input:    "https://w.soundcloud.com/player/?url=https%3A//api.soundcloud.com/tracks/293&color=ff5500",
			expected: "https://api.soundcloud.com/tracks/293",
		},
		{
			name:     "spotify track",
			input:    "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "twitch channel",
			input:    "https://player.twitch.tv/?channel=monstercat&parent=example.com",
			expected: "https://www.twitch.tv/monstercat",
		},
		{
			name:     "twitch video",
			input:    "https://player.twitch.tv/?video=v12345",
			expected: "https://www.twitch.tv/videos/v12345",
		},
		{
			name:     "codepen pen",
			input:    "https://codepen.io/team/embed/abcdef",
			expected: "https://codepen.io/team/abcdef",
		},
		{
			name:     "github gist script",
			input:    "https://gist.github.com/user/0123456789abcdef.js",
			expected: "https://gist.github.com/user/0123456789abcdef",
		},
		{
			name:     "jsfiddle",
			input:    "https://jsfiddle.net/user/abc123/embedded/",
			expected: "https://jsfiddle.net/user/abc123/",
		},
		{
			name:     "loom share",
			input:    "https://www.loom.com/embed/1a2b3c",
			expected: "https://www.loom.com/share/1a2b3c",
		},
		{
			name:     "generic embed path",
			input:    "https://media.example.com/embed/clip/42",
			expected: "https://media.example.com/clip/42",
		},
		{
			name:     "generic src parameter",
			input:    "https://viewer.example.com/frame?src=https%3A%2F%2Fdocs.example.com%2Fa.pdf&mode=1",
			expected: "https://docs.example.com/a.pdf",
		},
		{
			name:     "unknown url unchanged",
			input:    "https://dashboards.example.com/d/abc?orgId=1",
			expected: "https://dashboards.example.com/d/abc?orgId=1",
		},
		{
			name:     "unparseable url unchanged",
			input:    "http://[::1",
			expected: "http://[::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.input); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	if got := Platform("https://www.youtube.com/embed/x"); got != "youtube" {
		t.Errorf("Expected youtube, got %s", got)
	}
	if got := Platform("https://example.com/page"); got != "generic" {
		t.Errorf("Expected generic, got %s", got)
	}
}
