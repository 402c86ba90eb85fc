package meta

import (
	"context"
	"errors"
	"testing"

	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/dom"
)

type fakeUsers struct {
	calls int
	users map[string]confluence.User
	err   error
}

func (f *fakeUsers) UsersByAccountIDs(ctx context.Context, ids []string) (map[string]confluence.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]confluence.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakePages struct {
	calls []string
	pages map[string]confluence.Page
}

func (f *fakePages) FindPageByTitle(ctx context.Context, spaceID, title string) (*confluence.Page, error) {
	f.calls = append(f.calls, title)
	p, ok := f.pages[title]
	if !ok {
		return nil, confluence.ErrPageNotFound
	}
	return &p, nil
}

func TestAddExternalLinkSkipsIssueURLs(t *testing.T) {
	cc := NewContext("1", "ENG")
	cc.AddIssueLink("ENG-1", "https://jira.example.com/browse/ENG-1")

	if cc.AddExternalLink("ENG-1", "https://jira.example.com/browse/ENG-1") {
		t.Error("Expected issue URL to be skipped")
	}
	if !cc.AddExternalLink("Example", "https://example.com") {
		t.Error("Expected regular link to be recorded")
	}

	md := cc.Metadata()
	if len(md.ExternalLinks) != 1 || md.ExternalLinks[0].URL != "https://example.com" {
		t.Errorf("Unexpected external links: %+v", md.ExternalLinks)
	}
}

func TestAddAssetDedupes(t *testing.T) {
	cc := NewContext("1", "")
	cc.AddAsset("b.png")
	cc.AddAsset("a.pdf")
	cc.AddAsset("b.png")
	cc.AddAsset("")

	got := cc.Metadata().DiscoveredAssets
	if len(got) != 2 || got[0] != "b.png" || got[1] != "a.pdf" {
		t.Errorf("Expected [b.png a.pdf], got %v", got)
	}
}

func TestContextsAreIndependent(t *testing.T) {
	a := NewContext("1", "")
	b := NewContext("2", "")
	a.AddAsset("x.png")

	if len(b.Assets()) != 0 {
		t.Error("Expected contexts not to share state")
	}
	if a.ID == b.ID {
		t.Error("Expected distinct conversion ids")
	}
}

func TestPrefetchUsesOneBulkUserCall(t *testing.T) {
	tree, err := dom.Parse(`<p><ac:link><ri:user ri:account-id="u1"/></ac:link>
<ac:link><ri:user ri:account-id="u2"/></ac:link>
<ac:link><ri:user ri:account-id="u1"/></ac:link>
<ac:link><ri:user ri:account-id="ghost"/></ac:link></p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	users := &fakeUsers{users: map[string]confluence.User{
		"u1": {AccountID: "u1", DisplayName: "Ada", ProfileURL: "https://wiki/u1"},
		"u2": {AccountID: "u2"},
	}}
	cc := NewContext("1", "ENG")
	NewExtractor(users, nil, nil).Prefetch(context.Background(), tree, cc)

	if users.calls != 1 {
		t.Errorf("Expected one bulk call, got %d", users.calls)
	}

	mentions := cc.Metadata().UserMentions
	if len(mentions) != 2 {
		t.Fatalf("Expected 2 mentions, got %+v", mentions)
	}
	if mentions[1].DisplayName != "Unknown User" || mentions[1].ProfileURL != "#" {
		t.Errorf("Expected defaults for sparse user, got %+v", mentions[1])
	}

	ex := NewExtractor(nil, nil, nil)
	if got := ex.UserLink(cc, "u1"); got != "[Ada](https://wiki/u1)" {
		t.Errorf("Unexpected user link: %s", got)
	}
	if got := ex.UserLink(cc, "ghost"); got != "[@user:ghost]" {
		t.Errorf("Unexpected unresolved user link: %s", got)
	}
}

func TestPrefetchUserLookupFailure(t *testing.T) {
	tree, err := dom.Parse(`<ac:link><ri:user ri:account-id="u1"/></ac:link>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cc := NewContext("1", "")
	NewExtractor(&fakeUsers{err: errors.New("unauthorized")}, nil, nil).Prefetch(context.Background(), tree, cc)

	if len(cc.Metadata().UserMentions) != 0 {
		t.Error("Expected no mentions after failed lookup")
	}
}

func TestPrefetchPagesOncePerTitle(t *testing.T) {
	tree, err := dom.Parse(`<p><ac:link><ri:page ri:content-title="Guide"/><ac:link-body>the guide</ac:link-body></ac:link>
<ac:link><ri:page ri:content-title="Guide"/></ac:link>
<ac:link><ri:page ri:content-title="Missing"/></ac:link></p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	pages := &fakePages{pages: map[string]confluence.Page{
		"Guide": {ID: "42", Title: "Guide", URL: "https://wiki/pages/42"},
	}}
	cc := NewContext("1", "ENG")
	ex := NewExtractor(nil, pages, nil)
	ex.Prefetch(context.Background(), tree, cc)

	if len(pages.calls) != 2 {
		t.Errorf("Expected one lookup per distinct title, got %v", pages.calls)
	}
	links := cc.Metadata().InternalLinks
	if len(links) != 1 || links[0].PageID != "42" {
		t.Errorf("Unexpected internal links: %+v", links)
	}

	if got := ex.PageLink(cc, "Guide", " the guide "); got != "[the guide](https://wiki/pages/42)" {
		t.Errorf("Unexpected page link: %s", got)
	}
	if got := ex.PageLink(cc, "Missing", ""); got != "Missing" {
		t.Errorf("Expected plain title for unresolved page, got %s", got)
	}
}

func TestExternalLink(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		text     string
		card     bool
		expected string
		ok       bool
	}{
		{
			name:     "plain link",
			href:     "https://example.com",
			text:     "Example",
			expected: "[Example](https://example.com)",
			ok:       true,
		},
		{
			name:     "text equals href",
			href:     "https://example.com",
			text:     "https://example.com",
			expected: "[https://example.com](https://example.com)",
			ok:       true,
		},
		{
			name:     "drive document without text",
			href:     "https://docs.google.com/document/d/abc",
			expected: "[📄 Google Drive Link](https://docs.google.com/document/d/abc)",
			ok:       true,
		},
		{
			name:     "drive sheet with text",
			href:     "https://docs.google.com/spreadsheets/d/abc",
			text:     "Budget",
			expected: "[📊 Budget](https://docs.google.com/spreadsheets/d/abc)",
			ok:       true,
		},
		{
			name:     "drive card",
			href:     "https://drive.google.com/file/d/abc",
			text:     "Slides",
			card:     true,
			expected: "[📎 Google Drive Link](https://drive.google.com/file/d/abc)",
			ok:       true,
		},
		{
			name: "mailto is not external",
			href: "mailto:a@example.com",
			text: "mail",
			ok:   false,
		},
	}

	ex := NewExtractor(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewContext("1", "")
			got, ok := ex.ExternalLink(cc, tt.href, tt.text, tt.card)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if ok && len(cc.Metadata().ExternalLinks) != 1 {
				t.Error("Expected link to be recorded")
			}
		})
	}
}

func TestIcons(t *testing.T) {
	if got := FileIcon("Report.PDF"); got != "📄" {
		t.Errorf("Expected pdf icon, got %s", got)
	}
	if got := FileIcon("archive.tar.gz"); got != "📎" {
		t.Errorf("Expected default icon, got %s", got)
	}
	if got := MediaIcon("clip.mov"); got != "🎬" {
		t.Errorf("Expected video icon, got %s", got)
	}
	if got := AssetLink("📦", "a.zip"); got != "\n\n[📦 a.zip](ASSET_PLACEHOLDER_a.zip)\n\n" {
		t.Errorf("Unexpected asset link: %q", got)
	}
	if got := AssetType("a.png"); got != "image" {
		t.Errorf("Expected image, got %s", got)
	}
}
