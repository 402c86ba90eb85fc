// Package meta accumulates the links, mentions and assets found while a
// single document is converted.
package meta

import (
	"github.com/google/uuid"

	"github.com/gerunddev/confluence2md/internal/confluence"
)

// ExternalLink is an outbound http(s) link.
type ExternalLink struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// InternalLink is a link to another page of the wiki.
type InternalLink struct {
	PageID    string `json:"page_id" yaml:"page_id"`
	PageTitle string `json:"page_title" yaml:"page_title"`
	PageURL   string `json:"page_url" yaml:"page_url"`
}

// IssueLink is an issue referenced by a jira macro.
type IssueLink struct {
	IssueKey string `json:"issue_key" yaml:"issue_key"`
	IssueURL string `json:"issue_url" yaml:"issue_url"`
}

// UserMention is a user referenced by an ac:link.
type UserMention struct {
	AccountID   string `json:"account_id" yaml:"account_id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	ProfileURL  string `json:"profile_url" yaml:"profile_url"`
}

// Asset is a discovered attachment resolved against the page's attachments.
type Asset struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Type        string `json:"type" yaml:"type"`
	Size        int64  `json:"size" yaml:"size"`
	MimeType    string `json:"mime_type" yaml:"mime_type"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
}

// Metadata is the metadata record returned with every converted document.
type Metadata struct {
	DocumentID       string         `json:"document_id" yaml:"document_id"`
	ExternalLinks    []ExternalLink `json:"external_links" yaml:"external_links"`
	InternalLinks    []InternalLink `json:"internal_links" yaml:"internal_links"`
	IssueLinks       []IssueLink    `json:"issue_links" yaml:"issue_links"`
	UserMentions     []UserMention  `json:"user_mentions" yaml:"user_mentions"`
	DiscoveredAssets []string       `json:"discovered_assets" yaml:"discovered_assets"`
	Assets           []Asset        `json:"assets" yaml:"assets"`
}

// Context is the per-conversion state. It is created for one Convert call
// and never shared between calls.
type Context struct {
	ID         string
	DocumentID string
	SpaceID    string

	external  []ExternalLink
	internal  []InternalLink
	issues    []IssueLink
	mentions  []UserMention
	assets    []string
	resolved  []Asset
	assetSeen map[string]bool
	issueURLs map[string]bool
	users     map[string]confluence.User
	pages     map[string]confluence.Page
}

// NewContext creates an empty context for one document.
func NewContext(documentID, spaceID string) *Context {
	return &Context{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		SpaceID:    spaceID,
		assetSeen:  make(map[string]bool),
		issueURLs:  make(map[string]bool),
		users:      make(map[string]confluence.User),
		pages:      make(map[string]confluence.Page),
	}
}

// AddExternalLink records an outbound link. Links that point at an already
// recorded issue are skipped and false is returned.
func (c *Context) AddExternalLink(title, url string) bool {
	if c.issueURLs[url] {
		return false
	}
	c.external = append(c.external, ExternalLink{Title: title, URL: url})
	return true
}

// AddIssueLink records an issue reference.
func (c *Context) AddIssueLink(key, url string) {
	c.issues = append(c.issues, IssueLink{IssueKey: key, IssueURL: url})
	c.issueURLs[url] = true
}

// AddInternalLink records a link to another page.
func (c *Context) AddInternalLink(link InternalLink) {
	c.internal = append(c.internal, link)
}

// AddUserMention records a mentioned user.
func (c *Context) AddUserMention(m UserMention) {
	c.mentions = append(c.mentions, m)
}

// AddAsset records a referenced attachment filename once.
func (c *Context) AddAsset(filename string) {
	if filename == "" || c.assetSeen[filename] {
		return
	}
	c.assetSeen[filename] = true
	c.assets = append(c.assets, filename)
}

// Assets returns the discovered attachment filenames in discovery order.
func (c *Context) Assets() []string {
	return append([]string(nil), c.assets...)
}

// SetResolvedAssets stores the attachment records matched to discovered assets.
func (c *Context) SetResolvedAssets(assets []Asset) {
	c.resolved = append([]Asset(nil), assets...)
}

// CacheUser stores a directory entry for later link rendering.
func (c *Context) CacheUser(u confluence.User) {
	c.users[u.AccountID] = u
}

// User returns a cached directory entry.
func (c *Context) User(accountID string) (confluence.User, bool) {
	u, ok := c.users[accountID]
	return u, ok
}

// CachePage stores a page found by title.
func (c *Context) CachePage(title string, p confluence.Page) {
	c.pages[title] = p
}

// Page returns a cached page by title.
func (c *Context) Page(title string) (confluence.Page, bool) {
	p, ok := c.pages[title]
	return p, ok
}

// Metadata returns a snapshot of everything recorded so far.
func (c *Context) Metadata() Metadata {
	return Metadata{
		DocumentID:       c.DocumentID,
		ExternalLinks:    append([]ExternalLink{}, c.external...),
		InternalLinks:    append([]InternalLink{}, c.internal...),
		IssueLinks:       append([]IssueLink{}, c.issues...),
		UserMentions:     append([]UserMention{}, c.mentions...),
		DiscoveredAssets: append([]string{}, c.assets...),
		Assets:           append([]Asset{}, c.resolved...),
	}
}
