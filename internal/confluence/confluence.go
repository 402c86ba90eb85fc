// Package confluence defines the Confluence-side collaborators the converter
// consults: attachment listings, the user directory, page lookup and the
// issue tracker. Implementations may hit the network; the converter only
// calls them before it starts mutating a document.
package confluence

import (
	"context"
	"errors"
)

// ErrPageNotFound is returned by a PageFinder when no page has the title.
var ErrPageNotFound = errors.New("page not found")

// ErrUserNotFound is returned by a UserDirectory when an account id is unknown.
var ErrUserNotFound = errors.New("user not found")

// Attachment describes a file attached to a page.
type Attachment struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	MediaType   string `yaml:"media_type" json:"media_type"`
	FileSize    int64  `yaml:"file_size" json:"file_size"`
	DownloadURL string `yaml:"download_url" json:"download_url"`
}

// User is a directory entry.
type User struct {
	AccountID   string `yaml:"account_id" json:"account_id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	ProfileURL  string `yaml:"profile_url" json:"profile_url"`
}

// Page identifies a page found by title.
type Page struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Space string `yaml:"space" json:"space"`
	URL   string `yaml:"url" json:"url"`
}

// Issue is one tracker search hit. Fields holds the tracker's field values
// keyed by field name.
type Issue struct {
	Key    string         `yaml:"key" json:"key"`
	Fields map[string]any `yaml:"fields" json:"fields"`
}

// AttachmentLister lists the attachments of a document.
type AttachmentLister interface {
	PageAttachments(ctx context.Context, pageID string) ([]Attachment, error)
}

// UserDirectory resolves account ids to users. Missing ids are simply absent
// from the result.
type UserDirectory interface {
	UsersByAccountIDs(ctx context.Context, accountIDs []string) (map[string]User, error)
}

// PageFinder looks up a page by exact title within a space. It returns
// ErrPageNotFound when no page matches.
type PageFinder interface {
	FindPageByTitle(ctx context.Context, spaceID, title string) (*Page, error)
}

// IssueTracker runs issue searches for the jira macro.
type IssueTracker interface {
	BaseURL() string
	Search(ctx context.Context, query string, limit int, fields []string) ([]Issue, error)
}
