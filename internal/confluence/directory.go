package confluence

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory is a file-backed stand-in for the Confluence and Jira APIs. It
// answers every collaborator interface from a YAML document, which lets the
// CLI convert exported pages offline.
type Directory struct {
	Accounts    []User                  `yaml:"users"`
	Pages       []Page                  `yaml:"pages"`
	Attached    map[string][]Attachment `yaml:"attachments"`
	IssueURL    string                  `yaml:"issue_base_url"`
	IssueSearch map[string][]Issue      `yaml:"issues"`
}

// LoadDirectory reads a directory file. A missing file yields an empty
// directory.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Directory{}, nil
		}
		return nil, err
	}

	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse directory %s: %w", path, err)
	}
	return &d, nil
}

// UsersByAccountIDs implements UserDirectory.
func (d *Directory) UsersByAccountIDs(ctx context.Context, accountIDs []string) (map[string]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		want[id] = true
	}
	found := make(map[string]User)
	for _, u := range d.Accounts {
		if want[u.AccountID] {
			found[u.AccountID] = u
		}
	}
	return found, nil
}

// FindPageByTitle implements PageFinder. Pages without a space match any space.
func (d *Directory) FindPageByTitle(ctx context.Context, spaceID, title string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range d.Pages {
		p := d.Pages[i]
		if p.Title != title {
			continue
		}
		if p.Space == "" || spaceID == "" || p.Space == spaceID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPageNotFound, title)
}

// PageAttachments implements AttachmentLister.
func (d *Directory) PageAttachments(ctx context.Context, pageID string) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Attachment(nil), d.Attached[pageID]...), nil
}

// BaseURL implements IssueTracker.
func (d *Directory) BaseURL() string {
	return strings.TrimRight(d.IssueURL, "/")
}

// Search implements IssueTracker. Queries are matched verbatim against the
// keys of the issues map.
func (d *Directory) Search(ctx context.Context, query string, limit int, fields []string) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.IssueURL == "" {
		return nil, fmt.Errorf("no issue tracker configured")
	}
	issues, ok := d.IssueSearch[strings.TrimSpace(query)]
	if !ok {
		return nil, nil
	}
	if limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}

	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		picked := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := is.Fields[f]; ok {
				picked[f] = v
			}
		}
		out = append(out, Issue{Key: is.Key, Fields: picked})
	}
	return out, nil
}

// AccountIDs returns the known account ids in sorted order.
func (d *Directory) AccountIDs() []string {
	ids := make([]string, 0, len(d.Accounts))
	for _, u := range d.Accounts {
		ids = append(ids, u.AccountID)
	}
	sort.Strings(ids)
	return ids
}
