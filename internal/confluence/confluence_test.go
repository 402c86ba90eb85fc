package confluence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T) *Directory {
	t.Helper()
	d, err := LoadDirectory(filepath.Join("testdata", "directory.yaml"))
	if err != nil {
		t.Fatalf("Failed to load directory: %v", err)
	}
	return d
}

func TestDirectoryUsers(t *testing.T) {
	d := loadFixture(t)

	users, err := d.UsersByAccountIDs(context.Background(), []string{"557058:aaaa", "missing"})
	if err != nil {
		t.Fatalf("Users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}
	if users["557058:aaaa"].DisplayName != "Ada Lovelace" {
		t.Errorf("Unexpected user: %+v", users["557058:aaaa"])
	}
}

func TestDirectoryFindPage(t *testing.T) {
	d := loadFixture(t)
	ctx := context.Background()

	page, err := d.FindPageByTitle(ctx, "ENG", "Onboarding Guide")
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if page.ID != "12345" {
		t.Errorf("Expected page 12345, got %s", page.ID)
	}

	if _, err := d.FindPageByTitle(ctx, "OPS", "Onboarding Guide"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound for other space, got %v", err)
	}

	// Pages without a space match any space.
	if _, err := d.FindPageByTitle(ctx, "OPS", "Release Notes"); err != nil {
		t.Errorf("Expected space-less page to match, got %v", err)
	}
}

func TestDirectorySearch(t *testing.T) {
	d := loadFixture(t)

	if got := d.BaseURL(); got != "https://jira.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", got)
	}

	issues, err := d.Search(context.Background(), "project = ENG AND status = Open", 1, []string{"summary", "status"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected limit to cap results at 1, got %d", len(issues))
	}
	if _, ok := issues[0].Fields["assignee"]; ok {
		t.Error("Expected unrequested fields to be dropped")
	}
	if issues[0].Fields["summary"] != "Broken build" {
		t.Errorf("Unexpected summary: %v", issues[0].Fields["summary"])
	}
}

func TestDirectorySearchWithoutTracker(t *testing.T) {
	d := &Directory{}
	if _, err := d.Search(context.Background(), "x", 10, nil); err == nil {
		t.Error("Expected error without issue tracker")
	}
}

func TestLoadDirectoryMissingFile(t *testing.T) {
	d, err := LoadDirectory(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if len(d.AccountIDs()) != 0 {
		t.Error("Expected empty directory")
	}
}

func TestValidateSpaceKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "simple key", key: "ENG", wantErr: false},
		{name: "key with digits", key: "OPS2", wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "lowercase", key: "eng", wantErr: true},
		{name: "leading digit", key: "2OPS", wantErr: true},
		{name: "personal space", key: "~557058", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpaceKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpaceKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePageID(t *testing.T) {
	if err := ValidatePageID("12345"); err != nil {
		t.Errorf("Expected numeric id to be valid, got %v", err)
	}
	if err := ValidatePageID(""); err != nil {
		t.Errorf("Expected empty id to be valid, got %v", err)
	}
	if err := ValidatePageID("abc"); err == nil {
		t.Error("Expected non-numeric id to be invalid")
	}
}
