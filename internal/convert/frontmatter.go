package convert

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/confluence2md/internal/meta"
)

type frontMatter struct {
	Title         string `yaml:"title,omitempty"`
	Space         string `yaml:"space,omitempty"`
	meta.Metadata `yaml:",inline"`
}

// WithFrontMatter prefixes the Markdown with a YAML front matter block
// holding the title, space and metadata record.
func WithFrontMatter(doc Document, res *Result) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	fm := frontMatter{Title: doc.Title, Space: doc.SpaceID, Metadata: res.Metadata}
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	return "---\n" + buf.String() + "---\n\n" + res.Markdown + "\n", nil
}
