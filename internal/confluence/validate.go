package confluence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var spaceKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

var pageIDPattern = regexp.MustCompile(`^\d+$`)

// ErrInvalidSpaceKey wraps every space key validation failure.
var ErrInvalidSpaceKey = errors.New("invalid space key")

// ValidateSpaceKey checks that key looks like a Confluence space key: an
// uppercase letter followed by uppercase letters or digits.
func ValidateSpaceKey(key string) error {
	err := validation.Validate(strings.TrimSpace(key),
		validation.Required.Error("space key cannot be empty"),
		validation.Length(1, 255).Error("space key must be at most 255 characters"),
		validation.Match(spaceKeyPattern).Error("space key must start with a letter and contain only uppercase letters and digits"),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpaceKey, err)
	}
	return nil
}

// ValidatePageID checks that id is a numeric page id. An empty id is valid;
// documents converted from files often have none.
func ValidatePageID(id string) error {
	return validation.Validate(id,
		validation.Match(pageIDPattern).Error("page id must be numeric"),
	)
}
