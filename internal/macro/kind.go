package macro

import "strings"

// Kind identifies a supported macro. Names without a dedicated handler map
// to KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCode
	KindNoFormat
	KindPanel
	KindInfo
	KindNote
	KindWarning
	KindTip
	KindStatus
	KindExpand
	KindDetails
	KindExcerpt
	KindTOC
	KindAnchor
	KindJira
	KindViewFile
	KindIframe

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:  "unknown",
	KindCode:     "code",
	KindNoFormat: "noformat",
	KindPanel:    "panel",
	KindInfo:     "info",
	KindNote:     "note",
	KindWarning:  "warning",
	KindTip:      "tip",
	KindStatus:   "status",
	KindExpand:   "expand",
	KindDetails:  "details",
	KindExcerpt:  "excerpt",
	KindTOC:      "toc",
	KindAnchor:   "anchor",
	KindJira:     "jira",
	KindViewFile: "view-file",
	KindIframe:   "iframe",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := KindCode; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// ParseKind maps a macro name to its kind, ignoring case and surrounding
// whitespace.
func ParseKind(name string) Kind {
	return kindsByName[strings.ToLower(strings.TrimSpace(name))]
}

// String returns the macro name of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind other than KindUnknown.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < kindCount
}

// IsPanel reports whether k renders as a callout panel.
func (k Kind) IsPanel() bool {
	switch k {
	case KindPanel, KindInfo, KindNote, KindWarning, KindTip:
		return true
	}
	return false
}
