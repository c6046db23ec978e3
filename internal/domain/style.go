package domain

// StyleSet holds the character-level formatting attributes carried by a text
// run. Attributes combine independently; the zero value is unstyled text.
type StyleSet struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Link          string
}

// IsZero reports whether no attribute is set.
func (s StyleSet) IsZero() bool {
	return s == StyleSet{}
}

// Attribute identifies a single style attribute for toggle operations.
type Attribute int

// AttrBold and related constants name the toggleable attributes.
const (
	AttrBold Attribute = iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrLink
)

// With returns a copy of the set with the given boolean attribute set or
// cleared. AttrLink is handled separately because it carries a URL.
func (s StyleSet) With(attr Attribute, enabled bool) StyleSet {
	switch attr {
	case AttrBold:
		s.Bold = enabled
	case AttrItalic:
		s.Italic = enabled
	case AttrUnderline:
		s.Underline = enabled
	case AttrStrikethrough:
		s.Strikethrough = enabled
	case AttrLink:
		if !enabled {
			s.Link = ""
		}
	}
	return s
}

// Has reports whether the given attribute is present.
func (s StyleSet) Has(attr Attribute) bool {
	switch attr {
	case AttrBold:
		return s.Bold
	case AttrItalic:
		return s.Italic
	case AttrUnderline:
		return s.Underline
	case AttrStrikethrough:
		return s.Strikethrough
	case AttrLink:
		return s.Link != ""
	default:
		return false
	}
}
