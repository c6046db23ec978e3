// Package markdown converts between rich-text documents and a markdown
// dialect with a checkbox extension (`- [ ]` / `- [x]`). The encoder is
// deterministic: markers nest link, strikethrough, underline, bold/italic
// from outermost to innermost, and every newline closes all open markers
// before the line break so line-oriented consumers never see a marker span
// lines. Re-encoding an already-encoded document is therefore idempotent.
package markdown

import (
	"strings"

	"github.com/hylla/anteck/internal/domain"
)

// marker nesting levels, outermost first.
type level int

const (
	levelLink level = iota
	levelStrike
	levelUnderline
	levelBoldItalic
	levelCount
)

// Encode renders the document as markdown. Checkbox segments become
// `- [ ]` / `- [x]` lines terminated by a newline; a separator newline is
// inserted first when the checkbox would otherwise start mid-line, and a
// newline already preceding a checkbox is folded into that framing, so
// decode yields the canonical form rather than the exact original spacing.
// Characters in run text that the decoder would read as markers are
// backslash-escaped.
func Encode(d *domain.Document) string {
	var b strings.Builder
	var open domain.StyleSet
	atLineStart := true

	for _, seg := range d.Segments() {
		switch s := seg.(type) {
		case domain.TextRun:
			text := s.Text
			for text != "" {
				chunk := text
				nl := strings.IndexByte(text, '\n')
				if nl >= 0 {
					chunk = text[:nl]
				}
				if chunk != "" {
					transition(&b, open, s.Style)
					open = s.Style
					b.WriteString(escapeText(chunk))
					atLineStart = false
				}
				if nl < 0 {
					break
				}
				transition(&b, open, domain.StyleSet{})
				open = domain.StyleSet{}
				b.WriteByte('\n')
				atLineStart = true
				text = text[nl+1:]
			}
		case *domain.Checkbox:
			transition(&b, open, domain.StyleSet{})
			open = domain.StyleSet{}
			if !atLineStart {
				b.WriteByte('\n')
			}
			if s.Checked() {
				b.WriteString("- [x]")
			} else {
				b.WriteString("- [ ]")
			}
			if s.Label() != "" {
				b.WriteByte(' ')
				b.WriteString(s.Label())
			}
			b.WriteByte('\n')
			atLineStart = true
		}
	}
	transition(&b, open, domain.StyleSet{})
	return b.String()
}

// escapeText backslash-escapes characters in literal run text that the
// decoder would otherwise read as markers. Tildes and angle brackets only
// need escaping when they start a marker token.
func escapeText(text string) string {
	if !strings.ContainsAny(text, `\*[]~<`) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 4)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\\', '*', '[', ']':
			b.WriteByte('\\')
		case '~':
			if i+1 < len(text) && text[i+1] == '~' {
				b.WriteByte('\\')
			}
		case '<':
			if strings.HasPrefix(text[i:], "<u>") || strings.HasPrefix(text[i:], "</u>") {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// transition writes the markers needed to move from one open style state to
// another: close inner-to-outer down to the shallowest changed level, then
// reopen outer-to-inner.
func transition(b *strings.Builder, from, to domain.StyleSet) {
	first := levelCount
	for l := level(0); l < levelCount; l++ {
		if !levelEqual(l, from, to) {
			first = l
			break
		}
	}
	if first == levelCount {
		return
	}
	for l := levelCount - 1; l >= first; l-- {
		if levelActive(l, from) {
			b.WriteString(closeMarker(l, from))
		}
	}
	for l := first; l < levelCount; l++ {
		if levelActive(l, to) {
			b.WriteString(openMarker(l, to))
		}
	}
}

func levelActive(l level, s domain.StyleSet) bool {
	switch l {
	case levelLink:
		return s.Link != ""
	case levelStrike:
		return s.Strikethrough
	case levelUnderline:
		return s.Underline
	case levelBoldItalic:
		return s.Bold || s.Italic
	default:
		return false
	}
}

func levelEqual(l level, a, b domain.StyleSet) bool {
	switch l {
	case levelLink:
		return a.Link == b.Link
	case levelStrike:
		return a.Strikethrough == b.Strikethrough
	case levelUnderline:
		return a.Underline == b.Underline
	case levelBoldItalic:
		return a.Bold == b.Bold && a.Italic == b.Italic
	default:
		return true
	}
}

func openMarker(l level, s domain.StyleSet) string {
	switch l {
	case levelLink:
		return "["
	case levelStrike:
		return "~~"
	case levelUnderline:
		return "<u>"
	case levelBoldItalic:
		return boldItalicMarker(s)
	default:
		return ""
	}
}

func closeMarker(l level, s domain.StyleSet) string {
	switch l {
	case levelLink:
		return "](" + s.Link + ")"
	case levelStrike:
		return "~~"
	case levelUnderline:
		return "</u>"
	case levelBoldItalic:
		return boldItalicMarker(s)
	default:
		return ""
	}
}

func boldItalicMarker(s domain.StyleSet) string {
	switch {
	case s.Bold && s.Italic:
		return "***"
	case s.Bold:
		return "**"
	case s.Italic:
		return "*"
	default:
		return ""
	}
}
