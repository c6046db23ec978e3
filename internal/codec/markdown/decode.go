package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hylla/anteck/internal/domain"
)

// checkboxLine matches one checkbox line, anchored per line and
// case-sensitive on the x.
var checkboxLine = regexp.MustCompile(`^- \[( |x)\]\s*(.*)$`)

// Decode parses markdown into a document. Checkbox lines become checkbox
// segments with freshly generated ids; remaining text becomes runs carrying
// the caller-supplied default style, with the encoder's own inline markers
// parsed back into style spans and backslash escapes restored to their
// literal characters. Decode never fails: any line whose markers
// do not balance degrades to literal text, and input without a single
// checkbox or marker comes back as one plain run.
func Decode(input string, def domain.StyleSet) *domain.Document {
	var segs []domain.Segment
	var pending []string

	flush := func() {
		segs = appendBlock(segs, pending, def)
		pending = pending[:0]
	}

	for _, line := range strings.Split(input, "\n") {
		if m := checkboxLine.FindStringSubmatch(line); m != nil {
			flush()
			segs = append(segs, domain.NewCheckbox(m[1] == "x", m[2]))
			continue
		}
		pending = append(pending, line)
	}
	flush()

	doc, err := domain.FromSegments(segs...)
	if err != nil {
		// Duplicate ids cannot occur with freshly generated checkboxes;
		// degrade to the raw input rather than failing.
		doc, _ = domain.FromSegments(domain.TextRun{Text: input, Style: def})
	}
	return doc
}

// appendBlock converts a block of non-checkbox lines into segments. Lines
// are rejoined with newlines; a newline between two lines whose adjacent
// styles agree inherits that style, otherwise it carries the default.
func appendBlock(segs []domain.Segment, lines []string, def domain.StyleSet) []domain.Segment {
	prevLast := def
	for i, line := range lines {
		lineSegs, first, last, ok := parseLine(line, def)
		if !ok {
			lineSegs = []domain.Segment{domain.TextRun{Text: line, Style: def}}
			first, last = def, def
		}
		if i > 0 {
			nlStyle := def
			if prevLast == first {
				nlStyle = first
			}
			segs = append(segs, domain.TextRun{Text: "\n", Style: nlStyle})
		}
		segs = append(segs, lineSegs...)
		prevLast = last
	}
	return segs
}

// markKind identifies what an open marker toggles.
type markKind int

const (
	markLink markKind = iota
	markStrike
	markUnderline
	markBoldItalic
)

type openMark struct {
	kind     markKind
	token    string
	segStart int // index of first segment inside a link scope
}

// lineParser is a strict-stack scanner over one line of markdown. It is the
// exact inverse of the encoder's marker discipline; anything that does not
// balance makes the whole line literal.
type lineParser struct {
	def   domain.StyleSet
	cur   domain.StyleSet
	stack []openMark
	buf   strings.Builder
	segs  []domain.Segment
	first *domain.StyleSet
	last  domain.StyleSet
}

// parseLine parses one line into styled segments. It reports the style of
// the first and last character for newline stitching, and ok == false when
// the line must be treated as literal text.
func parseLine(line string, def domain.StyleSet) ([]domain.Segment, domain.StyleSet, domain.StyleSet, bool) {
	p := &lineParser{def: def, cur: def, last: def}
	if !p.run(line) {
		return nil, def, def, false
	}
	p.flush()
	if len(p.stack) != 0 {
		return nil, def, def, false
	}
	first := def
	if p.first != nil {
		first = *p.first
	}
	return p.segs, first, p.last, true
}

func (p *lineParser) run(line string) bool {
	i := 0
	for i < len(line) {
		rest := line[i:]
		switch {
		case rest[0] == '\\':
			// Backslash escapes the next rune; a trailing backslash is
			// itself literal.
			if len(rest) == 1 {
				p.text(`\`)
				i++
				break
			}
			_, size := utf8.DecodeRuneInString(rest[1:])
			p.text(rest[1 : 1+size])
			i += 1 + size
		case strings.HasPrefix(rest, "***"), strings.HasPrefix(rest, "**"), strings.HasPrefix(rest, "*"):
			tok := "*"
			if strings.HasPrefix(rest, "***") {
				tok = "***"
			} else if strings.HasPrefix(rest, "**") {
				tok = "**"
			}
			p.toggle(markBoldItalic, tok)
			i += len(tok)
		case strings.HasPrefix(rest, "~~"):
			p.toggle(markStrike, "~~")
			i += 2
		case strings.HasPrefix(rest, "<u>"):
			p.open(markUnderline, "<u>")
			i += 3
		case strings.HasPrefix(rest, "</u>"):
			if !p.close(markUnderline) {
				return false
			}
			i += 4
		case strings.HasPrefix(rest, "]("):
			end := strings.IndexByte(rest, ')')
			if end < 0 || !p.closeLink(rest[2:end]) {
				return false
			}
			i += end + 1
		case rest[0] == '[':
			if p.linkOpen() {
				return false
			}
			p.flush()
			p.stack = append(p.stack, openMark{kind: markLink, token: "[", segStart: len(p.segs)})
			i++
		default:
			_, size := utf8.DecodeRuneInString(rest)
			p.text(rest[:size])
			i += size
		}
	}
	return true
}

// toggle closes the marker when it matches the top of the stack and opens it
// otherwise.
func (p *lineParser) toggle(kind markKind, token string) {
	if n := len(p.stack); n > 0 && p.stack[n-1].kind == kind && p.stack[n-1].token == token {
		p.flush()
		p.stack = p.stack[:n-1]
		p.recompute()
		return
	}
	p.open(kind, token)
}

func (p *lineParser) open(kind markKind, token string) {
	p.flush()
	p.stack = append(p.stack, openMark{kind: kind, token: token})
	p.recompute()
}

func (p *lineParser) close(kind markKind) bool {
	n := len(p.stack)
	if n == 0 || p.stack[n-1].kind != kind {
		return false
	}
	p.flush()
	p.stack = p.stack[:n-1]
	p.recompute()
	return true
}

// closeLink pops the link scope and patches the URL onto every segment
// produced inside it; the URL is only known at the closing marker.
func (p *lineParser) closeLink(url string) bool {
	n := len(p.stack)
	if n == 0 || p.stack[n-1].kind != markLink {
		return false
	}
	p.flush()
	start := p.stack[n-1].segStart
	for idx := start; idx < len(p.segs); idx++ {
		if run, ok := p.segs[idx].(domain.TextRun); ok {
			run.Style.Link = url
			p.segs[idx] = run
		}
	}
	if p.first != nil && start == 0 {
		f := p.segs[0].(domain.TextRun).Style
		p.first = &f
	}
	p.last.Link = url
	p.stack = p.stack[:n-1]
	p.recompute()
	return true
}

func (p *lineParser) linkOpen() bool {
	for _, m := range p.stack {
		if m.kind == markLink {
			return true
		}
	}
	return false
}

func (p *lineParser) recompute() {
	s := p.def
	for _, m := range p.stack {
		switch m.kind {
		case markStrike:
			s.Strikethrough = true
		case markUnderline:
			s.Underline = true
		case markBoldItalic:
			switch m.token {
			case "***":
				s.Bold, s.Italic = true, true
			case "**":
				s.Bold = true
			case "*":
				s.Italic = true
			}
		}
	}
	p.cur = s
}

func (p *lineParser) text(chunk string) {
	if p.first == nil {
		style := p.cur
		p.first = &style
	}
	p.last = p.cur
	p.buf.WriteString(chunk)
}

func (p *lineParser) flush() {
	if p.buf.Len() == 0 {
		return
	}
	p.segs = append(p.segs, domain.TextRun{Text: p.buf.String(), Style: p.cur})
	p.buf.Reset()
}
