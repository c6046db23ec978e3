// Package editor implements the keystroke-driven structural editing engine:
// list auto-conversion, continuation, indent/outdent and bullet deletion over
// a rich-text document, plus the formatting toggles applied over a selection.
// The engine is a pure function of (document, caret, selection); it carries
// no hidden state between keystrokes and is independent of any rendering
// surface or input-event delivery mechanism.
package editor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hylla/anteck/internal/domain"
)

// Key identifies the keys the structural rule chain inspects. Anything else
// reaches the engine as KeyRune and takes the default insertion path.
type Key int

const (
	KeyRune Key = iota
	KeySpace
	KeyEnter
	KeyBackspace
	KeyTab
	KeyShiftTab
)

// KeyEvent is one raw key press. Rune is only meaningful for KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// Bullet is the marker auto-list conversion produces from a leading "-" or
// "*". Offsets count runes, so the marker occupies two slots.
const (
	Bullet        = "• "
	bulletRuneLen = 2
)

var (
	bulletLine   = regexp.MustCompile(`^(\s*)• (.*)$`)
	numberedLine = regexp.MustCompile(`^(\s*)(\d+)\. (.*)$`)
	bareNumber   = regexp.MustCompile(`^\d+\.$`)
)

// Option configures an engine.
type Option func(*Engine)

// WithEditNotifier registers a callback fired on every document mutation the
// engine performs; the host uses it to open an edit session and suppress
// external reloads while typing.
func WithEditNotifier(fn func()) Option {
	return func(e *Engine) {
		e.onEdit = fn
	}
}

// WithAutoList enables or disables the space-triggered conversion of "-",
// "*" and "N." prefixes into list markers. Continuation and deletion of
// markers that already exist stay active either way.
func WithAutoList(enabled bool) Option {
	return func(e *Engine) {
		e.autoList = enabled
	}
}

// WithIndentWidth sets how many spaces Tab and Shift-Tab move a list line
// by. Widths below one keep the default of two.
func WithIndentWidth(width int) Option {
	return func(e *Engine) {
		if width >= 1 {
			e.indent = strings.Repeat(" ", width)
		}
	}
}

// Engine applies key events against a document and a cursor/selection.
type Engine struct {
	doc      *domain.Document
	caret    int
	sel      domain.Range
	onEdit   func()
	autoList bool
	indent   string
}

// New constructs an engine over the given document with the caret at the
// start.
func New(doc *domain.Document, opts ...Option) *Engine {
	e := &Engine{doc: doc, autoList: true, indent: "  "}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Caret returns the current caret offset.
func (e *Engine) Caret() int { return e.caret }

// SetCaret moves the caret, clamped to the document, and clears the
// selection.
func (e *Engine) SetCaret(at int) {
	e.caret = clamp(at, 0, e.doc.Len())
	e.sel = domain.Range{Start: e.caret, End: e.caret}
}

// Selection returns the active selection; empty when nothing is selected.
func (e *Engine) Selection() domain.Range { return e.sel }

// SetSelection sets the active selection, clamped to the document. The caret
// follows the selection end.
func (e *Engine) SetSelection(r domain.Range) {
	r.Start = clamp(r.Start, 0, e.doc.Len())
	r.End = clamp(r.End, r.Start, e.doc.Len())
	e.sel = r
	e.caret = r.End
}

// HandleKey applies one key event. It reports whether a structural rule or
// default edit consumed the key; an unconsumed Tab is left to the host.
func (e *Engine) HandleKey(ev KeyEvent) (bool, error) {
	switch ev.Key {
	case KeySpace:
		return e.handleSpace()
	case KeyEnter:
		return e.handleEnter()
	case KeyBackspace:
		return e.handleBackspace()
	case KeyTab:
		return e.handleTab()
	case KeyShiftTab:
		return e.handleShiftTab()
	default:
		if ev.Rune == 0 {
			return false, nil
		}
		return true, e.insertText(string(ev.Rune))
	}
}

// handleSpace converts a lone "-" or "*" at line start into a bullet and
// gives a bare "N." its trailing space; anything else is a plain space.
// Conversion is skipped entirely when auto-list is off.
func (e *Engine) handleSpace() (bool, error) {
	if e.autoList && e.sel.IsEmpty() {
		start, line := e.currentLine()
		prefix := string(line[:e.caret-start])
		if prefix == "-" || prefix == "*" {
			if err := e.replace(domain.Range{Start: start, End: e.caret}, Bullet); err != nil {
				return true, err
			}
			return true, nil
		}
		if bareNumber.MatchString(prefix) {
			return true, e.insertText(" ")
		}
	}
	return true, e.insertText(" ")
}

// handleEnter continues bullet and numbered lists, exits them on an empty
// item, and otherwise breaks the line.
func (e *Engine) handleEnter() (bool, error) {
	if !e.sel.IsEmpty() {
		return true, e.insertText("\n")
	}
	start, line := e.currentLine()
	text := string(line)

	if m := bulletLine.FindStringSubmatch(text); m != nil {
		indent, content := m[1], m[2]
		if strings.TrimSpace(content) == "" {
			return true, e.exitList(start, len(indent), bulletRuneLen)
		}
		return true, e.insertText("\n" + indent + Bullet)
	}
	if m := numberedLine.FindStringSubmatch(text); m != nil {
		indent, digits, content := m[1], m[2], m[3]
		markerLen := len(digits) + 2
		if strings.TrimSpace(content) == "" {
			return true, e.exitList(start, len(indent), markerLen)
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return true, e.insertText("\n")
		}
		return true, e.insertText("\n" + indent + strconv.Itoa(n+1) + ". ")
	}
	return true, e.insertText("\n")
}

// exitList deletes the empty item's marker and performs a plain newline.
func (e *Engine) exitList(lineStart, indentLen, markerLen int) error {
	markerStart := lineStart + indentLen
	if err := e.doc.Remove(domain.Range{Start: markerStart, End: markerStart + markerLen}); err != nil {
		return err
	}
	if e.caret >= markerStart+markerLen {
		e.caret -= markerLen
	} else if e.caret > markerStart {
		e.caret = markerStart
	}
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return e.insertText("\n")
}

// handleBackspace deletes just the list marker when the caret sits at its
// end, keeping the indentation; otherwise it is an ordinary delete.
func (e *Engine) handleBackspace() (bool, error) {
	if !e.sel.IsEmpty() {
		return true, e.deleteSelection()
	}
	start, line := e.currentLine()
	text := string(line)

	if m := bulletLine.FindStringSubmatch(text); m != nil {
		markerStart := start + len(m[1])
		if e.caret == markerStart+bulletRuneLen {
			return true, e.removeMarker(markerStart, bulletRuneLen)
		}
	}
	if m := numberedLine.FindStringSubmatch(text); m != nil {
		markerStart := start + len(m[1])
		markerLen := len(m[2]) + 2
		if e.caret == markerStart+markerLen {
			return true, e.removeMarker(markerStart, markerLen)
		}
	}
	if e.caret == 0 {
		return true, nil
	}
	if err := e.doc.Remove(domain.Range{Start: e.caret - 1, End: e.caret}); err != nil {
		return true, err
	}
	e.caret--
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return true, nil
}

func (e *Engine) removeMarker(markerStart, markerLen int) error {
	if err := e.doc.Remove(domain.Range{Start: markerStart, End: markerStart + markerLen}); err != nil {
		return err
	}
	e.caret = markerStart
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return nil
}

// handleTab indents a list line by the configured indent width. Non-list
// lines are left to the host.
func (e *Engine) handleTab() (bool, error) {
	start, line := e.currentLine()
	text := string(line)
	if !bulletLine.MatchString(text) && !numberedLine.MatchString(text) {
		return false, nil
	}
	if err := e.doc.InsertText(start, e.indent, domain.StyleSet{}); err != nil {
		return true, err
	}
	e.caret += len(e.indent)
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return true, nil
}

// handleShiftTab removes one indent step of leading spaces from the current
// line, clamping the caret to the line start. A line indented by less than a
// full step is left alone.
func (e *Engine) handleShiftTab() (bool, error) {
	start, line := e.currentLine()
	width := len(e.indent)
	if len(line) < width {
		return true, nil
	}
	for i := 0; i < width; i++ {
		if line[i] != ' ' {
			return true, nil
		}
	}
	if err := e.doc.Remove(domain.Range{Start: start, End: start + width}); err != nil {
		return true, err
	}
	e.caret = clamp(e.caret-width, start, e.doc.Len())
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return true, nil
}

// ToggleBold toggles bold across the selection.
func (e *Engine) ToggleBold() error { return e.toggleAttr(domain.AttrBold) }

// ToggleItalic toggles italic across the selection.
func (e *Engine) ToggleItalic() error { return e.toggleAttr(domain.AttrItalic) }

// ToggleUnderline toggles underline across the selection.
func (e *Engine) ToggleUnderline() error { return e.toggleAttr(domain.AttrUnderline) }

// ToggleStrikethrough toggles strikethrough across the selection.
func (e *Engine) ToggleStrikethrough() error { return e.toggleAttr(domain.AttrStrikethrough) }

// toggleAttr applies XOR-by-selection-start semantics: the attribute state
// at the start of the selection decides whether the whole range gains or
// loses it. An empty selection is a no-op.
func (e *Engine) toggleAttr(attr domain.Attribute) error {
	if e.sel.IsEmpty() {
		return nil
	}
	enabled := !e.doc.StyleAt(e.sel.Start).Has(attr)
	if err := e.doc.ApplyStyle(e.sel, attr, enabled); err != nil {
		return err
	}
	e.mutated()
	return nil
}

// InsertLink links the selection to the URL, or clears an existing link when
// the selection start already carries one. On an empty selection it inserts
// the display text (falling back to the URL) as new linked text at the
// caret.
func (e *Engine) InsertLink(url, display string) error {
	if e.sel.IsEmpty() {
		if display == "" {
			display = url
		}
		if display == "" {
			return nil
		}
		style := e.doc.AttributesAt(e.caret)
		style.Link = url
		if err := e.doc.InsertText(e.caret, display, style); err != nil {
			return err
		}
		e.caret += utf8.RuneCountInString(display)
		e.sel = domain.Range{Start: e.caret, End: e.caret}
		e.mutated()
		return nil
	}
	target := url
	if e.doc.StyleAt(e.sel.Start).Link != "" {
		target = ""
	}
	if err := e.doc.ApplyLink(e.sel, target); err != nil {
		return err
	}
	e.mutated()
	return nil
}

// insertText replaces the selection (or inserts at the caret) with text that
// inherits the style immediately left of the insertion point.
func (e *Engine) insertText(text string) error {
	return e.replace(e.sel, text)
}

// replace is the shared edit primitive: remove the range, insert the text
// with the inherited style, and place the caret after it.
func (e *Engine) replace(r domain.Range, text string) error {
	style := e.doc.AttributesAt(r.Start)
	var segs []domain.Segment
	if text != "" {
		segs = append(segs, domain.TextRun{Text: text, Style: style})
	}
	if r.IsEmpty() {
		r = domain.Range{Start: e.caret, End: e.caret}
	}
	if err := e.doc.Replace(r, segs...); err != nil {
		return err
	}
	e.caret = r.Start + utf8.RuneCountInString(text)
	e.sel = domain.Range{Start: e.caret, End: e.caret}
	e.mutated()
	return nil
}

func (e *Engine) deleteSelection() error {
	return e.replace(e.sel, "")
}

func (e *Engine) mutated() {
	if e.onEdit != nil {
		e.onEdit()
	}
}

// currentLine returns the start offset and content of the line containing
// the caret, without its terminating newline.
func (e *Engine) currentLine() (int, []rune) {
	runes := []rune(e.doc.String())
	start := e.caret
	for start > 0 && runes[start-1] != '\n' {
		start--
	}
	end := e.caret
	for end < len(runes) && runes[end] != '\n' {
		end++
	}
	return start, runes[start:end]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
