package domain

import (
	"iter"
	"strings"
)

// ObjectReplacement is the rune an inline element occupies in the flattened
// text. Offsets over a document count it as a single slot.
const ObjectReplacement = '￼'

// Range is a half-open character range [Start, End) over a document's
// flattened visible text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of character slots covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool { return r.Len() <= 0 }

// Contains reports whether the range fully contains the other range.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// ChangeKind classifies document change notifications.
type ChangeKind int

// ChangeEdit covers text and structure mutations; ChangeToggle covers an
// inline checkbox flipping state.
const (
	ChangeEdit ChangeKind = iota
	ChangeToggle
)

// CheckboxInfo is one entry of the checkbox enumeration: identity, state and
// the slot the element occupies.
type CheckboxInfo struct {
	ID      string
	Checked bool
	Label   string
	Range   Range
}

// Document is an ordered sequence of style-tagged text runs and embedded
// inline elements. It is mutated in place by the editing engine and observed
// by the owning host; it never outlives the task record that owns it.
type Document struct {
	segments []Segment
	observer func(ChangeKind)
}

// NewDocument constructs an empty document.
func NewDocument() *Document {
	return &Document{}
}

// FromSegments constructs a document from the given segments. Checkbox ids
// must be unique; empty text runs are dropped.
func FromSegments(segs ...Segment) (*Document, error) {
	d := NewDocument()
	if err := d.Replace(Range{}, segs...); err != nil {
		return nil, err
	}
	return d, nil
}

// SetObserver registers the single change callback for this document,
// replacing any previous one. The callback is scoped to this instance; there
// is no global notification bus.
func (d *Document) SetObserver(fn func(ChangeKind)) {
	d.observer = fn
}

// Len returns the total number of character slots, counting each inline
// element as one.
func (d *Document) Len() int {
	n := 0
	for _, seg := range d.segments {
		n += seg.Length()
	}
	return n
}

// Segments returns a copy of the segment list. Text runs are values; inline
// elements are shared pointers.
func (d *Document) Segments() []Segment {
	out := make([]Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

// String returns the flattened visible text with ObjectReplacement standing
// in for inline elements.
func (d *Document) String() string {
	var b strings.Builder
	for _, seg := range d.segments {
		switch s := seg.(type) {
		case TextRun:
			b.WriteString(s.Text)
		case *Checkbox:
			b.WriteRune(ObjectReplacement)
		}
	}
	return b.String()
}

// Insert inserts a single segment at a character offset.
func (d *Document) Insert(at int, seg Segment) error {
	return d.Replace(Range{Start: at, End: at}, seg)
}

// InsertText inserts styled text at a character offset.
func (d *Document) InsertText(at int, text string, style StyleSet) error {
	if text == "" {
		return nil
	}
	return d.Insert(at, TextRun{Text: text, Style: style})
}

// Remove removes the content in the given range. An inline element fully
// contained in the range leaves the document and its id becomes unknown.
func (d *Document) Remove(r Range) error {
	return d.Replace(r)
}

// Replace atomically removes the range and inserts the given segments in its
// place. All structural edits go through here so persistence never observes
// an intermediate state: validation happens up front and a single change
// notification fires at the end.
func (d *Document) Replace(r Range, segs ...Segment) error {
	if err := d.checkRange(r); err != nil {
		return err
	}
	d.splitAt(r.End)
	i := d.splitAt(r.Start)
	j := i
	for span := r.Len(); span > 0; j++ {
		span -= d.segments[j].Length()
	}

	if err := d.checkIncomingIDs(i, j, segs); err != nil {
		return err
	}

	for _, seg := range d.segments[i:j] {
		if cb, ok := seg.(*Checkbox); ok {
			cb.onChange = nil
		}
	}
	insert := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if run, ok := seg.(TextRun); ok && run.Text == "" {
			continue
		}
		if cb, ok := seg.(*Checkbox); ok {
			d.adopt(cb)
		}
		insert = append(insert, seg)
	}

	if i == j && len(insert) == 0 {
		return nil
	}
	tail := append(insert, d.segments[j:]...)
	d.segments = append(d.segments[:i], tail...)
	d.Normalize()
	d.notify(ChangeEdit)
	return nil
}

// AttributesAt returns the effective style at a caret position: the style of
// the character immediately to the left, or a neutral default at the start of
// the document and straight after an inline element. Newly typed text
// inherits this.
func (d *Document) AttributesAt(at int) StyleSet {
	if at <= 0 {
		return StyleSet{}
	}
	if run, ok := d.segmentAt(at - 1).(TextRun); ok {
		return run.Style
	}
	return StyleSet{}
}

// StyleAt returns the style of the character at the given offset, or a
// neutral default for inline elements and out-of-range offsets.
func (d *Document) StyleAt(at int) StyleSet {
	if run, ok := d.segmentAt(at).(TextRun); ok {
		return run.Style
	}
	return StyleSet{}
}

// ApplyStyle toggles a single boolean style attribute across all text runs
// intersecting the range, splitting runs at the range boundaries. Inline
// elements inside the range are untouched.
func (d *Document) ApplyStyle(r Range, attr Attribute, enabled bool) error {
	return d.restyle(r, func(s *StyleSet) {
		*s = s.With(attr, enabled)
	})
}

// ApplyLink sets or clears (url == "") the link attribute across the range.
func (d *Document) ApplyLink(r Range, url string) error {
	return d.restyle(r, func(s *StyleSet) {
		s.Link = url
	})
}

func (d *Document) restyle(r Range, mutate func(*StyleSet)) error {
	if err := d.checkRange(r); err != nil {
		return err
	}
	if r.IsEmpty() {
		return nil
	}
	d.splitAt(r.End)
	i := d.splitAt(r.Start)
	for span := r.Len(); span > 0; i++ {
		seg := d.segments[i]
		span -= seg.Length()
		run, ok := seg.(TextRun)
		if !ok {
			continue
		}
		mutate(&run.Style)
		d.segments[i] = run
	}
	d.Normalize()
	d.notify(ChangeEdit)
	return nil
}

// Checkboxes returns a lazy, restartable enumeration of the document's
// checkboxes in document order, with the slot each one occupies.
func (d *Document) Checkboxes() iter.Seq[CheckboxInfo] {
	return func(yield func(CheckboxInfo) bool) {
		pos := 0
		for _, seg := range d.segments {
			if cb, ok := seg.(*Checkbox); ok {
				info := CheckboxInfo{
					ID:      cb.id,
					Checked: cb.checked,
					Label:   cb.label,
					Range:   Range{Start: pos, End: pos + 1},
				}
				if !yield(info) {
					return
				}
			}
			pos += seg.Length()
		}
	}
}

// CheckboxByID returns the live checkbox with the given id. Ids removed from
// the document are unknown, not silently ignored.
func (d *Document) CheckboxByID(id string) (*Checkbox, error) {
	for _, seg := range d.segments {
		if cb, ok := seg.(*Checkbox); ok && cb.id == id {
			return cb, nil
		}
	}
	return nil, ErrUnknownCheckbox
}

// ToggleCheckbox flips the state of the checkbox with the given id, firing
// the document's change notification.
func (d *Document) ToggleCheckbox(id string) error {
	cb, err := d.CheckboxByID(id)
	if err != nil {
		return err
	}
	cb.Toggle()
	return nil
}

// Progress returns the checked and total checkbox counts, as shown by the
// host's progress indicator.
func (d *Document) Progress() (checked, total int) {
	for info := range d.Checkboxes() {
		total++
		if info.Checked {
			checked++
		}
	}
	return checked, total
}

// Normalize merges adjacent text runs with identical styles and drops empty
// runs. The codecs' round trips rely on documents being in this form.
func (d *Document) Normalize() {
	out := d.segments[:0]
	for _, seg := range d.segments {
		run, ok := seg.(TextRun)
		if !ok {
			out = append(out, seg)
			continue
		}
		if run.Text == "" {
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(TextRun); ok && prev.Style == run.Style {
				prev.Text += run.Text
				out[len(out)-1] = prev
				continue
			}
		}
		out = append(out, seg)
	}
	d.segments = out
}

func (d *Document) adopt(cb *Checkbox) {
	cb.onChange = func(*Checkbox) {
		d.notify(ChangeToggle)
	}
}

func (d *Document) notify(kind ChangeKind) {
	if d.observer != nil {
		d.observer(kind)
	}
}

func (d *Document) checkRange(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > d.Len() {
		return ErrInvalidRange
	}
	return nil
}

// checkIncomingIDs rejects segment lists that would leave two checkboxes with
// the same id in the document once segments [i:j) are replaced.
func (d *Document) checkIncomingIDs(i, j int, segs []Segment) error {
	seen := map[string]struct{}{}
	for idx, seg := range d.segments {
		if idx >= i && idx < j {
			continue
		}
		if cb, ok := seg.(*Checkbox); ok {
			seen[cb.id] = struct{}{}
		}
	}
	for _, seg := range segs {
		cb, ok := seg.(*Checkbox)
		if !ok {
			continue
		}
		if _, dup := seen[cb.id]; dup {
			return ErrDuplicateID
		}
		seen[cb.id] = struct{}{}
	}
	return nil
}

// segmentAt returns the segment containing the character at the offset, or
// nil when out of range.
func (d *Document) segmentAt(at int) Segment {
	if at < 0 {
		return nil
	}
	pos := 0
	for _, seg := range d.segments {
		n := seg.Length()
		if at < pos+n {
			return seg
		}
		pos += n
	}
	return nil
}

// splitAt ensures a segment boundary at the given offset and returns the
// index of the first segment at or after it, splitting a text run when the
// offset falls inside one.
func (d *Document) splitAt(at int) int {
	pos := 0
	for i := 0; i < len(d.segments); i++ {
		if at == pos {
			return i
		}
		n := d.segments[i].Length()
		if at < pos+n {
			run := d.segments[i].(TextRun)
			cut := byteOffset(run.Text, at-pos)
			left := TextRun{Text: run.Text[:cut], Style: run.Style}
			right := TextRun{Text: run.Text[cut:], Style: run.Style}
			rest := append([]Segment{left, right}, d.segments[i+1:]...)
			d.segments = append(d.segments[:i], rest...)
			return i + 1
		}
		pos += n
	}
	return len(d.segments)
}

// byteOffset converts a rune count into a byte offset within s.
func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}
