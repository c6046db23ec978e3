package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Segment is one element of a document's ordered content list: either a
// TextRun or an inline element such as *Checkbox. Length is measured in
// caret slots; an inline element always occupies exactly one.
type Segment interface {
	Length() int
}

// TextRun is a span of text carrying a single uniform style.
type TextRun struct {
	Text  string
	Style StyleSet
}

// Length returns the run's length in runes.
func (r TextRun) Length() int {
	return utf8.RuneCountInString(r.Text)
}

// Checkbox is a typed, identity-bearing inline element embedded among text
// runs. Its checked state is the only externally mutable part; flipping it
// notifies the owning document so the host can persist.
type Checkbox struct {
	id      string
	checked bool
	label   string

	onChange func(*Checkbox)
}

// NewCheckbox constructs a checkbox with a fresh identity.
func NewCheckbox(checked bool, label string) *Checkbox {
	return &Checkbox{
		id:      uuid.NewString(),
		checked: checked,
		label:   strings.TrimRight(label, "\n"),
	}
}

// RestoreCheckbox reconstructs a checkbox with a known identity, as done by
// the archive codec during decode. An empty id gets a fresh one.
func RestoreCheckbox(id string, checked bool, label string) *Checkbox {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return &Checkbox{id: id, checked: checked, label: label}
}

// Length implements Segment. A checkbox occupies one caret slot.
func (c *Checkbox) Length() int { return 1 }

// ID returns the stable identity of the checkbox.
func (c *Checkbox) ID() string { return c.id }

// Checked reports the current state.
func (c *Checkbox) Checked() bool { return c.checked }

// Label returns the label text, possibly empty.
func (c *Checkbox) Label() string { return c.label }

// SetLabel replaces the label without firing a change notification; label
// edits flow through the document edit path instead.
func (c *Checkbox) SetLabel(label string) {
	c.label = label
}

// SetChecked sets the state and fires the change notification when the value
// actually flips.
func (c *Checkbox) SetChecked(checked bool) {
	if c.checked == checked {
		return
	}
	c.checked = checked
	if c.onChange != nil {
		c.onChange(c)
	}
}

// Toggle flips the checked state.
func (c *Checkbox) Toggle() {
	c.SetChecked(!c.checked)
}
