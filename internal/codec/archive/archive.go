// Package archive implements the binary persisted representation of a
// rich-text document. The container carries native type bytes for every
// segment, and every inline element additionally embeds a format-independent
// JSON tag blob. Decode trusts the native typing first and then runs a
// restoration pass that re-materializes anything that came back generic,
// so a concrete element never silently degrades into a placeholder.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hylla/anteck/internal/domain"
)

// ErrCorrupt marks a byte stream that could not be parsed. Callers receive
// an empty document alongside it and keep editing on that.
var ErrCorrupt = errors.New("corrupt archive")

var magic = [4]byte{'A', 'N', 'T', '1'}

const version = 0x01

const (
	kindTextRun = 0x01
	kindInline  = 0x02
)

const (
	elemGeneric  = 0x00
	elemCheckbox = 0x01
)

const (
	flagBold = 1 << iota
	flagItalic
	flagUnderline
	flagStrikethrough
)

// inlineTag is the embedded discriminator blob written for every inline
// element, independent of the container's native typing.
type inlineTag struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
	Label   string `json:"label"`
}

// Report summarizes the restoration pass of a decode.
type Report struct {
	Segments int
	Restored int
	Dropped  int
}

// Encode serializes the document's full segment list, including inline
// element identity, to the archive form.
func Encode(d *domain.Document) ([]byte, error) {
	segs := d.Segments()
	buf := append([]byte{}, magic[:]...)
	buf = append(buf, version)
	buf = binary.AppendUvarint(buf, uint64(len(segs)))

	for _, seg := range segs {
		switch s := seg.(type) {
		case domain.TextRun:
			buf = append(buf, kindTextRun)
			buf = append(buf, styleFlags(s.Style))
			buf = appendString(buf, s.Style.Link)
			buf = appendString(buf, s.Text)
		case *domain.Checkbox:
			tag, err := json.Marshal(inlineTag{
				Type:    "checkbox",
				ID:      s.ID(),
				Checked: s.Checked(),
				Label:   s.Label(),
			})
			if err != nil {
				return nil, fmt.Errorf("encode inline tag: %w", err)
			}
			var payload []byte
			payload = appendString(payload, s.ID())
			payload = append(payload, boolByte(s.Checked()))
			payload = appendString(payload, s.Label())

			buf = append(buf, kindInline, elemCheckbox)
			buf = binary.AppendUvarint(buf, uint64(len(payload)))
			buf = append(buf, payload...)
			buf = appendBytes(buf, tag)
		default:
			return nil, fmt.Errorf("encode: unsupported segment %T", seg)
		}
	}
	return buf, nil
}

// Decode reconstructs a document from archive bytes. It never propagates a
// hard failure: a corrupt stream yields a valid empty document plus an error
// for diagnostics, and inline elements that cannot be restored to a concrete
// type are dropped with the surrounding text preserved.
func Decode(data []byte) (*domain.Document, error) {
	doc, _, err := DecodeWithReport(data)
	return doc, err
}

// DecodeWithReport is Decode plus restoration statistics.
func DecodeWithReport(data []byte) (*domain.Document, Report, error) {
	doc, report, err := decode(data)
	if err != nil {
		return domain.NewDocument(), report, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, report, nil
}

func decode(data []byte) (*domain.Document, Report, error) {
	var report Report
	r := &reader{buf: data}

	var m [4]byte
	head, err := r.bytes(4)
	if err != nil {
		return nil, report, err
	}
	copy(m[:], head)
	if m != magic {
		return nil, report, errors.New("bad magic")
	}
	v, err := r.byte()
	if err != nil {
		return nil, report, err
	}
	if v != version {
		return nil, report, fmt.Errorf("unsupported version %d", v)
	}

	count, err := r.uvarint()
	if err != nil {
		return nil, report, err
	}
	if count > uint64(len(data)) {
		return nil, report, errors.New("segment count exceeds payload")
	}

	// Phase one: walk the container trusting its native typing. Slots whose
	// element type byte is not recognized become raw slots carrying only
	// their tag blob.
	type slot struct {
		seg domain.Segment
		tag []byte
	}
	slots := make([]slot, 0, count)
	for range count {
		kind, err := r.byte()
		if err != nil {
			return nil, report, err
		}
		switch kind {
		case kindTextRun:
			flags, err := r.byte()
			if err != nil {
				return nil, report, err
			}
			link, err := r.string()
			if err != nil {
				return nil, report, err
			}
			text, err := r.string()
			if err != nil {
				return nil, report, err
			}
			style := styleFromFlags(flags)
			style.Link = link
			slots = append(slots, slot{seg: domain.TextRun{Text: text, Style: style}})
		case kindInline:
			elemType, err := r.byte()
			if err != nil {
				return nil, report, err
			}
			payloadLen, err := r.uvarint()
			if err != nil {
				return nil, report, err
			}
			payload, err := r.bytes(int(payloadLen))
			if err != nil {
				return nil, report, err
			}
			tag, err := r.rawString()
			if err != nil {
				return nil, report, err
			}
			if elemType == elemCheckbox {
				cb, err := decodeCheckboxPayload(payload)
				if err != nil {
					return nil, report, fmt.Errorf("checkbox payload: %w", err)
				}
				slots = append(slots, slot{seg: cb, tag: tag})
				continue
			}
			slots = append(slots, slot{tag: tag})
		default:
			return nil, report, fmt.Errorf("unknown segment kind 0x%02x", kind)
		}
	}
	if r.remaining() != 0 {
		return nil, report, fmt.Errorf("%d trailing bytes", r.remaining())
	}
	report.Segments = len(slots)

	// Phase two: restoration pass. Any slot that decoded without a concrete
	// element is re-materialized from its embedded tag; unrestorable slots
	// are dropped rather than aborting the decode.
	segs := make([]domain.Segment, 0, len(slots))
	for _, s := range slots {
		if s.seg != nil {
			segs = append(segs, s.seg)
			continue
		}
		cb, ok := restoreFromTag(s.tag)
		if !ok {
			report.Dropped++
			continue
		}
		report.Restored++
		segs = append(segs, cb)
	}

	doc, err := domain.FromSegments(segs...)
	if err != nil {
		return nil, report, fmt.Errorf("rebuild document: %w", err)
	}
	return doc, report, nil
}

// restoreFromTag rebuilds a concrete inline element from the embedded
// discriminator blob.
func restoreFromTag(tag []byte) (*domain.Checkbox, bool) {
	if len(tag) == 0 {
		return nil, false
	}
	var t inlineTag
	if err := json.Unmarshal(tag, &t); err != nil {
		return nil, false
	}
	if t.Type != "checkbox" {
		return nil, false
	}
	return domain.RestoreCheckbox(t.ID, t.Checked, t.Label), true
}

func decodeCheckboxPayload(payload []byte) (*domain.Checkbox, error) {
	r := &reader{buf: payload}
	id, err := r.string()
	if err != nil {
		return nil, err
	}
	checked, err := r.byte()
	if err != nil {
		return nil, err
	}
	label, err := r.string()
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errors.New("trailing payload bytes")
	}
	return domain.RestoreCheckbox(id, checked != 0, label), nil
}

func styleFlags(s domain.StyleSet) byte {
	var f byte
	if s.Bold {
		f |= flagBold
	}
	if s.Italic {
		f |= flagItalic
	}
	if s.Underline {
		f |= flagUnderline
	}
	if s.Strikethrough {
		f |= flagStrikethrough
	}
	return f
}

func styleFromFlags(f byte) domain.StyleSet {
	return domain.StyleSet{
		Bold:          f&flagBold != 0,
		Italic:        f&flagItalic != 0,
		Underline:     f&flagUnderline != 0,
		Strikethrough: f&flagStrikethrough != 0,
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

// reader is a bounds-checked cursor over the archive bytes.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errors.New("unexpected end of archive")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errors.New("unexpected end of archive")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, errors.New("bad varint")
	}
	r.off += n
	return v, nil
}

func (r *reader) string() (string, error) {
	b, err := r.rawString()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) rawString() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.remaining()) {
		return nil, errors.New("string length exceeds payload")
	}
	return r.bytes(int(n))
}
