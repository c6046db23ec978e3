package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hylla/anteck/internal/domain"
)

func sampleDocument(t *testing.T) *domain.Document {
	t.Helper()
	d, err := domain.FromSegments(
		domain.TextRun{Text: "shopping\n", Style: domain.StyleSet{Bold: true}},
		domain.RestoreCheckbox("c-milk", false, "milk"),
		domain.TextRun{Text: "\n"},
		domain.RestoreCheckbox("c-eggs", true, "eggs"),
		domain.TextRun{Text: "\nsee "},
		domain.TextRun{Text: "the list", Style: domain.StyleSet{Italic: true, Link: "https://example.com/l"}},
	)
	if err != nil {
		t.Fatalf("FromSegments() error = %v", err)
	}
	return d
}

func TestArchiveRoundTripPreservesIdentity(t *testing.T) {
	d := sampleDocument(t)
	encoded, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got, want := decoded.String(), d.String(); got != want {
		t.Fatalf("text mismatch: got %q want %q", got, want)
	}

	var got []domain.CheckboxInfo
	for info := range decoded.Checkboxes() {
		got = append(got, info)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 checkboxes, got %d", len(got))
	}
	if got[0].ID != "c-milk" || got[0].Checked || got[0].Label != "milk" {
		t.Fatalf("first checkbox did not survive: %+v", got[0])
	}
	if got[1].ID != "c-eggs" || !got[1].Checked || got[1].Label != "eggs" {
		t.Fatalf("second checkbox did not survive: %+v", got[1])
	}

	// Style spans must match segment for segment.
	want := d.Segments()
	segs := decoded.Segments()
	if len(segs) != len(want) {
		t.Fatalf("segment count mismatch: got %d want %d", len(segs), len(want))
	}
	for i := range segs {
		wr, wok := want[i].(domain.TextRun)
		gr, gok := segs[i].(domain.TextRun)
		if wok != gok {
			t.Fatalf("segment %d kind mismatch", i)
		}
		if wok && (gr.Text != wr.Text || gr.Style != wr.Style) {
			t.Fatalf("segment %d mismatch: got %+v want %+v", i, gr, wr)
		}
	}
}

func TestArchiveDecodedCheckboxStaysInteractive(t *testing.T) {
	encoded, err := Encode(sampleDocument(t))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var toggled bool
	decoded.SetObserver(func(kind domain.ChangeKind) {
		if kind == domain.ChangeToggle {
			toggled = true
		}
	})
	if err := decoded.ToggleCheckbox("c-milk"); err != nil {
		t.Fatalf("ToggleCheckbox() error = %v", err)
	}
	if !toggled {
		t.Fatal("decoded checkbox lost its change notification")
	}
}

func TestArchiveCorruptDataYieldsEmptyDocument(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":       nil,
		"garbage":     []byte("not an archive"),
		"bad magic":   []byte("XXXX\x01\x00"),
		"truncated":   {'A', 'N', 'T', '1', 0x01, 0x05, 0x01},
		"bad version": {'A', 'N', 'T', '1', 0x09, 0x00},
	} {
		doc, err := Decode(data)
		if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
		if doc == nil || doc.Len() != 0 {
			t.Fatalf("%s: expected a valid empty document", name)
		}
	}
}

func TestArchiveRestorationPassRepairsGenericSlot(t *testing.T) {
	// Build an archive whose inline slot carries an unrecognized element
	// type byte but a healthy embedded tag, as native typing loss would
	// leave it.
	buf := []byte{'A', 'N', 'T', '1', 0x01}
	buf = binary.AppendUvarint(buf, 1)
	buf = append(buf, kindInline, elemGeneric)
	buf = binary.AppendUvarint(buf, 0) // no native payload
	tag := []byte(`{"type":"checkbox","id":"c9","checked":true,"label":"call mom"}`)
	buf = binary.AppendUvarint(buf, uint64(len(tag)))
	buf = append(buf, tag...)

	doc, report, err := DecodeWithReport(buf)
	if err != nil {
		t.Fatalf("DecodeWithReport() error = %v", err)
	}
	if report.Restored != 1 || report.Dropped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	cb, err := doc.CheckboxByID("c9")
	if err != nil {
		t.Fatalf("restored checkbox missing: %v", err)
	}
	if !cb.Checked() || cb.Label() != "call mom" {
		t.Fatalf("restored checkbox lost state: checked=%t label=%q", cb.Checked(), cb.Label())
	}
}

func TestArchiveUnrestorableSlotIsDroppedTextPreserved(t *testing.T) {
	buf := []byte{'A', 'N', 'T', '1', 0x01}
	buf = binary.AppendUvarint(buf, 3)
	// Leading text run.
	buf = append(buf, kindTextRun, 0x00)
	buf = binary.AppendUvarint(buf, 0) // link
	buf = binary.AppendUvarint(buf, 6)
	buf = append(buf, []byte("before")...)
	// Generic inline slot with an unusable tag.
	buf = append(buf, kindInline, elemGeneric)
	buf = binary.AppendUvarint(buf, 0)
	tag := []byte(`{"type":"mystery"}`)
	buf = binary.AppendUvarint(buf, uint64(len(tag)))
	buf = append(buf, tag...)
	// Trailing text run.
	buf = append(buf, kindTextRun, 0x00)
	buf = binary.AppendUvarint(buf, 0)
	buf = binary.AppendUvarint(buf, 5)
	buf = append(buf, []byte("after")...)

	doc, report, err := DecodeWithReport(buf)
	if err != nil {
		t.Fatalf("DecodeWithReport() error = %v", err)
	}
	if report.Dropped != 1 {
		t.Fatalf("expected one dropped element, report %+v", report)
	}
	if got := doc.String(); got != "beforeafter" {
		t.Fatalf("surrounding text not preserved: %q", got)
	}
}

func TestArchiveEncodeIsDeterministic(t *testing.T) {
	d := sampleDocument(t)
	a, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("encoding the same document twice produced different bytes")
	}
}
