package app

import (
	"bytes"
	"context"

	"github.com/hylla/anteck/internal/codec/archive"
	"github.com/hylla/anteck/internal/codec/markdown"
	"github.com/hylla/anteck/internal/domain"
)

// Session owns the authoritative document for one open note. Every change
// notification from the document is encoded and persisted through the
// repository port, immediately by default or deferred until Flush when the
// service carries a save debounce. All mutation happens on the caller's
// goroutine.
//
// Edit sessions gate external reloads: between BeginEditing and EndEditing an
// external update is queued instead of applied, so in-progress structural
// edits and the caret are never destroyed mid-keystroke. Conflicts resolve
// last-writer-wins at document granularity.
type Session struct {
	svc    *Service
	ctx    context.Context
	taskID string
	doc    *domain.Document
	report archive.Report

	editing   bool
	pending   []byte
	queued    bool
	lastSaved []byte
	saveErr   error

	deferEdits bool
	dirty      bool
}

// OpenNote loads the note document for a task and starts a session over it.
// Loading is tiered: the archive blob when present, otherwise the legacy
// markdown text, otherwise an empty document.
func (s *Service) OpenNote(ctx context.Context, taskID string) (*Session, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sess := &Session{svc: s, ctx: ctx, taskID: taskID, deferEdits: s.saveDebounce > 0}
	doc, report := decodeNote(task)
	sess.adopt(doc, report)
	sess.lastSaved = task.NoteArchive
	return sess, nil
}

// decodeNote materializes a task's note. A corrupt archive yields an empty
// document rather than a load failure.
func decodeNote(task domain.Task) (*domain.Document, archive.Report) {
	if len(task.NoteArchive) > 0 {
		doc, report, err := archive.DecodeWithReport(task.NoteArchive)
		if err != nil {
			return domain.NewDocument(), archive.Report{}
		}
		return doc, report
	}
	if task.NoteLegacy != "" {
		return markdown.Decode(task.NoteLegacy, domain.StyleSet{}), archive.Report{}
	}
	return domain.NewDocument(), archive.Report{}
}

// Document returns the live document. Mutations flow back through the
// session's observer and are persisted automatically.
func (sess *Session) Document() *domain.Document { return sess.doc }

// Report describes what the archive decode restored or dropped on load.
func (sess *Session) Report() archive.Report { return sess.report }

// Editing reports whether an edit session is active.
func (sess *Session) Editing() bool { return sess.editing }

// SaveErr returns the most recent persistence failure, or nil. It is cleared
// by the next successful save.
func (sess *Session) SaveErr() error { return sess.saveErr }

// BeginEditing opens an edit session. Wire it as the editing engine's edit
// notifier so the first keystroke starts the session.
func (sess *Session) BeginEditing() { sess.editing = true }

// EndEditing closes the edit session: deferred edits are flushed, then a
// queued external update is replayed. The update is applied only when it
// differs from the session's last-saved snapshot; a blob this session
// already wrote is not worth a reload.
func (sess *Session) EndEditing() {
	sess.editing = false
	_ = sess.Flush()
	if sess.queued && !bytes.Equal(sess.pending, sess.lastSaved) {
		sess.reload(sess.pending)
	}
	sess.pending = nil
	sess.queued = false
}

// Dirty reports whether the session holds edits not yet persisted. Only
// sessions opened with a save debounce ever accumulate dirty state.
func (sess *Session) Dirty() bool { return sess.dirty }

// Flush persists deferred edits now. Callers drive it from their debounce
// timer and when the editing surface loses focus.
func (sess *Session) Flush() error {
	if !sess.dirty {
		return nil
	}
	sess.saveErr = sess.persist()
	if sess.saveErr == nil {
		sess.dirty = false
	}
	return sess.saveErr
}

// ExternalUpdate delivers an externally persisted archive blob. During an
// active edit session it is queued for EndEditing; otherwise it replaces the
// document immediately.
func (sess *Session) ExternalUpdate(blob []byte) {
	if sess.editing {
		sess.pending = blob
		sess.queued = true
		return
	}
	if !bytes.Equal(blob, sess.lastSaved) {
		sess.reload(blob)
	}
}

func (sess *Session) reload(blob []byte) {
	doc, report, err := archive.DecodeWithReport(blob)
	if err != nil {
		doc, report = domain.NewDocument(), archive.Report{}
	}
	sess.adopt(doc, report)
	sess.lastSaved = blob
}

func (sess *Session) adopt(doc *domain.Document, report archive.Report) {
	sess.doc = doc
	sess.report = report
	doc.SetObserver(sess.onChange)
}

// onChange is the document observer. Checkbox toggles persist immediately;
// text edits persist immediately too unless a save debounce is configured,
// in which case they accumulate until Flush. A toggle save encodes the whole
// document, so it also carries any deferred edits out with it.
func (sess *Session) onChange(kind domain.ChangeKind) {
	if sess.deferEdits && kind == domain.ChangeEdit {
		sess.dirty = true
		return
	}
	sess.saveErr = sess.persist()
	if sess.saveErr == nil {
		sess.dirty = false
	}
}

func (sess *Session) persist() error {
	blob, err := archive.Encode(sess.doc)
	if err != nil {
		return err
	}
	if err := sess.svc.repo.SaveNote(sess.ctx, sess.taskID, blob, sess.svc.clock()); err != nil {
		return err
	}
	sess.lastSaved = blob
	return nil
}
