package chat

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Transcript messages emitted by transitions. The upload and query error
// texts are deliberately generic: the gateway collapses every failure cause
// into one kind, so there is no detail worth surfacing.
const (
	msgProcessing  = "Processing document..."
	msgUploadError = "Error uploading or processing file. Please try again."
	msgQueryError  = "Sorry, something went wrong while answering that. Please try again."
)

// Event is an input to the interaction state machine: either a user trigger
// or the resolution of a remote call.
type Event interface{ isEvent() }

// UploadRequested is the user submitting the selected document.
type UploadRequested struct{}

// UploadSucceeded carries the document handle issued by the backend.
type UploadSucceeded struct{ Handle string }

// UploadFailed is any upload failure, regardless of cause.
type UploadFailed struct{ Err error }

// QuestionSubmitted is the user submitting the current draft question.
type QuestionSubmitted struct{}

// AnswerReceived carries the backend's answer text, appended verbatim.
type AnswerReceived struct{ Text string }

// QueryFailed is any query failure, regardless of cause.
type QueryFailed struct{ Err error }

func (UploadRequested) isEvent()   {}
func (UploadSucceeded) isEvent()   {}
func (UploadFailed) isEvent()      {}
func (QuestionSubmitted) isEvent() {}
func (AnswerReceived) isEvent()    {}
func (QueryFailed) isEvent()       {}

// Effect is a transcript operation requested by a transition. Effects are
// data, not actions: the caller applies them with Apply, which keeps
// transitions testable without a rendering layer.
type Effect interface{ isEffect() }

// AppendEntry appends one entry to the transcript.
type AppendEntry struct{ Entry Entry }

// ResetTranscript replaces the whole transcript with a single entry. Emitted
// only on upload failure, modeling "start over".
type ResetTranscript struct{ Entry Entry }

func (AppendEntry) isEffect()     {}
func (ResetTranscript) isEffect() {}

// Transition advances the state machine. It mutates the session (state and
// session fields) and returns the transcript effects of the transition.
//
// An event that violates a guard is a no-op: the session is left untouched
// and no effects are returned. Accepted transitions always return at least
// one effect, so callers can distinguish the two outcomes.
//
// StateProcessing never rests between transitions: with the current backend
// the upload acknowledgment and the processed handle arrive in one response,
// so processing is a display-only sub-state of the uploading edge. The
// UploadSucceeded transition emits its message directly.
func Transition(s *Session, ev Event) []Effect {
	switch ev := ev.(type) {
	case UploadRequested:
		if s.State != StateInitial || s.SelectedDocument == "" {
			return nil
		}
		s.State = StateUploading
		return []Effect{AppendEntry{Entry{
			Author: AuthorAssistant,
			Text:   fmt.Sprintf("Uploading %q...", filepath.Base(s.SelectedDocument)),
		}}}

	case UploadSucceeded:
		if s.State != StateUploading {
			return nil
		}
		s.State = StateReady
		s.DocumentHandle = ev.Handle
		return []Effect{
			AppendEntry{Entry{Author: AuthorAssistant, Text: msgProcessing}},
			AppendEntry{Entry{
				Author: AuthorAssistant,
				Text:   fmt.Sprintf("Document processed! You can now ask questions about %q.", ev.Handle),
			}},
		}

	case UploadFailed:
		if s.State != StateUploading {
			return nil
		}
		s.State = StateInitial
		s.SelectedDocument = ""
		return []Effect{ResetTranscript{Entry{Author: AuthorAssistant, Text: msgUploadError}}}

	case QuestionSubmitted:
		question := strings.TrimSpace(s.DraftQuestion)
		if s.State != StateReady || question == "" || s.DocumentHandle == "" {
			return nil
		}
		s.State = StateQuerying
		s.DraftQuestion = ""
		return []Effect{AppendEntry{Entry{Author: AuthorUser, Text: question}}}

	case AnswerReceived:
		if s.State != StateQuerying {
			return nil
		}
		s.State = StateReady
		return []Effect{AppendEntry{Entry{Author: AuthorAssistant, Text: ev.Text}}}

	case QueryFailed:
		if s.State != StateQuerying {
			return nil
		}
		s.State = StateReady
		return []Effect{AppendEntry{Entry{Author: AuthorAssistant, Text: msgQueryError}}}
	}

	return nil
}

// Apply runs transcript effects against the transcript in order.
func Apply(t *Transcript, effects []Effect) error {
	for _, effect := range effects {
		switch effect := effect.(type) {
		case AppendEntry:
			if err := t.Append(effect.Entry); err != nil {
				return err
			}
		case ResetTranscript:
			t.ReplaceAll(effect.Entry)
		}
	}
	return nil
}
