package chat

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Gateway issues the two remote operations. Both are single attempts with no
// retry; any failure surfaces as an error and is absorbed by the controller.
type Gateway interface {
	// SubmitDocument transmits the raw document content and returns the
	// opaque handle issued by the backend.
	SubmitDocument(ctx context.Context, filename string, content io.Reader) (string, error)

	// SubmitQuestion asks a question about a previously uploaded document
	// and returns the answer text.
	SubmitQuestion(ctx context.Context, fileKey, question string) (string, error)
}

// Controller coordinates the session, the transcript, and the gateway. All
// methods run on the calling goroutine: a gateway call blocks the flow until
// it resolves, which is what keeps at most one call in flight.
//
// Remote failures never escape the controller. They become transcript
// entries, per the state machine's transitions.
type Controller struct {
	session    *Session
	transcript *Transcript
	gateway    Gateway

	// OnChange, if set, is called after every applied transition. The REPL
	// uses it to re-render the transcript, including the working indicator
	// shown while a call is pending.
	OnChange func()

	openFile func(string) (io.ReadCloser, error)
}

// NewController creates a controller with a fresh session and transcript.
func NewController(gw Gateway) *Controller {
	return &Controller{
		session:    NewSession(),
		transcript: NewTranscript(),
		gateway:    gw,
		openFile: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Session exposes the session for inspection.
func (c *Controller) Session() *Session {
	return c.session
}

// Transcript exposes the transcript store.
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}

// Rows renders the current transcript, with the working indicator when a
// call is in flight.
func (c *Controller) Rows() []Row {
	return c.transcript.Rows(c.session.State.Pending())
}

// SelectDocument records the user's file choice. It does not start an
// upload.
func (c *Controller) SelectDocument(path string) {
	c.session.SelectedDocument = path
}

// Upload submits the selected document and blocks until the backend has
// processed it or the attempt fails. Without a selected document, or outside
// the initial state, it is a no-op.
func (c *Controller) Upload(ctx context.Context) {
	if !c.apply(Transition(c.session, UploadRequested{})) {
		return
	}

	path := c.session.SelectedDocument
	f, err := c.openFile(path)
	if err != nil {
		c.apply(Transition(c.session, UploadFailed{Err: err}))
		return
	}
	defer f.Close()

	handle, err := c.gateway.SubmitDocument(ctx, filepath.Base(path), f)
	if err != nil {
		c.apply(Transition(c.session, UploadFailed{Err: err}))
		return
	}

	c.apply(Transition(c.session, UploadSucceeded{Handle: handle}))
}

// Ask submits a question about the uploaded document and blocks until the
// answer (or a failure) arrives. Empty questions, or asking before a
// document is ready, are no-ops: no transcript change, no gateway call.
func (c *Controller) Ask(ctx context.Context, question string) {
	c.session.DraftQuestion = question

	effects := Transition(c.session, QuestionSubmitted{})
	if !c.apply(effects) {
		return
	}

	// The accepted question is the trimmed draft, now the newest user entry.
	asked := lastEntryText(effects)

	answer, err := c.gateway.SubmitQuestion(ctx, c.session.DocumentHandle, asked)
	if err != nil {
		c.apply(Transition(c.session, QueryFailed{Err: err}))
		return
	}

	c.apply(Transition(c.session, AnswerReceived{Text: answer}))
}

// apply runs effects against the transcript and reports whether the
// transition was accepted (guard-refused events produce no effects).
func (c *Controller) apply(effects []Effect) bool {
	if len(effects) == 0 {
		return false
	}
	// Entries built by Transition are always well-formed.
	_ = Apply(c.transcript, effects)
	if c.OnChange != nil {
		c.OnChange()
	}
	return true
}

func lastEntryText(effects []Effect) string {
	for i := len(effects) - 1; i >= 0; i-- {
		if a, ok := effects[i].(AppendEntry); ok {
			return a.Entry.Text
		}
	}
	return ""
}
