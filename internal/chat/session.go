// Package chat implements the client-side interaction core: the lifecycle
// state machine that serializes the upload-then-query flow, the append-only
// transcript of displayed messages, and the controller that maps remote call
// outcomes back into state transitions.
package chat

// State is the current phase of the upload/query interaction.
type State string

const (
	StateInitial    State = "initial"
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateQuerying   State = "querying"
)

// Pending reports whether a remote call is in flight. While pending, the
// transcript renders a trailing ephemeral working indicator and no further
// action can start.
func (s State) Pending() bool {
	return s == StateUploading || s == StateProcessing || s == StateQuerying
}

// Session is the single mutable context for the whole interaction. It is
// created once per run and mutated only by Transition.
type Session struct {
	State State

	// SelectedDocument is the path of the user-chosen local file. Cleared
	// when an upload fails, forcing the user to reselect.
	SelectedDocument string

	// DocumentHandle is the opaque backend key returned by a successful
	// upload. Set at most once; every question is scoped to it.
	DocumentHandle string

	// DraftQuestion is the in-progress text of the next question. Cleared
	// the moment a question is accepted for submission.
	DraftQuestion string
}

// NewSession returns a session in the initial state.
func NewSession() *Session {
	return &Session{State: StateInitial}
}
