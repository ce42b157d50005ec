package chat

import "fmt"

// Author tags who a transcript entry is displayed as.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Entry is one displayed conversation message. Immutable once appended.
type Entry struct {
	Author Author `json:"author"`
	Text   string `json:"text"`
}

// Row is one display row produced by rendering. Ephemeral rows (the working
// indicator) are rendered but never stored in the log.
type Row struct {
	Author    Author
	Text      string
	Ephemeral bool
}

// workingIndicator is the trailing row shown while a remote call is pending.
const workingIndicator = "..."

// Transcript is the ordered, append-only log of displayed messages.
// Insertion order is display order. Apart from the single upload-failure
// reset, entries are never edited or removed, so the length only grows.
type Transcript struct {
	entries []Entry
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append inserts an entry at the end of the log.
func (t *Transcript) Append(e Entry) error {
	if e.Author == "" {
		return fmt.Errorf("transcript entry has no author")
	}
	t.entries = append(t.entries, e)
	return nil
}

// ReplaceAll resets the log to the given entries. This is the one exception
// to append-only behavior, used when an upload fails and the session starts
// over.
func (t *Transcript) ReplaceAll(entries ...Entry) {
	t.entries = append([]Entry(nil), entries...)
}

// Len returns the number of stored entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the stored log.
func (t *Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Rows renders the transcript as display rows in insertion order. Rendering
// has no side effects: calling Rows repeatedly without intervening Append or
// ReplaceAll calls yields identical sequences. When pending is true a
// trailing ephemeral working row is included; it is not part of the log.
func (t *Transcript) Rows(pending bool) []Row {
	rows := make([]Row, 0, len(t.entries)+1)
	for _, e := range t.entries {
		rows = append(rows, Row{Author: e.Author, Text: e.Text})
	}
	if pending {
		rows = append(rows, Row{Author: AuthorAssistant, Text: workingIndicator, Ephemeral: true})
	}
	return rows
}
