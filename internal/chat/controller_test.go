package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeGateway scripts the outcome of each remote operation and records the
// calls it receives.
type fakeGateway struct {
	handle    string
	uploadErr error
	answer    string
	queryErr  error

	uploads   int
	questions []string
	lastKey   string
}

func (g *fakeGateway) SubmitDocument(ctx context.Context, filename string, content io.Reader) (string, error) {
	g.uploads++
	io.Copy(io.Discard, content)
	if g.uploadErr != nil {
		return "", g.uploadErr
	}
	return g.handle, nil
}

func (g *fakeGateway) SubmitQuestion(ctx context.Context, fileKey, question string) (string, error) {
	g.questions = append(g.questions, question)
	g.lastKey = fileKey
	if g.queryErr != nil {
		return "", g.queryErr
	}
	return g.answer, nil
}

func newTestController(gw Gateway) *Controller {
	c := NewController(gw)
	c.openFile = func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("%PDF-1.4 test content")), nil
	}
	return c
}

func transcriptTexts(c *Controller) []string {
	rows := c.Transcript().Rows(false)
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
	}
	return texts
}

func TestController_UploadSuccess(t *testing.T) {
	gw := &fakeGateway{handle: "abc123"}
	c := newTestController(gw)

	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())

	want := []string{
		`Uploading "report.pdf"...`,
		"Processing document...",
		`Document processed! You can now ask questions about "abc123".`,
	}
	got := transcriptTexts(c)
	if len(got) != len(want) {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transcript[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if c.Session().State != StateReady {
		t.Errorf("state = %s, want ready", c.Session().State)
	}
	if c.Session().DocumentHandle != "abc123" {
		t.Errorf("handle = %q, want abc123", c.Session().DocumentHandle)
	}
}

func TestController_UploadFailure(t *testing.T) {
	gw := &fakeGateway{uploadErr: errors.New("connection refused")}
	c := newTestController(gw)

	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())

	got := transcriptTexts(c)
	if len(got) != 1 || got[0] != msgUploadError {
		t.Errorf("transcript = %q, want single error entry", got)
	}
	if c.Session().State != StateInitial {
		t.Errorf("state = %s, want initial", c.Session().State)
	}
	if c.Session().DocumentHandle != "" {
		t.Errorf("handle should be unset, got %q", c.Session().DocumentHandle)
	}
}

func TestController_UploadWithoutSelection(t *testing.T) {
	gw := &fakeGateway{handle: "abc123"}
	c := newTestController(gw)

	c.Upload(context.Background())

	if gw.uploads != 0 {
		t.Error("gateway called without a selected document")
	}
	if c.Transcript().Len() != 0 {
		t.Errorf("transcript changed: %q", transcriptTexts(c))
	}
	if c.Session().State != StateInitial {
		t.Errorf("state = %s, want initial", c.Session().State)
	}
}

func TestController_AskAndAnswer(t *testing.T) {
	gw := &fakeGateway{handle: "abc123", answer: "The total is $42."}
	c := newTestController(gw)
	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())
	base := c.Transcript().Len()

	c.Ask(context.Background(), "What is the total?")

	got := transcriptTexts(c)
	if len(got) != base+2 {
		t.Fatalf("expected user + assistant entries appended, got %q", got[base:])
	}
	if got[base] != "What is the total?" || got[base+1] != "The total is $42." {
		t.Errorf("unexpected entries: %q", got[base:])
	}
	if gw.lastKey != "abc123" {
		t.Errorf("question scoped to %q, want abc123", gw.lastKey)
	}
	if c.Session().State != StateReady {
		t.Errorf("state = %s, want ready", c.Session().State)
	}
	if c.Session().DraftQuestion != "" {
		t.Errorf("draft not cleared: %q", c.Session().DraftQuestion)
	}
}

func TestController_QueryFailureKeepsHandle(t *testing.T) {
	gw := &fakeGateway{handle: "abc123", queryErr: errors.New("status 500")}
	c := newTestController(gw)
	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())
	base := c.Transcript().Len()

	c.Ask(context.Background(), "What is the total?")

	got := transcriptTexts(c)
	if len(got) != base+2 {
		t.Fatalf("expected user + error entries appended, got %q", got[base:])
	}
	if got[base+1] != msgQueryError {
		t.Errorf("unexpected error entry: %q", got[base+1])
	}
	if c.Session().State != StateReady {
		t.Errorf("state = %s, want ready", c.Session().State)
	}
	if c.Session().DocumentHandle != "abc123" {
		t.Errorf("handle lost after query failure: %q", c.Session().DocumentHandle)
	}

	// Retrying a new question immediately is legal.
	gw.queryErr = nil
	gw.answer = "Fine now."
	c.Ask(context.Background(), "Still there?")
	if c.Session().State != StateReady {
		t.Errorf("retry left state %s", c.Session().State)
	}
}

func TestController_EmptyQuestionIsNoOp(t *testing.T) {
	gw := &fakeGateway{handle: "abc123", answer: "irrelevant"}
	c := newTestController(gw)
	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())
	base := c.Transcript().Len()

	c.Ask(context.Background(), "   ")

	if len(gw.questions) != 0 {
		t.Error("gateway called for empty question")
	}
	if c.Transcript().Len() != base {
		t.Errorf("transcript changed for empty question")
	}
	if c.Session().State != StateReady {
		t.Errorf("state = %s, want ready", c.Session().State)
	}
}

func TestController_QueryBeforeReadyIsNoOp(t *testing.T) {
	gw := &fakeGateway{answer: "irrelevant"}
	c := newTestController(gw)

	c.Ask(context.Background(), "What is the total?")

	if len(gw.questions) != 0 {
		t.Error("gateway called before a document was ready")
	}
	if c.Transcript().Len() != 0 {
		t.Errorf("transcript changed: %q", transcriptTexts(c))
	}
	if c.Session().State != StateInitial {
		t.Errorf("state = %s, want initial", c.Session().State)
	}
}

func TestController_HandleSetIffEverReady(t *testing.T) {
	// Drive a whole conversation and check the handle/ready invariant after
	// every step.
	gw := &fakeGateway{uploadErr: errors.New("down")}
	c := newTestController(gw)

	reachedReady := false
	check := func(step string) {
		if c.Session().State == StateReady {
			reachedReady = true
		}
		if (c.Session().DocumentHandle != "") != reachedReady {
			t.Errorf("%s: handle=%q but reachedReady=%v", step, c.Session().DocumentHandle, reachedReady)
		}
	}

	check("start")
	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())
	check("failed upload")

	gw.uploadErr = nil
	gw.handle = "abc123"
	gw.answer = "42"
	c.SelectDocument("/home/user/report.pdf")
	c.Upload(context.Background())
	check("successful upload")

	c.Ask(context.Background(), "total?")
	check("after answer")
}
