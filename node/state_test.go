package node

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/openherd/cow/envelope"
	"github.com/openherd/cow/karma"
	"github.com/openherd/cow/moderation"
	"github.com/openherd/cow/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestState(t *testing.T) (*State, *store.Durable) {
	t.Helper()
	dir := t.TempDir()
	durable, err := store.Open(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatalf("open durable store: %v", err)
	}
	t.Cleanup(func() { durable.Close() })

	st, err := New(durable, Config{LabelsPath: filepath.Join(dir, "labels.json")}, discardLogger())
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st, durable
}

func TestAcceptEnvelopePersistsAndIndexes(t *testing.T) {
	st, durable := newTestState(t)
	st.AcceptEnvelope(envelope.Envelope{ID: "abc123", Data: "x"})

	if got := st.Outbox(); len(got) != 1 || got[0].ID != "abc123" {
		t.Fatalf("expected outbox to contain accepted envelope, got %v", got)
	}

	idx := store.NewIndex()
	if err := store.Rehydrate(durable, idx, discardLogger()); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected durable store to have persisted the envelope, got %d entries", idx.Len())
	}
}

func TestAdminPasswordsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	labelsPath := filepath.Join(dir, "labels.json")

	durable, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st, err := New(durable, Config{LabelsPath: labelsPath}, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := st.EnrollAdmin("hunter2"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	durable.Close()

	reopened, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	st2, err := New(reopened, Config{LabelsPath: labelsPath}, discardLogger())
	if err != nil {
		t.Fatalf("new after reopen: %v", err)
	}
	if !st2.IsAdmin("hunter2") {
		t.Fatalf("expected admin password to survive reopen")
	}
	if st2.IsAdmin("wrong") {
		t.Fatalf("expected wrong password to be rejected")
	}

	if err := st2.DenrollAdmin("hunter2"); err != nil {
		t.Fatalf("denroll: %v", err)
	}
	if st2.IsAdmin("hunter2") {
		t.Fatalf("expected denrolled password to be rejected")
	}
}

func TestVoteKarmaRejectsInvalidEnvelope(t *testing.T) {
	st, _ := newTestState(t)
	codes, err := st.GenerateKarmaCodes(karma.GenerateRequest{Count: 1, Issuer: "admin", Expires: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	code := codes[0].Code

	env := envelope.Envelope{ID: "post-1"}
	verr, err := st.VoteKarma(code, karma.Upvote, env)
	if verr == nil {
		t.Fatalf("expected structurally invalid envelope to fail validation")
	}
	_ = err
}

func TestVoteKarmaChecksCodeBeforeValidatingEnvelope(t *testing.T) {
	st, _ := newTestState(t)

	malformed := envelope.Envelope{ID: "post-1"}
	verr, err := st.VoteKarma("no-such-code", karma.Upvote, malformed)
	if verr != nil {
		t.Fatalf("expected code lookup to fail before envelope validation, got validation error %v", verr)
	}
	if err != karma.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestModerationRoundTripThroughState(t *testing.T) {
	st, _ := newTestState(t)
	n := st.SubmitReports([]moderation.SubmittedReport{
		{Post: envelope.Envelope{ID: "post-1"}, Reason: "spam"},
	}, "198.51.100.7")
	if n != 1 {
		t.Fatalf("expected 1 accepted report, got %d", n)
	}
	reports := st.ListReports()
	if len(reports) != 1 {
		t.Fatalf("expected 1 queued report, got %d", len(reports))
	}

	label := "spam"
	if err := st.AcceptReport(reports[0].ID, &label); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got, ok := st.LabelFor("post-1"); !ok || got != "spam" {
		t.Fatalf("expected post-1 labeled spam, got %q ok=%v", got, ok)
	}
}

func TestPeerCallbacksRoundTrip(t *testing.T) {
	st, _ := newTestState(t)
	cb := st.MonitorCallbacks()
	if len(cb.Snapshot()) != 0 {
		t.Fatalf("expected empty peer set initially")
	}
	cb.OnSuccess("https://peer.example")
	if bases := st.PeerBases(); len(bases) != 1 || bases[0] != "https://peer.example" {
		t.Fatalf("expected peer recorded, got %v", bases)
	}
}
