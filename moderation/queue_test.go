package moderation

import (
	"testing"
	"time"

	"github.com/openherd/cow/envelope"
)

func TestSubmitSkipsWhitespaceReason(t *testing.T) {
	q := NewQueue()
	n := q.Submit([]SubmittedReport{
		{Post: envelope.Envelope{ID: "a"}, Reason: "   "},
		{Post: envelope.Envelope{ID: "b"}, Reason: "spam"},
	}, time.Now(), "203.0.113.1")
	if n != 1 {
		t.Fatalf("expected 1 accepted, got %d", n)
	}
	if len(q.List()) != 1 {
		t.Fatalf("expected 1 queued report, got %d", len(q.List()))
	}
}

func TestAcceptAssignsLabelAndRemovesReport(t *testing.T) {
	q := NewQueue()
	q.Submit([]SubmittedReport{{Post: envelope.Envelope{ID: "post-1"}, Reason: "spam"}}, time.Now(), "1.2.3.4")
	id := q.List()[0].ID

	label := "spam"
	if err := q.Accept(id, &label); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got, ok := q.LabelFor("post-1"); !ok || got != "spam" {
		t.Fatalf("expected post-1 labeled spam, got %q ok=%v", got, ok)
	}
	if len(q.List()) != 0 {
		t.Fatalf("expected report removed after accept")
	}
}

func TestAcceptMissingReportIsNotFound(t *testing.T) {
	q := NewQueue()
	if err := q.Accept("nope", nil); err != ErrReportNotFound {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestDeleteLabelStripsFromPosts(t *testing.T) {
	q := NewQueue()
	if err := q.AddLabel("spam", "unsolicited"); err != nil {
		t.Fatalf("add label: %v", err)
	}
	if err := q.AddLabel("spam", "dup"); err != ErrLabelExists {
		t.Fatalf("expected ErrLabelExists, got %v", err)
	}
	q.Submit([]SubmittedReport{{Post: envelope.Envelope{ID: "post-1"}, Reason: "x"}}, time.Now(), "ip")
	label := "spam"
	q.Accept(q.List()[0].ID, &label)

	q.DeleteLabel("spam")
	if _, ok := q.LabelFor("post-1"); ok {
		t.Fatalf("expected label stripped from post-1")
	}
}

func TestLabelsFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/labels.json"
	defs := map[string]string{"spam": "unsolicited content"}
	if err := SaveLabelsFile(path, defs); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadLabelsFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded["spam"] != "unsolicited content" {
		t.Fatalf("unexpected loaded defs: %v", loaded)
	}
}

func TestLoadLabelsFileMissingIsEmpty(t *testing.T) {
	loaded, err := LoadLabelsFile("/nonexistent/labels.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty map, got %v", loaded)
	}
}
