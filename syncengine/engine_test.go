package syncengine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openherd/cow/envelope"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncRejectsInvalidURL(t *testing.T) {
	e := New(Callbacks{
		AcceptEnvelopes:   func([]envelope.Envelope) {},
		OutboxSnapshot:    func(int) []envelope.Envelope { return nil },
		RecordPeerSuccess: func(string) {},
	}, discardLogger())

	result := e.Sync(context.Background(), "not-a-url")
	if result.OK {
		t.Fatalf("expected invalid URL to fail")
	}
	if result.Message != "Invalid URL format" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestSyncPullsValidatesAndPushes(t *testing.T) {
	goodEnv := envelope.Envelope{ID: "deadbeef"}

	var pushed []envelope.Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/_openherd/outbox":
			json.NewEncoder(w).Encode([]envelope.Envelope{goodEnv})
		case r.Method == http.MethodPost && r.URL.Path == "/_openherd/inbox":
			json.NewDecoder(r.Body).Decode(&pushed)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var accepted []envelope.Envelope
	var recordedPeer string
	e := New(Callbacks{
		AcceptEnvelopes: func(envs []envelope.Envelope) { accepted = envs },
		OutboxSnapshot:  func(n int) []envelope.Envelope { return []envelope.Envelope{{ID: "local-1"}} },
		RecordPeerSuccess: func(base string) {
			recordedPeer = base
		},
	}, discardLogger())

	result := e.Sync(context.Background(), srv.URL)
	if !result.OK {
		t.Fatalf("expected sync to succeed, got message %q", result.Message)
	}

	// goodEnv fails envelope.Validate because it has no signature/public
	// key/data; the callback must still be invoked, with zero accepted.
	if len(accepted) != 0 {
		t.Fatalf("expected structurally invalid pulled envelope to be filtered, got %d", len(accepted))
	}
	if len(pushed) != 1 || pushed[0].ID != "local-1" {
		t.Fatalf("expected local outbox snapshot to be pushed, got %v", pushed)
	}
	if recordedPeer != srv.URL {
		t.Fatalf("expected peer success recorded for %q, got %q", srv.URL, recordedPeer)
	}
}

func TestSyncFailsOnPullError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	recorded := false
	e := New(Callbacks{
		AcceptEnvelopes:   func([]envelope.Envelope) {},
		OutboxSnapshot:    func(int) []envelope.Envelope { return nil },
		RecordPeerSuccess: func(string) { recorded = true },
	}, discardLogger())

	result := e.Sync(context.Background(), srv.URL)
	if result.OK {
		t.Fatalf("expected sync to fail on non-200 outbox response")
	}
	if recorded {
		t.Fatalf("peer registry must not be touched on pull failure")
	}
}

func TestSyncFailsOnPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_openherd/outbox" {
			json.NewEncoder(w).Encode([]envelope.Envelope{})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	recorded := false
	e := New(Callbacks{
		AcceptEnvelopes:   func([]envelope.Envelope) {},
		OutboxSnapshot:    func(int) []envelope.Envelope { return nil },
		RecordPeerSuccess: func(string) { recorded = true },
	}, discardLogger())

	result := e.Sync(context.Background(), srv.URL)
	if result.OK {
		t.Fatalf("expected sync to fail on non-200 inbox response")
	}
	if recorded {
		t.Fatalf("peer registry must not be touched on push failure")
	}
}
