// Package syncengine implements the Sync Engine: a pull-then-push
// reconciliation against a remote node's base URL (spec.md §4.4). It
// never holds the node lock across a network call; it hands pulled
// envelopes to an AcceptEnvelopes callback that itself acquires the lock
// only for the local insert, matching the Peer Monitor's Callbacks shape
// in package peer.
package syncengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openherd/cow/envelope"
	"github.com/openherd/cow/peer"
)

const maxPushBatch = 10000
const syncTimeout = 15 * time.Second

// Result is the outcome of a single Sync call.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Callbacks lets the Engine mutate node state without importing package
// node. AcceptEnvelopes is called once per pull with every envelope that
// passed validation; OutboxSnapshot is called once per push to take a
// bounded slice of the local Index; RecordPeerSuccess is called only
// after every step below succeeds.
type Callbacks struct {
	AcceptEnvelopes   func(envs []envelope.Envelope)
	OutboxSnapshot    func(n int) []envelope.Envelope
	RecordPeerSuccess func(base string)
}

// Engine runs Sync against arbitrary peer base URLs.
type Engine struct {
	cb      Callbacks
	logger  *slog.Logger
	timeout time.Duration
}

// New constructs an Engine whose per-call HTTP client uses the 15-second
// default timeout.
func New(cb Callbacks, logger *slog.Logger) *Engine {
	return &Engine{cb: cb, logger: logger, timeout: syncTimeout}
}

// NewWithTimeout constructs an Engine using an operator-configured
// timeout in place of the spec default, for deployments that need a
// longer or shorter bound on slow peers.
func NewWithTimeout(cb Callbacks, logger *slog.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = syncTimeout
	}
	return &Engine{cb: cb, logger: logger, timeout: timeout}
}

// Sync runs the five-step pull-then-push protocol against address.
func (e *Engine) Sync(ctx context.Context, address string) Result {
	base, ok := peer.NormalizeBase(address)
	if !ok {
		return Result{OK: false, Message: "Invalid URL format"}
	}

	client := &http.Client{Timeout: e.timeout}

	pulled, err := e.pull(ctx, client, base)
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	valid := make([]envelope.Envelope, 0, len(pulled))
	for _, env := range pulled {
		if _, verr := envelope.Validate(env); verr != nil {
			e.logger.Debug("rejected envelope during sync pull", slog.String("peer", base), slog.Any("error", verr))
			continue
		}
		valid = append(valid, env)
	}
	e.cb.AcceptEnvelopes(valid)

	snapshot := e.cb.OutboxSnapshot(maxPushBatch)
	if err := e.push(ctx, client, base, snapshot); err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	e.cb.RecordPeerSuccess(base)
	return Result{OK: true, Message: "sync complete"}
}

func (e *Engine) pull(ctx context.Context, client *http.Client, base string) ([]envelope.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/_openherd/outbox", nil)
	if err != nil {
		return nil, fmt.Errorf("build outbox request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer outbox returned status %d", resp.StatusCode)
	}
	var envs []envelope.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envs); err != nil {
		return nil, fmt.Errorf("decode outbox response: %w", err)
	}
	return envs, nil
}

func (e *Engine) push(ctx context.Context, client *http.Client, base string, envs []envelope.Envelope) error {
	body, err := json.Marshal(envs)
	if err != nil {
		return fmt.Errorf("encode push batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/_openherd/inbox", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build inbox request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push inbox: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("peer inbox returned status %d", resp.StatusCode)
	}
	return nil
}
