// Package peer implements the Peer Registry and Peer Monitor: a mapping
// from a peer's normalized base URL to its PeerStatus, grown by
// successful sync requests and decayed by periodic liveness probes.
package peer

import (
	"net/url"
	"strings"
	"time"
)

const failureThresholdDefault = 5

// Status is a peer's liveness bookkeeping: a saturating failure counter
// and the timestamp of its last successful contact.
type Status struct {
	Failures uint8
	LastOK   *time.Time
}

// Registry tracks known peers. It carries no locking of its own; callers
// serialize access through the node-wide lock, releasing it across any
// network I/O as required by the concurrency model.
type Registry struct {
	byBase           map[string]Status
	failureThreshold uint8
}

// NewRegistry returns an empty Registry that evicts a peer once its
// failure count reaches threshold. A threshold of 0 uses the spec
// default of 5.
func NewRegistry(threshold uint8) *Registry {
	if threshold == 0 {
		threshold = failureThresholdDefault
	}
	return &Registry{byBase: make(map[string]Status), failureThreshold: threshold}
}

// NormalizeBase parses addr, requires an http(s) scheme, and strips any
// trailing slash so the same peer is never double-counted under two
// spellings of its base URL.
func NormalizeBase(addr string) (string, bool) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return strings.TrimRight(u.String(), "/"), true
}

// RecordSuccess resets a peer's failure count and marks it as just seen,
// inserting it if it was not already known.
func (r *Registry) RecordSuccess(base string, now time.Time) {
	r.byBase[base] = Status{Failures: 0, LastOK: &now}
}

// saturatingAdd increments f by one, clamping at the uint8 maximum
// instead of wrapping to 0.
func saturatingAdd(f uint8) uint8 {
	if f == 255 {
		return 255
	}
	return f + 1
}

// RecordFailure saturates the failure counter for base and reports
// whether the peer was evicted: once the count reaches the registry's
// threshold, the peer is removed from the registry before returning.
func (r *Registry) RecordFailure(base string) (status Status, evicted bool) {
	st := r.byBase[base]
	st.Failures = saturatingAdd(st.Failures)
	r.byBase[base] = st
	if st.Failures >= r.failureThreshold {
		delete(r.byBase, base)
		return st, true
	}
	return st, false
}

// Remove evicts a peer unconditionally.
func (r *Registry) Remove(base string) {
	delete(r.byBase, base)
}

// Get returns a peer's current status.
func (r *Registry) Get(base string) (Status, bool) {
	st, ok := r.byBase[base]
	return st, ok
}

// Bases returns every known peer's base URL in unspecified order.
func (r *Registry) Bases() []string {
	out := make([]string, 0, len(r.byBase))
	for base := range r.byBase {
		out = append(out, base)
	}
	return out
}
