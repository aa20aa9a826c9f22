package store

import "github.com/openherd/cow/envelope"

// Index is the in-memory mirror of the Durable Store and the primary read
// surface for the outbox and sync paths. It carries no ordering
// guarantee and no locking of its own: callers serialize access to it
// through the node-wide lock described in the concurrency model.
type Index struct {
	byID map[string]envelope.Envelope
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]envelope.Envelope)}
}

// Put inserts or overwrites the envelope for its id.
func (idx *Index) Put(env envelope.Envelope) {
	idx.byID[env.ID] = env
}

// Get returns the envelope for id, if present.
func (idx *Index) Get(id string) (envelope.Envelope, bool) {
	env, ok := idx.byID[id]
	return env, ok
}

// Len reports the number of envelopes currently indexed.
func (idx *Index) Len() int {
	return len(idx.byID)
}

// All returns every indexed envelope in unspecified order.
func (idx *Index) All() []envelope.Envelope {
	out := make([]envelope.Envelope, 0, len(idx.byID))
	for _, env := range idx.byID {
		out = append(out, env)
	}
	return out
}

// Take returns up to n indexed envelopes in unspecified order, for the
// Sync Engine's bounded push snapshot.
func (idx *Index) Take(n int) []envelope.Envelope {
	if n >= len(idx.byID) {
		return idx.All()
	}
	out := make([]envelope.Envelope, 0, n)
	for _, env := range idx.byID {
		if len(out) >= n {
			break
		}
		out = append(out, env)
	}
	return out
}
