// Package node wires the Durable Store, In-Memory Index, Peer Registry,
// Karma Engine, and Moderation Queue behind the single process-wide
// lock the concurrency model requires (spec.md §5): a handler acquires
// State.mu, performs its mutation, and releases it before returning.
// Components that need to perform network I/O (Sync Engine, Peer
// Monitor) never hold the lock across that I/O; they call back into the
// narrow per-mutation methods here instead.
package node

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/openherd/cow/envelope"
	"github.com/openherd/cow/karma"
	"github.com/openherd/cow/moderation"
	"github.com/openherd/cow/observability/logging"
	"github.com/openherd/cow/peer"
	"github.com/openherd/cow/store"
	"github.com/openherd/cow/syncengine"
)

// Config carries the operational paths and tunables a State needs at
// construction time.
type Config struct {
	LabelsPath           string
	PeerFailureThreshold uint8
}

// State is the node's single coarse-locked core: the Index, Peer
// Registry, Karma Engine, Moderation Queue, and admin password list.
type State struct {
	mu sync.Mutex

	durable *store.Durable
	index   *store.Index
	peers   *peer.Registry
	karma   *karma.Engine
	mod     *moderation.Queue

	adminPasswords []string
	labelsPath     string
	logger         *slog.Logger
}

// New constructs a State over an already-open Durable Store. Callers
// should run Rehydrate against the same durable/index pair before
// serving traffic.
func New(durable *store.Durable, cfg Config, logger *slog.Logger) (*State, error) {
	labelDefs, err := moderation.LoadLabelsFile(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	mod := moderation.NewQueue()
	mod.LoadLabelDefs(labelDefs)

	passwords, err := loadAdminPasswords(durable)
	if err != nil {
		return nil, err
	}

	return &State{
		durable:        durable,
		index:          store.NewIndex(),
		peers:          peer.NewRegistry(cfg.PeerFailureThreshold),
		karma:          karma.NewEngine(),
		mod:            mod,
		adminPasswords: passwords,
		labelsPath:     cfg.LabelsPath,
		logger:         logger,
	}, nil
}

// Index exposes the in-memory index for startup rehydration only; all
// other access goes through State's locked methods.
func (s *State) Index() *store.Index { return s.index }

// Durable exposes the durable store for startup rehydration only.
func (s *State) Durable() *store.Durable { return s.durable }

func loadAdminPasswords(d *store.Durable) ([]string, error) {
	raw, ok, err := d.GetReserved(store.AdminPasswordsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	var passwords []string
	if err := json.Unmarshal(raw, &passwords); err != nil {
		return nil, err
	}
	return passwords, nil
}

// --- Envelopes -------------------------------------------------------

// AcceptEnvelope durably stores and indexes an already-validated
// envelope. Store errors are logged and swallowed: the index still
// reflects the write, and sync remains functional (spec.md §7).
func (s *State) AcceptEnvelope(env envelope.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acceptEnvelopeLocked(env)
}

func (s *State) acceptEnvelopeLocked(env envelope.Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("failed to serialize envelope", slog.String("id", env.ID), slog.Any("error", err))
	} else if err := s.durable.InsertPost(env.ID, raw); err != nil {
		s.logger.Warn("failed to persist envelope", slog.String("id", env.ID), slog.Any("error", err))
	}
	s.index.Put(env)
}

// AcceptEnvelopes runs AcceptEnvelope for a whole batch under a single
// lock acquisition, then flushes once, matching the batch durability
// contract in spec.md §4.2/§4.5.
func (s *State) AcceptEnvelopes(envs []envelope.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, env := range envs {
		s.acceptEnvelopeLocked(env)
	}
	if err := s.durable.Flush(); err != nil {
		s.logger.Warn("failed to flush durable store", slog.Any("error", err))
	}
}

// Outbox returns every indexed envelope.
func (s *State) Outbox() []envelope.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.All()
}

// OutboxSnapshot returns up to n indexed envelopes, for the Sync
// Engine's bounded push.
func (s *State) OutboxSnapshot(n int) []envelope.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Take(n)
}

// --- Admin passwords ---------------------------------------------------

// IsAdmin reports whether password is in the admin password list.
func (s *State) IsAdmin(password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.adminPasswords {
		if p == password {
			return true
		}
	}
	return false
}

// EnrollAdmin appends password to the admin list and persists it.
func (s *State) EnrollAdmin(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.adminPasswords {
		if p == password {
			return nil
		}
	}
	s.adminPasswords = append(s.adminPasswords, password)
	return s.persistAdminPasswordsLocked()
}

// DenrollAdmin removes password from the admin list and persists it.
func (s *State) DenrollAdmin(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.adminPasswords[:0]
	for _, p := range s.adminPasswords {
		if p != password {
			out = append(out, p)
		}
	}
	s.adminPasswords = out
	return s.persistAdminPasswordsLocked()
}

func (s *State) persistAdminPasswordsLocked() error {
	raw, err := json.Marshal(s.adminPasswords)
	if err != nil {
		return err
	}
	return s.durable.PutReserved(store.AdminPasswordsKey, raw)
}

// --- Peers ---------------------------------------------------------

// PeerBases returns every known peer base URL.
func (s *State) PeerBases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers.Bases()
}

// RecordPeerSuccess upserts a peer after a successful sync or probe.
func (s *State) RecordPeerSuccess(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers.RecordSuccess(base, time.Now().UTC())
}

// RecordPeerFailure records a failed probe, evicting the peer once its
// failure threshold is reached.
func (s *State) RecordPeerFailure(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers.RecordFailure(base)
}

// MonitorCallbacks returns the Callbacks the Peer Monitor should use,
// each of which acquires State.mu only for the duration of one local
// mutation.
func (s *State) MonitorCallbacks() peer.Callbacks {
	return peer.Callbacks{
		Snapshot:  s.PeerBases,
		OnSuccess: s.RecordPeerSuccess,
		OnFailure: s.RecordPeerFailure,
	}
}

// SyncCallbacks returns the Callbacks the Sync Engine should use, each
// of which acquires State.mu only for the duration of one local
// mutation, never across the Engine's HTTP calls.
func (s *State) SyncCallbacks() syncengine.Callbacks {
	return syncengine.Callbacks{
		AcceptEnvelopes:   s.AcceptEnvelopes,
		OutboxSnapshot:    s.OutboxSnapshot,
		RecordPeerSuccess: s.RecordPeerSuccess,
	}
}

// --- Karma -----------------------------------------------------------

// GenerateKarmaCodes mints new codes.
func (s *State) GenerateKarmaCodes(req karma.GenerateRequest) ([]karma.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma.Generate(req)
}

// VoteKarma applies a vote. The code is resolved against the karma
// engine before the envelope is validated (spec.md §4.6: unknown code
// is 404, malformed envelope is 400, in that order), so an invalid
// envelope never masks a 404 for a code that was never issued.
func (s *State) VoteKarma(code string, direction karma.Direction, env envelope.Envelope) (*envelope.ValidationError, error) {
	s.mu.Lock()
	_, known := s.karma.Metadata(code)
	s.mu.Unlock()
	if !known {
		return nil, karma.ErrNotFound
	}

	post, verr := envelope.Validate(env)
	if verr != nil {
		return verr, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, s.karma.Vote(code, direction, post.ID, time.Now().UTC())
}

// RevokeKarma clears a code's current vote.
func (s *State) RevokeKarma(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma.Revoke(code)
}

// KarmaScores looks up karma_votes for each post id.
func (s *State) KarmaScores(ids []string) []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma.Scores(ids)
}

// KarmaMetadata returns a code's reduced public view.
func (s *State) KarmaMetadata(code string) (karma.Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma.Metadata(code)
}

// --- Moderation --------------------------------------------------------

// SubmitReports appends each well-formed report.
func (s *State) SubmitReports(reports []moderation.SubmittedReport, reporterIP string) int {
	s.mu.Lock()
	accepted := s.mod.Submit(reports, time.Now().UTC(), reporterIP)
	s.mu.Unlock()
	s.logger.Info("received moderation reports", slog.Int("accepted", accepted), logging.MaskField("reporter_ip", reporterIP))
	return accepted
}

// ListReports returns every queued report.
func (s *State) ListReports() []moderation.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mod.List()
}

// AcceptReport accepts a report, optionally labeling its post.
func (s *State) AcceptReport(reportID string, label *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mod.Accept(reportID, label)
}

// DeleteReport removes a queued report.
func (s *State) DeleteReport(reportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mod.Delete(reportID)
}

// LabelFor returns the label assigned to a post id, if any.
func (s *State) LabelFor(postID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mod.LabelFor(postID)
}

// Labels returns every defined label.
func (s *State) Labels() []moderation.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mod.Labels()
}

// AddLabel defines a new label and persists the dictionary.
func (s *State) AddLabel(name, description string) error {
	s.mu.Lock()
	if err := s.mod.AddLabel(name, description); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.mod.LabelDefsSnapshot()
	s.mu.Unlock()
	return moderation.SaveLabelsFile(s.labelsPath, snapshot)
}

// DeleteLabel removes a label definition and persists the dictionary.
func (s *State) DeleteLabel(name string) error {
	s.mu.Lock()
	s.mod.DeleteLabel(name)
	snapshot := s.mod.LabelDefsSnapshot()
	s.mu.Unlock()
	return moderation.SaveLabelsFile(s.labelsPath, snapshot)
}
