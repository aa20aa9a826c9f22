package moderation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Queue holds the moderation report list, the label dictionary, and the
// post -> label assignments. It carries no locking of its own; callers
// serialize access through the node-wide lock.
type Queue struct {
	reports    []Report
	labelDefs  map[string]string
	postLabels map[string]string
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		labelDefs:  make(map[string]string),
		postLabels: make(map[string]string),
	}
}

// Submit appends each report whose reason is not whitespace-only,
// server-stamping id, reportedAt (now), and reporterIP (shared across
// the whole batch, since a batch arrives in a single HTTP request).
func (q *Queue) Submit(submitted []SubmittedReport, now time.Time, reporterIP string) int {
	accepted := 0
	for _, s := range submitted {
		if strings.TrimSpace(s.Reason) == "" {
			continue
		}
		q.reports = append(q.reports, Report{
			ID:         uuid.New().String(),
			Post:       s.Post,
			Reason:     s.Reason,
			ReportedAt: now,
			ReporterIP: reporterIP,
		})
		accepted++
	}
	return accepted
}

// List returns every queued report in submission order.
func (q *Queue) List() []Report {
	out := make([]Report, len(q.reports))
	copy(out, q.reports)
	return out
}

// Accept removes the named report, optionally assigning a label to its
// post, and returns ErrReportNotFound if no such report is queued.
func (q *Queue) Accept(reportID string, label *string) error {
	for i, r := range q.reports {
		if r.ID != reportID {
			continue
		}
		if label != nil {
			q.postLabels[r.Post.ID] = *label
		}
		q.reports = append(q.reports[:i], q.reports[i+1:]...)
		return nil
	}
	return ErrReportNotFound
}

// Delete removes the named report unconditionally; a missing id is not
// an error, matching the spec's "retain" semantics.
func (q *Queue) Delete(reportID string) {
	for i, r := range q.reports {
		if r.ID == reportID {
			q.reports = append(q.reports[:i], q.reports[i+1:]...)
			return
		}
	}
}

// LabelFor returns the label assigned to a post id, if any.
func (q *Queue) LabelFor(postID string) (string, bool) {
	label, ok := q.postLabels[postID]
	return label, ok
}

// Labels returns every defined label in unspecified order.
func (q *Queue) Labels() []Label {
	out := make([]Label, 0, len(q.labelDefs))
	for name, desc := range q.labelDefs {
		out = append(out, Label{Name: name, Description: desc})
	}
	return out
}

// AddLabel defines a new label, rejecting a duplicate name.
func (q *Queue) AddLabel(name, description string) error {
	if _, exists := q.labelDefs[name]; exists {
		return ErrLabelExists
	}
	q.labelDefs[name] = description
	return nil
}

// DeleteLabel removes a label definition and strips it from every post
// currently carrying it.
func (q *Queue) DeleteLabel(name string) {
	delete(q.labelDefs, name)
	for postID, label := range q.postLabels {
		if label == name {
			delete(q.postLabels, postID)
		}
	}
}

// LoadLabelDefs replaces the label dictionary wholesale, used during
// startup to restore it from disk.
func (q *Queue) LoadLabelDefs(defs map[string]string) {
	q.labelDefs = defs
}

// LabelDefsSnapshot returns a copy of the label dictionary for
// persistence.
func (q *Queue) LabelDefsSnapshot() map[string]string {
	out := make(map[string]string, len(q.labelDefs))
	for k, v := range q.labelDefs {
		out[k] = v
	}
	return out
}
