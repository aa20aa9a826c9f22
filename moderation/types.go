// Package moderation implements the report/label workflow: an
// append/list/accept/delete report queue and the per-node label
// dictionary, both driven by trusted admin operators.
package moderation

import (
	"time"

	"github.com/openherd/cow/envelope"
)

// SubmittedReport is the narrow wire shape a client may submit. The
// server stamps ReportedAt, ReporterIP, and ID itself; a client cannot
// set them, since the full Report type is never decoded directly from
// client JSON.
type SubmittedReport struct {
	Post   envelope.Envelope `json:"post"`
	Reason string            `json:"reason"`
}

// Report is a filed moderation report against a post. ReportedAt,
// ReporterIP, and ID are server-stamped and cannot be set by a
// submitting client, since SubmittedReport is the only type ever
// decoded from client JSON. They do serialize on output, since the
// admin report listing (POST /admin/reports) needs to show who filed
// a report and when.
type Report struct {
	ID         string            `json:"id"`
	Post       envelope.Envelope `json:"post"`
	Reason     string            `json:"reason"`
	ReportedAt time.Time         `json:"reported_at,omitempty"`
	ReporterIP string            `json:"reporter_ip,omitempty"`
}

// Label is a named, admin-defined moderation tag.
type Label struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Action is the admin request body for accepting a report.
type Action struct {
	ReportID string  `json:"report_id"`
	Label    *string `json:"label,omitempty"`
}
