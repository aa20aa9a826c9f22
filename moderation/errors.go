package moderation

import "errors"

var (
	// ErrReportNotFound is returned by Accept for an unknown report id.
	ErrReportNotFound = errors.New("moderation: report not found")
	// ErrLabelExists is returned by AddLabel for a duplicate label name.
	ErrLabelExists = errors.New("moderation: label already exists")
)
