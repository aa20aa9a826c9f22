// Package karma implements the single-use, direction-locking,
// revocable voting state machine driven by out-of-band karma codes.
package karma

import (
	"encoding/json"
	"fmt"
	"time"
)

// Direction is the locked sum type for a code's vote, kept as a Go enum
// at the domain boundary and converted to/from the wire strings
// "upvote"/"downvote" only at JSON (un)marshaling time.
type Direction int

const (
	Upvote Direction = iota
	Downvote
)

func (d Direction) String() string {
	if d == Downvote {
		return "downvote"
	}
	return "upvote"
}

func (d Direction) delta() int32 {
	if d == Downvote {
		return -1
	}
	return 1
}

// ParseDirection converts the wire string into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "upvote":
		return Upvote, true
	case "downvote":
		return Downvote, true
	default:
		return 0, false
	}
}

// MarshalJSON renders a Direction as its wire string.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a Direction from its wire string.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := ParseDirection(s)
	if !ok {
		return fmt.Errorf("karma: invalid vote direction %q", s)
	}
	*d = parsed
	return nil
}

// Region is recorded on a KarmaCode but never enforced against a Post's
// coordinates by this implementation (spec.md §3, §9).
type Region struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKM float64 `json:"radius_km"`
}

// Code is a single-use voting credential, format AAAAA-BBBBB.
type Code struct {
	Code          string     `json:"code"`
	Issuer        string     `json:"issuer"`
	VoteType      *Direction `json:"type,omitempty"`
	Expires       time.Time  `json:"expires"`
	Region        *Region    `json:"region,omitempty"`
	CurrentPost   *string    `json:"current_post,omitempty"`
	UsedDirection *Direction `json:"used_direction,omitempty"`
}

// Metadata is the reduced view returned by a per-code lookup.
type Metadata struct {
	Code        string    `json:"code"`
	Expires     time.Time `json:"expires"`
	CurrentPost *string   `json:"currentPost,omitempty"`
}
