package karma

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Engine holds the per-code and per-post karma tables. It carries no
// locking of its own; callers serialize access through the node-wide
// lock described in the concurrency model.
type Engine struct {
	codes map[string]Code
	votes map[string]int32
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{codes: make(map[string]Code), votes: make(map[string]int32)}
}

// GenerateRequest is the admin input for minting new codes. VoteType is
// accepted on the wire but deliberately discarded: generated codes
// always start with an unlocked direction, locking on first use
// (spec.md §4.6, §9).
type GenerateRequest struct {
	Count    int
	Issuer   string
	VoteType string
	Expires  time.Time
	Region   *Region
}

// Generate mints max(req.Count, 1) fresh, unlocked codes.
func (e *Engine) Generate(req GenerateRequest) ([]Code, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	out := make([]Code, 0, count)
	for i := 0; i < count; i++ {
		code, err := randomCode()
		if err != nil {
			return nil, err
		}
		c := Code{
			Code:    code,
			Issuer:  req.Issuer,
			Expires: req.Expires,
			Region:  req.Region,
		}
		e.codes[code] = c
		out = append(out, c)
	}
	return out, nil
}

func randomCode() (string, error) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		if i == 5 {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Vote applies a single-use vote of the given direction against postID,
// identified by its already-validated id.
func (e *Engine) Vote(code string, direction Direction, postID string, now time.Time) error {
	c, ok := e.codes[code]
	if !ok {
		return ErrNotFound
	}
	if c.Expires.Before(now) {
		return ErrExpired
	}
	if c.CurrentPost != nil {
		return ErrAlreadySpent
	}
	if c.VoteType != nil && *c.VoteType != direction {
		return ErrDirectionLocked
	}

	if c.VoteType == nil {
		locked := direction
		c.VoteType = &locked
	}
	usedDir := direction
	c.UsedDirection = &usedDir
	post := postID
	c.CurrentPost = &post
	e.codes[code] = c

	e.votes[postID] += direction.delta()
	return nil
}

// Revoke clears a code's current vote, if any, undoing its contribution
// to karma_votes. The direction lock (VoteType) survives revocation to
// prevent direction-laundering reuse.
func (e *Engine) Revoke(code string) error {
	c, ok := e.codes[code]
	if !ok {
		return ErrNotFound
	}
	if c.CurrentPost != nil {
		dir := Upvote
		if c.UsedDirection != nil {
			dir = *c.UsedDirection
		} else if c.VoteType != nil {
			dir = *c.VoteType
		}
		e.votes[*c.CurrentPost] -= dir.delta()
	}
	c.CurrentPost = nil
	c.UsedDirection = nil
	e.codes[code] = c
	return nil
}

// Scores returns karma_votes[id] for each requested id, in order, 0 for
// unknown posts.
func (e *Engine) Scores(ids []string) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = e.votes[id]
	}
	return out
}

// Metadata returns the reduced public view of a code.
func (e *Engine) Metadata(code string) (Metadata, bool) {
	c, ok := e.codes[code]
	if !ok {
		return Metadata{}, false
	}
	return Metadata{Code: c.Code, Expires: c.Expires, CurrentPost: c.CurrentPost}, true
}
