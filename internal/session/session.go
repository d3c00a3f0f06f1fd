// Package session keeps finished analyses so they can be fetched again by id.
//
// Sessions are write-once: a stored id is never overwritten. Backends differ
// only in where the JSON lives (process memory, Redis or S3).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
)

var (
	// ErrNotFound is returned by Get for unknown ids.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned by Put when the id is already stored.
	ErrExists = errors.New("session already exists")
)

// Type distinguishes single analyses from creator reports.
type Type string

const (
	TypeAnalysis Type = "analysis"
	TypeCreator  Type = "creator"
)

// Session is one stored analysis.
type Session struct {
	ID        uuid.UUID          `json:"session_id"`
	Type      Type               `json:"type"`
	Title     string             `json:"title"`
	CreatedAt time.Time          `json:"timestamp"`
	Results   *sentiment.Result  `json:"results,omitempty"`
	Report    *aggregator.Report `json:"data,omitempty"`
}

// NewAnalysis wraps a single classified batch in a fresh session.
func NewAnalysis(clock clockwork.Clock, title string, results *sentiment.Result) *Session {
	return &Session{
		ID:        uuid.New(),
		Type:      TypeAnalysis,
		Title:     title,
		CreatedAt: clock.Now(),
		Results:   results,
	}
}

// NewCreator wraps a creator report in a fresh session.
func NewCreator(clock clockwork.Clock, report *aggregator.Report) *Session {
	return &Session{
		ID:        uuid.New(),
		Type:      TypeCreator,
		Title:     report.CreatorName,
		CreatedAt: clock.Now(),
		Report:    report,
	}
}

// Store persists sessions by id.
type Store interface {
	// Put stores s. It returns ErrExists if s.ID is already taken.
	Put(ctx context.Context, s *Session) error
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
}

func key(prefix string, id uuid.UUID) string {
	return prefix + id.String()
}
