// Package aiclient wraps the generative-AI collaborators behind narrow
// capability interfaces so the core logic stays testable with fakes.
package aiclient

import (
	"context"
	"errors"
)

// ErrUnknown means the identification call came back without a confident
// match. Callers treat service failures the same way.
var ErrUnknown = errors.New("no confident match")

// Candidate is one roster entry offered to the identification call.
type Candidate struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Foto   string `json:"fotoUrl,omitempty"`
}

// Identifier matches a captured frame against the candidate roster.
type Identifier interface {
	// Identify returns the matched member id, or ErrUnknown.
	Identify(ctx context.Context, imageJPEG []byte, candidates []Candidate) (string, error)
}

// Composer produces short WhatsApp-ready notification texts.
type Composer interface {
	ComposeTemplate(ctx context.Context, kind, memberName, tone string) (string, error)
}

// Analyst summarizes gym stats for the dashboard.
type Analyst interface {
	AnalyticsSummary(ctx context.Context, statsJSON string) (string, error)
}
