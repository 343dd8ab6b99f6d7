package models

import "time"

// Phase is the lifecycle phase of a tournament. A missing tournament_state
// row means PhaseRegistration; the repository resolves the absence, callers
// always see an explicit variant.
type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhaseRoundRobin   Phase = "tournament"
	PhasePlayoff      Phase = "playoff"
)

type TournamentState struct {
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Phase        Phase     `json:"phase" db:"phase"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
