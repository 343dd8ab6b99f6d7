package models

import "time"

type SubmittedMatchStatus string

const (
	SubmittedMatchSubmitted SubmittedMatchStatus = "submitted"
	SubmittedMatchUpdated   SubmittedMatchStatus = "updated"
	SubmittedMatchDeleted   SubmittedMatchStatus = "deleted"
)

type VerificationStatus string

const (
	VerificationUnset    VerificationStatus = ""
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "verify_failed"
)

// MatchSource says which phase a submitted match came from.
type MatchSource string

const (
	SourceRoundRobin MatchSource = "round_robin"
	SourcePlayoff    MatchSource = "playoff"
)

// SubmittedMatch is the durable audit record of one match payload sent to
// the rating provider.
type SubmittedMatch struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Identifier   string      `json:"identifier" db:"identifier"`
	Source       MatchSource `json:"source" db:"source"`
	Round        int         `json:"round" db:"round"`
	MatchRef     int         `json:"match_ref" db:"match_ref"`
	BracketLabel string      `json:"bracket_label" db:"bracket_label"`
	MatchDate    time.Time   `json:"match_date" db:"match_date"`

	Team1Player1DuprID string `json:"team1_player1_dupr_id" db:"team1_player1_dupr_id"`
	Team1Player2DuprID string `json:"team1_player2_dupr_id" db:"team1_player2_dupr_id"`
	Team2Player1DuprID string `json:"team2_player1_dupr_id" db:"team2_player1_dupr_id"`
	Team2Player2DuprID string `json:"team2_player2_dupr_id" db:"team2_player2_dupr_id"`

	// The provider accepts up to five games per match.
	Games []Game `json:"games" db:"-"`

	DuprMatchID   *string `json:"dupr_match_id,omitempty" db:"dupr_match_id"`
	DuprMatchCode *string `json:"dupr_match_code,omitempty" db:"dupr_match_code"`

	Status             SubmittedMatchStatus `json:"status" db:"status"`
	VerificationStatus VerificationStatus   `json:"verification_status" db:"verification_status"`
	VerifyReason       *string              `json:"verify_reason,omitempty" db:"verify_reason"`
	VerifiedAt         *time.Time           `json:"verified_at,omitempty" db:"verified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MatchSubmission logs one batch submission attempt, successful or not, so
// an operator can diagnose upstream failures and gate resubmission.
type MatchSubmission struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Success      bool      `json:"success" db:"success"`
	StatusCode   int       `json:"status_code" db:"status_code"`
	Response     string    `json:"response" db:"response"`
	MatchCount   int       `json:"match_count" db:"match_count"`
	SkippedCount int       `json:"skipped_count" db:"skipped_count"`
	Forced       bool      `json:"forced" db:"forced"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
