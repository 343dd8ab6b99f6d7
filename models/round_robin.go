package models

import "time"

// RoundRobinMatch is generated once when the round-robin starts and is
// immutable until a full reset.
type RoundRobinMatch struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Round        int       `json:"round" db:"round"`
	Team1ID      int       `json:"team1_id" db:"team1_id"`
	Team2ID      int       `json:"team2_id" db:"team2_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RoundRobinScore is the 0-or-1 score row of a match. Version 0 means the
// row is logically absent.
type RoundRobinScore struct {
	MatchID   int       `json:"match_id" db:"match_id"`
	Score1    *int      `json:"score1" db:"score1"`
	Score2    *int      `json:"score2" db:"score2"`
	Version   int       `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Decided reports whether the match produced a winner: both sides recorded
// and unequal. A tie or missing score contributes nothing to standings.
func (s *RoundRobinScore) Decided() bool {
	return s != nil && s.Score1 != nil && s.Score2 != nil && *s.Score1 != *s.Score2
}
