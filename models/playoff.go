package models

import "time"

// PlayoffState is created exactly once per playoff start. SeedOrder is fixed
// at creation (index 0 = seed 1) and never re-seeded mid-playoff.
type PlayoffState struct {
	TournamentID      int       `json:"tournament_id" db:"tournament_id"`
	TeamCount         int       `json:"team_count" db:"team_count"`
	BracketSize       int       `json:"bracket_size" db:"bracket_size"`
	SeedOrder         []int     `json:"seed_order" db:"seed_order"`
	FinalBestOfThree  bool      `json:"final_best_of_three" db:"final_best_of_three"`
	BronzeBestOfThree bool      `json:"bronze_best_of_three" db:"bronze_best_of_three"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Game is one game's score pair. Both sides nil means "not played".
type Game struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

// Empty reports whether neither side has a value.
func (g Game) Empty() bool { return g.Score1 == nil && g.Score2 == nil }

// Complete reports whether both sides have a value.
func (g Game) Complete() bool { return g.Score1 != nil && g.Score2 != nil }

// Decided reports whether the game has an unambiguous winner.
func (g Game) Decided() bool { return g.Complete() && *g.Score1 != *g.Score2 }

// MaxPlayoffGames bounds a series; only the gold final and the bronze match
// may use more than the first game, and only when flagged best-of-three.
const MaxPlayoffGames = 3

// PlayoffScore holds up to three games for one bracket slot, guarded by an
// optimistic version. Version 0 means no row was ever written.
type PlayoffScore struct {
	TournamentID int                   `json:"tournament_id" db:"tournament_id"`
	Round        int                   `json:"round" db:"round"`
	Match        int                   `json:"match" db:"match"`
	Games        [MaxPlayoffGames]Game `json:"games"`
	Version      int                   `json:"version" db:"version"`
	UpdatedAt    time.Time             `json:"updated_at" db:"updated_at"`
}
