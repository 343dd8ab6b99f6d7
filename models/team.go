package models

import "time"

type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Members []User `json:"members,omitempty" db:"-"`
}

// RatingSum is used only to balance initial round-robin pairings; it never
// seeds the standings.
func (t *Team) RatingSum() float64 {
	var sum float64
	for _, m := range t.Members {
		sum += m.Rating
	}
	return sum
}

// DuprReady reports whether every spot on the team is filled by a player
// with a linked rating-provider account.
func (t *Team) DuprReady() bool {
	if len(t.Members) != 2 {
		return false
	}
	for _, m := range t.Members {
		if m.DuprID == nil || *m.DuprID == "" {
			return false
		}
	}
	return true
}
