package models

// Defaults applied when a tournament has no settings row.
const (
	DefaultMaxTeams         = 16
	DefaultRoundRobinRounds = 6
	DefaultPlayoffTeamCount = 4
)

// TournamentSettings is read-only input to the state machine; mutation is
// plain CRUD on the admin side.
type TournamentSettings struct {
	TournamentID      int     `json:"tournament_id" db:"tournament_id"`
	MaxTeams          int     `json:"max_teams" db:"max_teams"`
	RoundRobinRounds  int     `json:"round_robin_rounds" db:"round_robin_rounds"`
	PlayoffTeamCount  int     `json:"playoff_team_count" db:"playoff_team_count"`
	FinalBestOfThree  bool    `json:"final_best_of_three" db:"final_best_of_three"`
	BronzeBestOfThree bool    `json:"bronze_best_of_three" db:"bronze_best_of_three"`
	RequiredDuprTier  *string `json:"required_dupr_tier,omitempty" db:"required_dupr_tier"`
}

func DefaultSettings(tournamentID int) *TournamentSettings {
	return &TournamentSettings{
		TournamentID:     tournamentID,
		MaxTeams:         DefaultMaxTeams,
		RoundRobinRounds: DefaultRoundRobinRounds,
		PlayoffTeamCount: DefaultPlayoffTeamCount,
	}
}
