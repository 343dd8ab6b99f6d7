package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/courtside/pickleball-backend/models"
)

var ErrSettingsNotFound = errors.New("tournament settings not found")

// TournamentStateRepository owns the tournament_state row. Absence of a row
// is resolved here to PhaseRegistration so callers always see an explicit
// phase.
type TournamentStateRepository interface {
	GetPhase(ctx context.Context, exec SQLExecutor, tournamentID int) (models.Phase, error)
	SetPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase models.Phase) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTournamentStateRepository struct {
	db *sql.DB
}

func NewPostgresTournamentStateRepository(db *sql.DB) TournamentStateRepository {
	return &postgresTournamentStateRepository{db: db}
}

func (r *postgresTournamentStateRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentStateRepository) GetPhase(ctx context.Context, exec SQLExecutor, tournamentID int) (models.Phase, error) {
	executor := r.getExecutor(exec)
	var phase models.Phase
	err := executor.QueryRowContext(ctx,
		`SELECT phase FROM tournament_state WHERE tournament_id = $1`, tournamentID,
	).Scan(&phase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PhaseRegistration, nil
		}
		return "", err
	}
	return phase, nil
}

func (r *postgresTournamentStateRepository) SetPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase models.Phase) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO tournament_state (tournament_id, phase, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id) DO UPDATE SET phase = EXCLUDED.phase, updated_at = EXCLUDED.updated_at`,
		tournamentID, phase, time.Now())
	return err
}

func (r *postgresTournamentStateRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_state WHERE tournament_id = $1`, tournamentID)
	return err
}

// SettingsRepository reads per-tournament configuration. Settings are plain
// CRUD on the admin side; the state machine only ever reads them.
type SettingsRepository interface {
	GetByTournament(ctx context.Context, tournamentID int) (*models.TournamentSettings, error)
	Upsert(ctx context.Context, settings *models.TournamentSettings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

// GetByTournament falls back to defaults when no settings row exists.
func (r *postgresSettingsRepository) GetByTournament(ctx context.Context, tournamentID int) (*models.TournamentSettings, error) {
	s := &models.TournamentSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT tournament_id, max_teams, round_robin_rounds, playoff_team_count,
		       final_best_of_three, bronze_best_of_three, required_dupr_tier
		FROM tournament_settings WHERE tournament_id = $1`, tournamentID,
	).Scan(
		&s.TournamentID,
		&s.MaxTeams,
		&s.RoundRobinRounds,
		&s.PlayoffTeamCount,
		&s.FinalBestOfThree,
		&s.BronzeBestOfThree,
		&s.RequiredDuprTier,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(tournamentID), nil
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSettingsRepository) Upsert(ctx context.Context, s *models.TournamentSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tournament_settings
			(tournament_id, max_teams, round_robin_rounds, playoff_team_count,
			 final_best_of_three, bronze_best_of_three, required_dupr_tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tournament_id) DO UPDATE SET
			max_teams = EXCLUDED.max_teams,
			round_robin_rounds = EXCLUDED.round_robin_rounds,
			playoff_team_count = EXCLUDED.playoff_team_count,
			final_best_of_three = EXCLUDED.final_best_of_three,
			bronze_best_of_three = EXCLUDED.bronze_best_of_three,
			required_dupr_tier = EXCLUDED.required_dupr_tier`,
		s.TournamentID, s.MaxTeams, s.RoundRobinRounds, s.PlayoffTeamCount,
		s.FinalBestOfThree, s.BronzeBestOfThree, s.RequiredDuprTier)
	return err
}
