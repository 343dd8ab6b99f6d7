package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/courtside/pickleball-backend/models"
)

var ErrPlayoffNotFound = errors.New("playoff not found")

type PlayoffRepository interface {
	CreateState(ctx context.Context, exec SQLExecutor, state *models.PlayoffState) error
	GetState(ctx context.Context, tournamentID int) (*models.PlayoffState, error)
	ListScores(ctx context.Context, tournamentID int) ([]models.PlayoffScore, error)
	GetScore(ctx context.Context, tournamentID, round, match int) (*models.PlayoffScore, error)
	UpsertScore(ctx context.Context, score *models.PlayoffScore, expectedVersion int) error
	DeleteScore(ctx context.Context, tournamentID, round, match int, expectedVersion int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPlayoffRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffRepository(db *sql.DB) PlayoffRepository {
	return &postgresPlayoffRepository{db: db}
}

func (r *postgresPlayoffRepository) CreateState(ctx context.Context, exec SQLExecutor, state *models.PlayoffState) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	return executor.QueryRowContext(ctx, `
		INSERT INTO playoff_state
			(tournament_id, team_count, bracket_size, seed_order,
			 final_best_of_three, bronze_best_of_three, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		state.TournamentID, state.TeamCount, state.BracketSize,
		pq.Array(state.SeedOrder), state.FinalBestOfThree,
		state.BronzeBestOfThree, time.Now(),
	).Scan(&state.CreatedAt)
}

func (r *postgresPlayoffRepository) GetState(ctx context.Context, tournamentID int) (*models.PlayoffState, error) {
	state := &models.PlayoffState{}
	var seedOrder pq.Int64Array
	err := r.db.QueryRowContext(ctx, `
		SELECT tournament_id, team_count, bracket_size, seed_order,
		       final_best_of_three, bronze_best_of_three, created_at
		FROM playoff_state WHERE tournament_id = $1`, tournamentID,
	).Scan(&state.TournamentID, &state.TeamCount, &state.BracketSize,
		&seedOrder, &state.FinalBestOfThree, &state.BronzeBestOfThree,
		&state.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffNotFound
		}
		return nil, err
	}
	state.SeedOrder = make([]int, len(seedOrder))
	for i, id := range seedOrder {
		state.SeedOrder[i] = int(id)
	}
	return state, nil
}

func (r *postgresPlayoffRepository) ListScores(ctx context.Context, tournamentID int) ([]models.PlayoffScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tournament_id, round, match,
		       g1_score1, g1_score2, g2_score1, g2_score2, g3_score1, g3_score2,
		       version, updated_at
		FROM playoff_scores
		WHERE tournament_id = $1
		ORDER BY round, match`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []models.PlayoffScore
	for rows.Next() {
		s, err := scanPlayoffScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

// GetScore returns a zero-version score for slots that were never written.
func (r *postgresPlayoffRepository) GetScore(ctx context.Context, tournamentID, round, match int) (*models.PlayoffScore, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT tournament_id, round, match,
		       g1_score1, g1_score2, g2_score1, g2_score2, g3_score1, g3_score2,
		       version, updated_at
		FROM playoff_scores
		WHERE tournament_id = $1 AND round = $2 AND match = $3`,
		tournamentID, round, match)
	s, err := scanPlayoffScore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.PlayoffScore{
				TournamentID: tournamentID,
				Round:        round,
				Match:        match,
				Version:      0,
			}, nil
		}
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayoffScore(row rowScanner) (*models.PlayoffScore, error) {
	s := &models.PlayoffScore{}
	err := row.Scan(&s.TournamentID, &s.Round, &s.Match,
		&s.Games[0].Score1, &s.Games[0].Score2,
		&s.Games[1].Score1, &s.Games[1].Score2,
		&s.Games[2].Score1, &s.Games[2].Score2,
		&s.Version, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpsertScore mirrors the round-robin write: expectedVersion 0 is a
// conditional insert whose conflict arm only matches a version-0 row, any
// other expectation is a conditional update. Zero rows means conflict.
func (r *postgresPlayoffRepository) UpsertScore(ctx context.Context, score *models.PlayoffScore, expectedVersion int) error {
	now := time.Now()
	if expectedVersion == 0 {
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO playoff_scores
				(tournament_id, round, match,
				 g1_score1, g1_score2, g2_score1, g2_score2, g3_score1, g3_score2,
				 version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
			ON CONFLICT (tournament_id, round, match) DO UPDATE
				SET g1_score1 = EXCLUDED.g1_score1, g1_score2 = EXCLUDED.g1_score2,
				    g2_score1 = EXCLUDED.g2_score1, g2_score2 = EXCLUDED.g2_score2,
				    g3_score1 = EXCLUDED.g3_score1, g3_score2 = EXCLUDED.g3_score2,
				    version = playoff_scores.version + 1,
				    updated_at = EXCLUDED.updated_at
				WHERE playoff_scores.version = 0
			RETURNING version, updated_at`,
			score.TournamentID, score.Round, score.Match,
			score.Games[0].Score1, score.Games[0].Score2,
			score.Games[1].Score1, score.Games[1].Score2,
			score.Games[2].Score1, score.Games[2].Score2,
			now,
		).Scan(&score.Version, &score.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScoreVersionConflict
		}
		return err
	}

	err := r.db.QueryRowContext(ctx, `
		UPDATE playoff_scores
		SET g1_score1 = $1, g1_score2 = $2,
		    g2_score1 = $3, g2_score2 = $4,
		    g3_score1 = $5, g3_score2 = $6,
		    version = version + 1, updated_at = $7
		WHERE tournament_id = $8 AND round = $9 AND match = $10 AND version = $11
		RETURNING version, updated_at`,
		score.Games[0].Score1, score.Games[0].Score2,
		score.Games[1].Score1, score.Games[1].Score2,
		score.Games[2].Score1, score.Games[2].Score2,
		now, score.TournamentID, score.Round, score.Match, expectedVersion,
	).Scan(&score.Version, &score.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScoreVersionConflict
	}
	return err
}

func (r *postgresPlayoffRepository) DeleteScore(ctx context.Context, tournamentID, round, match int, expectedVersion int) error {
	if expectedVersion == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM playoff_scores
				WHERE tournament_id = $1 AND round = $2 AND match = $3)`,
			tournamentID, round, match,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrScoreVersionConflict
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM playoff_scores
		WHERE tournament_id = $1 AND round = $2 AND match = $3 AND version = $4`,
		tournamentID, round, match, expectedVersion)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScoreVersionConflict)
}

func (r *postgresPlayoffRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	_, err := executor.ExecContext(ctx,
		`DELETE FROM playoff_scores WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return err
	}
	_, err = executor.ExecContext(ctx,
		`DELETE FROM playoff_state WHERE tournament_id = $1`, tournamentID)
	return err
}
