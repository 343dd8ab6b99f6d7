package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/courtside/pickleball-backend/models"
)

var (
	ErrRoundRobinMatchNotFound = errors.New("round-robin match not found")
	// ErrScoreVersionConflict signals that the caller's expected version no
	// longer matches the stored row. The service layer reads the current row
	// and reports it back to the client.
	ErrScoreVersionConflict = errors.New("score version conflict")
)

type RoundRobinRepository interface {
	CreateMatches(ctx context.Context, exec SQLExecutor, matches []models.RoundRobinMatch) error
	GetMatch(ctx context.Context, matchID int) (*models.RoundRobinMatch, error)
	ListMatches(ctx context.Context, tournamentID int) ([]models.RoundRobinMatch, error)
	ListScores(ctx context.Context, tournamentID int) (map[int]*models.RoundRobinScore, error)
	GetScore(ctx context.Context, matchID int) (*models.RoundRobinScore, error)
	UpsertScore(ctx context.Context, score *models.RoundRobinScore, expectedVersion int) error
	DeleteScore(ctx context.Context, matchID int, expectedVersion int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresRoundRobinRepository struct {
	db *sql.DB
}

func NewPostgresRoundRobinRepository(db *sql.DB) RoundRobinRepository {
	return &postgresRoundRobinRepository{db: db}
}

func (r *postgresRoundRobinRepository) CreateMatches(ctx context.Context, exec SQLExecutor, matches []models.RoundRobinMatch) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	now := time.Now()
	for i := range matches {
		err := executor.QueryRowContext(ctx, `
			INSERT INTO round_robin_matches (tournament_id, round, team1_id, team2_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			matches[i].TournamentID, matches[i].Round,
			matches[i].Team1ID, matches[i].Team2ID, now,
		).Scan(&matches[i].ID, &matches[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRoundRobinRepository) GetMatch(ctx context.Context, matchID int) (*models.RoundRobinMatch, error) {
	match := &models.RoundRobinMatch{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, round, team1_id, team2_id, created_at
		FROM round_robin_matches WHERE id = $1`, matchID,
	).Scan(&match.ID, &match.TournamentID, &match.Round,
		&match.Team1ID, &match.Team2ID, &match.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundRobinMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresRoundRobinRepository) ListMatches(ctx context.Context, tournamentID int) ([]models.RoundRobinMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, round, team1_id, team2_id, created_at
		FROM round_robin_matches
		WHERE tournament_id = $1
		ORDER BY round, id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.RoundRobinMatch
	for rows.Next() {
		var m models.RoundRobinMatch
		err := rows.Scan(&m.ID, &m.TournamentID, &m.Round,
			&m.Team1ID, &m.Team2ID, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresRoundRobinRepository) ListScores(ctx context.Context, tournamentID int) (map[int]*models.RoundRobinScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.match_id, s.score1, s.score2, s.version, s.updated_at
		FROM round_robin_scores s
		JOIN round_robin_matches m ON m.id = s.match_id
		WHERE m.tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make(map[int]*models.RoundRobinScore)
	for rows.Next() {
		s := &models.RoundRobinScore{}
		err := rows.Scan(&s.MatchID, &s.Score1, &s.Score2, &s.Version, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		scores[s.MatchID] = s
	}
	return scores, rows.Err()
}

// GetScore never returns a not-found error: an absent row is a valid score
// with version 0.
func (r *postgresRoundRobinRepository) GetScore(ctx context.Context, matchID int) (*models.RoundRobinScore, error) {
	s := &models.RoundRobinScore{MatchID: matchID}
	err := r.db.QueryRowContext(ctx, `
		SELECT match_id, score1, score2, version, updated_at
		FROM round_robin_scores WHERE match_id = $1`, matchID,
	).Scan(&s.MatchID, &s.Score1, &s.Score2, &s.Version, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.RoundRobinScore{MatchID: matchID, Version: 0}, nil
		}
		return nil, err
	}
	return s, nil
}

// UpsertScore performs the optimistic write. With expectedVersion 0 a single
// conditional insert covers both "no row" and "row was concurrently created":
// the ON CONFLICT arm only fires when the stored version is still 0, which a
// real row never is. Any write that matches zero rows is a version conflict.
func (r *postgresRoundRobinRepository) UpsertScore(ctx context.Context, score *models.RoundRobinScore, expectedVersion int) error {
	now := time.Now()
	if expectedVersion == 0 {
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO round_robin_scores (match_id, score1, score2, version, updated_at)
			VALUES ($1, $2, $3, 1, $4)
			ON CONFLICT (match_id) DO UPDATE
				SET score1 = EXCLUDED.score1,
				    score2 = EXCLUDED.score2,
				    version = round_robin_scores.version + 1,
				    updated_at = EXCLUDED.updated_at
				WHERE round_robin_scores.version = 0
			RETURNING version, updated_at`,
			score.MatchID, score.Score1, score.Score2, now,
		).Scan(&score.Version, &score.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScoreVersionConflict
		}
		return err
	}

	err := r.db.QueryRowContext(ctx, `
		UPDATE round_robin_scores
		SET score1 = $1, score2 = $2, version = version + 1, updated_at = $3
		WHERE match_id = $4 AND version = $5
		RETURNING version, updated_at`,
		score.Score1, score.Score2, now, score.MatchID, expectedVersion,
	).Scan(&score.Version, &score.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScoreVersionConflict
	}
	return err
}

// DeleteScore removes the row only when the expected version still holds.
// Deleting an absent row with expectedVersion 0 is a no-op success.
func (r *postgresRoundRobinRepository) DeleteScore(ctx context.Context, matchID int, expectedVersion int) error {
	if expectedVersion == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM round_robin_scores WHERE match_id = $1)`, matchID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrScoreVersionConflict
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM round_robin_scores WHERE match_id = $1 AND version = $2`,
		matchID, expectedVersion)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScoreVersionConflict)
}

func (r *postgresRoundRobinRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	_, err := executor.ExecContext(ctx, `
		DELETE FROM round_robin_scores
		WHERE match_id IN (SELECT id FROM round_robin_matches WHERE tournament_id = $1)`,
		tournamentID)
	if err != nil {
		return err
	}
	_, err = executor.ExecContext(ctx,
		`DELETE FROM round_robin_matches WHERE tournament_id = $1`, tournamentID)
	return err
}
