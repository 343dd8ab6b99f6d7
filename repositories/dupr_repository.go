package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/courtside/pickleball-backend/models"
)

var ErrSubmittedMatchNotFound = errors.New("submitted match not found")

type DuprRepository interface {
	CreateSubmission(ctx context.Context, submission *models.MatchSubmission) error
	LastSuccessfulSubmission(ctx context.Context, tournamentID int) (*models.MatchSubmission, error)
	ListSubmissions(ctx context.Context, tournamentID int) ([]models.MatchSubmission, error)

	CreateSubmittedMatches(ctx context.Context, matches []models.SubmittedMatch) error
	ListSubmittedMatches(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error)
	ListUnverified(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error)
	GetSubmittedMatch(ctx context.Context, id int) (*models.SubmittedMatch, error)
	UpdateVerification(ctx context.Context, id int, status models.VerificationStatus, reason *string, duprMatchID, duprMatchCode *string) error
	UpdateStatus(ctx context.Context, id int, status models.SubmittedMatchStatus, games []models.Game) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresDuprRepository struct {
	db *sql.DB
}

func NewPostgresDuprRepository(db *sql.DB) DuprRepository {
	return &postgresDuprRepository{db: db}
}

func (r *postgresDuprRepository) CreateSubmission(ctx context.Context, s *models.MatchSubmission) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO match_submissions
			(tournament_id, success, status_code, response, match_count, skipped_count, forced, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		s.TournamentID, s.Success, s.StatusCode, s.Response,
		s.MatchCount, s.SkippedCount, s.Forced, time.Now(),
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *postgresDuprRepository) LastSuccessfulSubmission(ctx context.Context, tournamentID int) (*models.MatchSubmission, error) {
	s := &models.MatchSubmission{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, success, status_code, response,
		       match_count, skipped_count, forced, created_at
		FROM match_submissions
		WHERE tournament_id = $1 AND success = TRUE
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, tournamentID,
	).Scan(&s.ID, &s.TournamentID, &s.Success, &s.StatusCode, &s.Response,
		&s.MatchCount, &s.SkippedCount, &s.Forced, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresDuprRepository) ListSubmissions(ctx context.Context, tournamentID int) ([]models.MatchSubmission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, success, status_code, response,
		       match_count, skipped_count, forced, created_at
		FROM match_submissions
		WHERE tournament_id = $1
		ORDER BY created_at DESC, id DESC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []models.MatchSubmission
	for rows.Next() {
		var s models.MatchSubmission
		err := rows.Scan(&s.ID, &s.TournamentID, &s.Success, &s.StatusCode,
			&s.Response, &s.MatchCount, &s.SkippedCount, &s.Forced, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

const submittedMatchColumns = `
	id, tournament_id, identifier, source, round, match_ref, bracket_label, match_date,
	team1_player1_dupr_id, team1_player2_dupr_id, team2_player1_dupr_id, team2_player2_dupr_id,
	games, dupr_match_id, dupr_match_code, status, verification_status, verify_reason,
	verified_at, created_at, updated_at`

func (r *postgresDuprRepository) CreateSubmittedMatches(ctx context.Context, matches []models.SubmittedMatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for i := range matches {
		games, err := json.Marshal(matches[i].Games)
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO submitted_matches
				(tournament_id, identifier, source, round, match_ref, bracket_label, match_date,
				 team1_player1_dupr_id, team1_player2_dupr_id,
				 team2_player1_dupr_id, team2_player2_dupr_id,
				 games, status, verification_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
			RETURNING id`,
			matches[i].TournamentID, matches[i].Identifier, matches[i].Source,
			matches[i].Round, matches[i].MatchRef, matches[i].BracketLabel,
			matches[i].MatchDate,
			matches[i].Team1Player1DuprID, matches[i].Team1Player2DuprID,
			matches[i].Team2Player1DuprID, matches[i].Team2Player2DuprID,
			games, matches[i].Status, matches[i].VerificationStatus, now,
		).Scan(&matches[i].ID)
		if err != nil {
			return err
		}
		matches[i].CreatedAt = now
		matches[i].UpdatedAt = now
	}

	return tx.Commit()
}

func scanSubmittedMatch(row rowScanner) (*models.SubmittedMatch, error) {
	m := &models.SubmittedMatch{}
	var games []byte
	err := row.Scan(&m.ID, &m.TournamentID, &m.Identifier, &m.Source, &m.Round,
		&m.MatchRef, &m.BracketLabel, &m.MatchDate,
		&m.Team1Player1DuprID, &m.Team1Player2DuprID,
		&m.Team2Player1DuprID, &m.Team2Player2DuprID,
		&games, &m.DuprMatchID, &m.DuprMatchCode,
		&m.Status, &m.VerificationStatus, &m.VerifyReason,
		&m.VerifiedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(games) > 0 {
		if err := json.Unmarshal(games, &m.Games); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *postgresDuprRepository) listSubmittedMatches(ctx context.Context, query string, args ...any) ([]models.SubmittedMatch, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.SubmittedMatch
	for rows.Next() {
		m, err := scanSubmittedMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresDuprRepository) ListSubmittedMatches(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error) {
	return r.listSubmittedMatches(ctx, `
		SELECT `+submittedMatchColumns+`
		FROM submitted_matches
		WHERE tournament_id = $1
		ORDER BY source, round, match_ref`, tournamentID)
}

func (r *postgresDuprRepository) ListUnverified(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error) {
	return r.listSubmittedMatches(ctx, `
		SELECT `+submittedMatchColumns+`
		FROM submitted_matches
		WHERE tournament_id = $1
		  AND status <> $2
		  AND verification_status <> $3
		ORDER BY source, round, match_ref`,
		tournamentID, models.SubmittedMatchDeleted, models.VerificationVerified)
}

func (r *postgresDuprRepository) GetSubmittedMatch(ctx context.Context, id int) (*models.SubmittedMatch, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+submittedMatchColumns+`
		FROM submitted_matches WHERE id = $1`, id)
	m, err := scanSubmittedMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmittedMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresDuprRepository) UpdateVerification(ctx context.Context, id int, status models.VerificationStatus, reason *string, duprMatchID, duprMatchCode *string) error {
	now := time.Now()
	var verifiedAt *time.Time
	if status == models.VerificationVerified {
		verifiedAt = &now
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE submitted_matches
		SET verification_status = $1,
		    verify_reason = $2,
		    dupr_match_id = COALESCE($3, dupr_match_id),
		    dupr_match_code = COALESCE($4, dupr_match_code),
		    verified_at = $5,
		    updated_at = $6
		WHERE id = $7`,
		status, reason, duprMatchID, duprMatchCode, verifiedAt, now, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmittedMatchNotFound)
}

func (r *postgresDuprRepository) UpdateStatus(ctx context.Context, id int, status models.SubmittedMatchStatus, games []models.Game) error {
	now := time.Now()
	var result sql.Result
	var err error
	if games != nil {
		var encoded []byte
		encoded, err = json.Marshal(games)
		if err != nil {
			return err
		}
		result, err = r.db.ExecContext(ctx, `
			UPDATE submitted_matches
			SET status = $1, games = $2, updated_at = $3
			WHERE id = $4`, status, encoded, now, id)
	} else {
		result, err = r.db.ExecContext(ctx, `
			UPDATE submitted_matches
			SET status = $1, updated_at = $2
			WHERE id = $3`, status, now, id)
	}
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmittedMatchNotFound)
}

func (r *postgresDuprRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	_, err := executor.ExecContext(ctx,
		`DELETE FROM submitted_matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return err
	}
	_, err = executor.ExecContext(ctx,
		`DELETE FROM match_submissions WHERE tournament_id = $1`, tournamentID)
	return err
}
