package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/courtside/pickleball-backend/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already taken in this tournament")
)

type TeamRepository interface {
	CreateWithMembers(ctx context.Context, team *models.Team, memberIDs []int) error
	GetByID(ctx context.Context, teamID int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	IsMember(ctx context.Context, teamID, userID int) (bool, error)
	IsTournamentParticipant(ctx context.Context, tournamentID, userID int) (bool, error)
	Delete(ctx context.Context, teamID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

// CreateWithMembers inserts the team row and its membership rows in one
// transaction so a half-registered team can never be observed.
func (r *postgresTeamRepository) CreateWithMembers(ctx context.Context, team *models.Team, memberIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO teams (tournament_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		team.TournamentID, team.Name, time.Now(),
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return handleTeamError(err)
	}

	for _, userID := range memberIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`,
			team.ID, userID)
		if err != nil {
			return handleTeamError(err)
		}
	}

	return tx.Commit()
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tournament_id, name, created_at FROM teams WHERE id = $1`, teamID,
	).Scan(&team.ID, &team.TournamentID, &team.Name, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := r.membersFor(ctx, []int{team.ID})
	if err != nil {
		return nil, err
	}
	team.Members = members[team.ID]
	return team, nil
}

// ListByTournament returns teams with their members populated, ordered by
// creation time so registration order is stable.
func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, name, created_at
		FROM teams WHERE tournament_id = $1
		ORDER BY created_at, id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	var teamIDs []int
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.TournamentID, &team.Name, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
		teamIDs = append(teamIDs, team.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	members, err := r.membersFor(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		teams[i].Members = members[teams[i].ID]
	}
	return teams, nil
}

func (r *postgresTeamRepository) membersFor(ctx context.Context, teamIDs []int) (map[int][]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tm.team_id, u.id, u.email, u.first_name, u.last_name, u.rating,
		       u.dupr_id, u.is_admin, u.created_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ANY($1)
		ORDER BY tm.team_id, u.id`, pq.Array(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[int][]models.User)
	for rows.Next() {
		var teamID int
		var u models.User
		err := rows.Scan(&teamID, &u.ID, &u.Email, &u.FirstName, &u.LastName,
			&u.Rating, &u.DuprID, &u.IsAdmin, &u.CreatedAt)
		if err != nil {
			return nil, err
		}
		members[teamID] = append(members[teamID], u)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresTeamRepository) IsTournamentParticipant(ctx context.Context, tournamentID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members tm
			JOIN teams t ON t.id = tm.team_id
			WHERE t.tournament_id = $1 AND tm.user_id = $2)`,
		tournamentID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresTeamRepository) Delete(ctx context.Context, teamID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	_, err := executor.ExecContext(ctx,
		`DELETE FROM teams WHERE tournament_id = $1`, tournamentID)
	return err
}

func handleTeamError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTeamNameConflict
	}
	return err
}
