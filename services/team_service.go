package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
)

type RegisterTeamInput struct {
	Name      string `json:"name"`
	MemberIDs []int  `json:"member_ids"`
}

type TeamService interface {
	Register(ctx context.Context, tournamentID int, callerID int, input RegisterTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, teamID int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error)
	Remove(ctx context.Context, teamID int, callerID int, isAdmin bool) error
}

type teamService struct {
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	settingsRepo   repositories.SettingsRepository
	stateRepo      repositories.TournamentStateRepository
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	settingsRepo repositories.SettingsRepository,
	stateRepo repositories.TournamentStateRepository,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		settingsRepo:   settingsRepo,
		stateRepo:      stateRepo,
	}
}

// Register creates a team of one or two members. The caller must be one of
// the members; registration is only open before the round-robin starts.
func (s *teamService) Register(ctx context.Context, tournamentID int, callerID int, input RegisterTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if len(input.MemberIDs) < 1 || len(input.MemberIDs) > 2 {
		return nil, ErrTeamSizeInvalid
	}
	if len(input.MemberIDs) == 2 && input.MemberIDs[0] == input.MemberIDs[1] {
		return nil, fmt.Errorf("%w: members must be distinct", ErrValidationFailed)
	}

	callerIncluded := false
	for _, id := range input.MemberIDs {
		if id == callerID {
			callerIncluded = true
		}
	}
	if !callerIncluded {
		return nil, ErrForbiddenOperation
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if phase != models.PhaseRegistration {
		return nil, ErrRegistrationNotOpen
	}

	settings, err := s.settingsRepo.GetByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	count, err := s.teamRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if count >= settings.MaxTeams {
		return nil, ErrTournamentFull
	}

	// A configured tier turns the event into a rated one: every member needs
	// a linked provider account and a rating at or above the floor.
	var tierFloor *float64
	if settings.RequiredDuprTier != nil && *settings.RequiredDuprTier != "" {
		floor, err := strconv.ParseFloat(*settings.RequiredDuprTier, 64)
		if err != nil {
			return nil, fmt.Errorf("tournament %d has a malformed required tier %q: %w",
				tournamentID, *settings.RequiredDuprTier, err)
		}
		tierFloor = &floor
	}

	members := make([]models.User, 0, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: member %d", ErrUserNotFound, id)
			}
			return nil, err
		}
		if tierFloor != nil {
			if user.DuprID == nil || *user.DuprID == "" {
				return nil, fmt.Errorf("%w: %s", ErrMemberNotLinked, user.DisplayName())
			}
			if user.Rating < *tierFloor {
				return nil, fmt.Errorf("%w: %s is rated %.2f, tier requires %.2f",
					ErrDuprTierNotMet, user.DisplayName(), user.Rating, *tierFloor)
			}
		}
		already, err := s.teamRepo.IsTournamentParticipant(ctx, tournamentID, id)
		if err != nil {
			return nil, err
		}
		if already {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyInTeam, user.DisplayName())
		}
		user.PasswordHash = ""
		members = append(members, *user)
	}

	team := &models.Team{
		TournamentID: tournamentID,
		Name:         input.Name,
	}
	if err := s.teamRepo.CreateWithMembers(ctx, team, input.MemberIDs); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to register team: %w", err)
	}

	team.Members = members
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	return s.teamRepo.ListByTournament(ctx, tournamentID)
}

// Remove deletes a team during registration. Admins may remove any team;
// otherwise only a member of the team may withdraw it.
func (s *teamService) Remove(ctx context.Context, teamID int, callerID int, isAdmin bool) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	if !isAdmin {
		member, err := s.teamRepo.IsMember(ctx, teamID, callerID)
		if err != nil {
			return err
		}
		if !member {
			return ErrForbiddenOperation
		}
	}

	phase, err := s.stateRepo.GetPhase(ctx, nil, team.TournamentID)
	if err != nil {
		return err
	}
	if phase != models.PhaseRegistration {
		return ErrRegistrationNotOpen
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}
