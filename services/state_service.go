package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/courtside/pickleball-backend/brackets"
	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
)

const minRoundRobinTeams = 4

// TournamentView is the aggregate read model for one tournament: phase,
// schedule, standings and the resolved bracket in a single response.
type TournamentView struct {
	Phase     models.Phase                    `json:"phase"`
	Matches   []models.RoundRobinMatch        `json:"matches,omitempty"`
	Scores    map[int]*models.RoundRobinScore `json:"scores,omitempty"`
	Standings []brackets.TeamStanding         `json:"standings,omitempty"`
	Playoff   *models.PlayoffState            `json:"playoff,omitempty"`
	Bracket   *brackets.Bracket               `json:"bracket,omitempty"`
}

type StateService interface {
	GetPhase(ctx context.Context, tournamentID int) (models.Phase, error)
	GetView(ctx context.Context, tournamentID int) (*TournamentView, error)
	GetStandings(ctx context.Context, tournamentID int) ([]brackets.TeamStanding, error)
	GetSchedule(ctx context.Context, tournamentID int) ([]models.RoundRobinMatch, map[int]*models.RoundRobinScore, error)
	GetBracket(ctx context.Context, tournamentID int) (*brackets.Bracket, error)
	StartRoundRobin(ctx context.Context, tournamentID int) error
	StartPlayoff(ctx context.Context, tournamentID int) error
	Archive(ctx context.Context, tournamentID int) error
	Reset(ctx context.Context, tournamentID int) error
}

type stateService struct {
	tx             repositories.TxManager
	stateRepo      repositories.TournamentStateRepository
	settingsRepo   repositories.SettingsRepository
	teamRepo       repositories.TeamRepository
	roundRobinRepo repositories.RoundRobinRepository
	playoffRepo    repositories.PlayoffRepository
	tournamentRepo repositories.TournamentRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewStateService(
	tx repositories.TxManager,
	stateRepo repositories.TournamentStateRepository,
	settingsRepo repositories.SettingsRepository,
	teamRepo repositories.TeamRepository,
	roundRobinRepo repositories.RoundRobinRepository,
	playoffRepo repositories.PlayoffRepository,
	tournamentRepo repositories.TournamentRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) StateService {
	return &stateService{
		tx:             tx,
		stateRepo:      stateRepo,
		settingsRepo:   settingsRepo,
		teamRepo:       teamRepo,
		roundRobinRepo: roundRobinRepo,
		playoffRepo:    playoffRepo,
		tournamentRepo: tournamentRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *stateService) GetPhase(ctx context.Context, tournamentID int) (models.Phase, error) {
	return s.stateRepo.GetPhase(ctx, nil, tournamentID)
}

func (s *stateService) GetView(ctx context.Context, tournamentID int) (*TournamentView, error) {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	view := &TournamentView{Phase: phase}
	if phase == models.PhaseRegistration {
		return view, nil
	}

	view.Matches, err = s.roundRobinRepo.ListMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	view.Scores, err = s.roundRobinRepo.ListScores(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	view.Standings = brackets.ComputeStandings(teams, view.Matches, view.Scores)

	if phase == models.PhasePlayoff {
		view.Playoff, view.Bracket, err = s.resolveBracket(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *stateService) GetStandings(ctx context.Context, tournamentID int) ([]brackets.TeamStanding, error) {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if phase == models.PhaseRegistration {
		return nil, ErrWrongPhase
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.roundRobinRepo.ListMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	scores, err := s.roundRobinRepo.ListScores(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return brackets.ComputeStandings(teams, matches, scores), nil
}

func (s *stateService) GetSchedule(ctx context.Context, tournamentID int) ([]models.RoundRobinMatch, map[int]*models.RoundRobinScore, error) {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if phase == models.PhaseRegistration {
		return nil, nil, ErrWrongPhase
	}

	matches, err := s.roundRobinRepo.ListMatches(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	scores, err := s.roundRobinRepo.ListScores(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	return matches, scores, nil
}

func (s *stateService) GetBracket(ctx context.Context, tournamentID int) (*brackets.Bracket, error) {
	_, bracket, err := s.resolveBracket(ctx, tournamentID)
	return bracket, err
}

func (s *stateService) resolveBracket(ctx context.Context, tournamentID int) (*models.PlayoffState, *brackets.Bracket, error) {
	state, err := s.playoffRepo.GetState(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayoffNotFound) {
			return nil, nil, ErrPlayoffNotFound
		}
		return nil, nil, err
	}
	scores, err := s.playoffRepo.ListScores(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	bracket, err := brackets.ResolveBracket(state.SeedOrder, state.BracketSize,
		scores, state.FinalBestOfThree, state.BronzeBestOfThree)
	if err != nil {
		return nil, nil, err
	}
	return state, bracket, nil
}

// StartRoundRobin closes registration and generates the full schedule in one
// transaction. At least four complete teams (two members each) are required.
func (s *stateService) StartRoundRobin(ctx context.Context, tournamentID int) error {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return err
	}
	if phase != models.PhaseRegistration {
		return ErrWrongPhase
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	complete := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if len(t.Members) == 2 {
			complete = append(complete, t)
		}
	}
	if len(complete) < minRoundRobinTeams {
		return fmt.Errorf("%w: need %d complete teams, have %d",
			ErrNotEnoughTeams, minRoundRobinTeams, len(complete))
	}

	settings, err := s.settingsRepo.GetByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	// Circle scheduling over teams ordered by combined rating, so the first
	// rounds pair comparable opponents.
	sort.SliceStable(complete, func(i, j int) bool {
		return complete[i].RatingSum() > complete[j].RatingSum()
	})
	teamIDs := make([]int, len(complete))
	for i, t := range complete {
		teamIDs[i] = t.ID
	}

	schedule := brackets.GenerateRoundRobinSchedule(teamIDs, settings.RoundRobinRounds)
	matches := make([]models.RoundRobinMatch, 0, len(schedule)*len(teamIDs)/2)
	for roundIdx, pairings := range schedule {
		for _, p := range pairings {
			matches = append(matches, models.RoundRobinMatch{
				TournamentID: tournamentID,
				Round:        roundIdx + 1,
				Team1ID:      p.Team1ID,
				Team2ID:      p.Team2ID,
			})
		}
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRobinRepo.CreateMatches(ctx, exec, matches); err != nil {
			return fmt.Errorf("failed to create round-robin schedule: %w", err)
		}
		return s.stateRepo.SetPhase(ctx, exec, tournamentID, models.PhaseRoundRobin)
	})
	if err != nil {
		return err
	}

	s.logger.Info("round robin started",
		"tournament_id", tournamentID, "teams", len(complete), "matches", len(matches))
	s.broadcastPhase(tournamentID, models.PhaseRoundRobin)
	return nil
}

// StartPlayoff seeds the bracket from current standings. The configured team
// count is clamped to [2, min(8, teams)] and rounded up to a power of two for
// the bracket size.
func (s *stateService) StartPlayoff(ctx context.Context, tournamentID int) error {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return err
	}
	if phase != models.PhaseRoundRobin {
		return ErrWrongPhase
	}

	standings, err := s.GetStandings(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(standings) < 2 {
		return ErrNotEnoughTeams
	}

	settings, err := s.settingsRepo.GetByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	count := settings.PlayoffTeamCount
	if count < 2 {
		count = 2
	}
	if count > len(standings) {
		count = len(standings)
	}
	if count > 8 {
		count = 8
	}

	seedOrder := make([]int, count)
	for i := 0; i < count; i++ {
		seedOrder[i] = standings[i].TeamID
	}

	state := &models.PlayoffState{
		TournamentID:      tournamentID,
		TeamCount:         count,
		BracketSize:       brackets.BracketSizeFor(count),
		SeedOrder:         seedOrder,
		FinalBestOfThree:  settings.FinalBestOfThree,
		BronzeBestOfThree: settings.BronzeBestOfThree,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Any playoff rows left over from a previous attempt would corrupt
		// the new bracket, so they go first.
		if err := s.playoffRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		if err := s.playoffRepo.CreateState(ctx, exec, state); err != nil {
			return fmt.Errorf("failed to create playoff state: %w", err)
		}
		return s.stateRepo.SetPhase(ctx, exec, tournamentID, models.PhasePlayoff)
	})
	if err != nil {
		return err
	}

	s.logger.Info("playoff started",
		"tournament_id", tournamentID, "teams", count, "bracket_size", state.BracketSize)
	s.broadcastPhase(tournamentID, models.PhasePlayoff)
	return nil
}

// Archive marks the tournament completed. The bracket must be fully resolved
// first: a decided gold final, and a decided bronze match on brackets of four
// or more.
func (s *stateService) Archive(ctx context.Context, tournamentID int) error {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return err
	}
	if phase != models.PhasePlayoff {
		return ErrWrongPhase
	}

	_, bracket, err := s.resolveBracket(ctx, tournamentID)
	if err != nil {
		return err
	}
	if !bracket.Complete {
		return ErrPlayoffNotComplete
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.StatusCompleted); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	s.logger.Info("tournament archived", "tournament_id", tournamentID)
	return nil
}

// Reset wipes all competition data and reopens registration, atomically.
func (s *stateService) Reset(ctx context.Context, tournamentID int) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.playoffRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		if err := s.roundRobinRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		return s.stateRepo.Delete(ctx, exec, tournamentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament reset", "tournament_id", tournamentID)
	s.broadcastPhase(tournamentID, models.PhaseRegistration)
	return nil
}

func (s *stateService) broadcastPhase(tournamentID int, phase models.Phase) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.WebSocketMessage{
		Type:    brackets.EventPhaseChanged,
		Payload: map[string]any{"phase": phase},
	})
}
