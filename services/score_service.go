package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/courtside/pickleball-backend/brackets"
	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
)

// GameInput is one game of a score submission. Both scores present or both
// absent; anything else is rejected.
type GameInput struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

// ScoreUpdateInput carries up to three games plus the version the caller
// last observed. ExpectedVersion 0 asserts the score does not exist yet.
type ScoreUpdateInput struct {
	Games           []GameInput `json:"games"`
	ExpectedVersion int         `json:"expected_version"`
}

type ScoreService interface {
	UpdateRoundRobinScore(ctx context.Context, tournamentID, matchID int, callerID int, isAdmin bool, input ScoreUpdateInput) (*models.RoundRobinScore, error)
	UpdatePlayoffScore(ctx context.Context, tournamentID, round, match int, callerID int, isAdmin bool, input ScoreUpdateInput) (*models.PlayoffScore, error)
}

type scoreService struct {
	roundRobinRepo repositories.RoundRobinRepository
	playoffRepo    repositories.PlayoffRepository
	stateRepo      repositories.TournamentStateRepository
	teamRepo       repositories.TeamRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewScoreService(
	roundRobinRepo repositories.RoundRobinRepository,
	playoffRepo repositories.PlayoffRepository,
	stateRepo repositories.TournamentStateRepository,
	teamRepo repositories.TeamRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		roundRobinRepo: roundRobinRepo,
		playoffRepo:    playoffRepo,
		stateRepo:      stateRepo,
		teamRepo:       teamRepo,
		hub:            hub,
		logger:         logger,
	}
}

// validateGames enforces the shape rules shared by both phases: per game both
// scores or neither, no negatives, no game three without game two, and no
// games beyond the first unless the slot allows a series.
func validateGames(games []GameInput, allowSeries bool) error {
	if len(games) > models.MaxPlayoffGames {
		return fmt.Errorf("%w: at most %d games", ErrValidationFailed, models.MaxPlayoffGames)
	}
	for i, g := range games {
		if (g.Score1 == nil) != (g.Score2 == nil) {
			return fmt.Errorf("%w: game %d", ErrGameScoreIncomplete, i+1)
		}
		if g.Score1 != nil && (*g.Score1 < 0 || *g.Score2 < 0) {
			return fmt.Errorf("%w: game %d", ErrScoreNegative, i+1)
		}
	}
	if !allowSeries {
		for i := 1; i < len(games); i++ {
			if games[i].Score1 != nil {
				return ErrGameNotAllowed
			}
		}
	}
	if len(games) >= 3 && games[2].Score1 != nil && games[1].Score1 == nil {
		return ErrGameOrderInvalid
	}
	return nil
}

func allEmpty(games []GameInput) bool {
	for _, g := range games {
		if g.Score1 != nil || g.Score2 != nil {
			return false
		}
	}
	return true
}

// UpdateRoundRobinScore writes, replaces or clears the single game of a
// round-robin match under the optimistic-version protocol. Pool play is
// frozen the moment the playoff starts: seeding and any later rating
// submission read these rows, so only the round-robin phase accepts writes.
func (s *scoreService) UpdateRoundRobinScore(ctx context.Context, tournamentID, matchID int, callerID int, isAdmin bool, input ScoreUpdateInput) (*models.RoundRobinScore, error) {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if phase != models.PhaseRoundRobin {
		return nil, ErrWrongPhase
	}

	match, err := s.roundRobinRepo.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundRobinMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.TournamentID != tournamentID {
		return nil, ErrMatchNotFound
	}

	if err := s.authorize(ctx, callerID, isAdmin, match.Team1ID, match.Team2ID); err != nil {
		return nil, err
	}
	if err := validateGames(input.Games, false); err != nil {
		return nil, err
	}

	if allEmpty(input.Games) {
		if err := s.roundRobinRepo.DeleteScore(ctx, matchID, input.ExpectedVersion); err != nil {
			return nil, s.wrapRoundRobinConflict(ctx, matchID, err)
		}
		cleared := &models.RoundRobinScore{MatchID: matchID, Version: 0}
		s.broadcastScore(tournamentID, map[string]any{"scope": "round_robin", "match_id": matchID, "score": cleared})
		return cleared, nil
	}

	score := &models.RoundRobinScore{
		MatchID: matchID,
		Score1:  input.Games[0].Score1,
		Score2:  input.Games[0].Score2,
	}
	if err := s.roundRobinRepo.UpsertScore(ctx, score, input.ExpectedVersion); err != nil {
		return nil, s.wrapRoundRobinConflict(ctx, matchID, err)
	}

	s.broadcastScore(tournamentID, map[string]any{"scope": "round_robin", "match_id": matchID, "score": score})
	return score, nil
}

// UpdatePlayoffScore writes, replaces or clears a playoff slot's games. Games
// beyond the first are only accepted on the gold final or bronze match when
// its best-of-three flag is set.
func (s *scoreService) UpdatePlayoffScore(ctx context.Context, tournamentID, round, match int, callerID int, isAdmin bool, input ScoreUpdateInput) (*models.PlayoffScore, error) {
	phase, err := s.stateRepo.GetPhase(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if phase != models.PhasePlayoff {
		return nil, ErrWrongPhase
	}

	state, err := s.playoffRepo.GetState(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayoffNotFound) {
			return nil, ErrPlayoffNotFound
		}
		return nil, err
	}

	slot, err := s.findSlot(ctx, state, round, match)
	if err != nil {
		return nil, err
	}

	var team1, team2 int
	if slot.Team1ID != nil {
		team1 = *slot.Team1ID
	}
	if slot.Team2ID != nil {
		team2 = *slot.Team2ID
	}
	if err := s.authorize(ctx, callerID, isAdmin, team1, team2); err != nil {
		return nil, err
	}
	if err := validateGames(input.Games, slot.BestOfThree); err != nil {
		return nil, err
	}

	if allEmpty(input.Games) {
		if err := s.playoffRepo.DeleteScore(ctx, tournamentID, round, match, input.ExpectedVersion); err != nil {
			return nil, s.wrapPlayoffConflict(ctx, tournamentID, round, match, err)
		}
		cleared := &models.PlayoffScore{TournamentID: tournamentID, Round: round, Match: match, Version: 0}
		s.broadcastScore(tournamentID, map[string]any{"scope": "playoff", "round": round, "match": match, "score": cleared})
		return cleared, nil
	}

	score := &models.PlayoffScore{
		TournamentID: tournamentID,
		Round:        round,
		Match:        match,
	}
	for i, g := range input.Games {
		if i >= models.MaxPlayoffGames {
			break
		}
		score.Games[i] = models.Game{Score1: g.Score1, Score2: g.Score2}
	}

	if err := s.playoffRepo.UpsertScore(ctx, score, input.ExpectedVersion); err != nil {
		return nil, s.wrapPlayoffConflict(ctx, tournamentID, round, match, err)
	}

	s.broadcastScore(tournamentID, map[string]any{"scope": "playoff", "round": round, "match": match, "score": score})
	return score, nil
}

// findSlot locates the (round, match) slot in the resolved bracket, which
// also tells us the participating teams and whether a series is allowed.
func (s *scoreService) findSlot(ctx context.Context, state *models.PlayoffState, round, match int) (*brackets.ResolvedMatch, error) {
	scores, err := s.playoffRepo.ListScores(ctx, state.TournamentID)
	if err != nil {
		return nil, err
	}
	bracket, err := brackets.ResolveBracket(state.SeedOrder, state.BracketSize,
		scores, state.FinalBestOfThree, state.BronzeBestOfThree)
	if err != nil {
		return nil, err
	}

	if bracket.Bronze != nil && bracket.Bronze.Round == round && bracket.Bronze.Match == match {
		return bracket.Bronze, nil
	}
	if round >= 1 && round <= len(bracket.Rounds) {
		for i := range bracket.Rounds[round-1] {
			if bracket.Rounds[round-1][i].Match == match {
				return &bracket.Rounds[round-1][i], nil
			}
		}
	}
	return nil, ErrSlotNotInBracket
}

func (s *scoreService) authorize(ctx context.Context, callerID int, isAdmin bool, team1ID, team2ID int) error {
	if isAdmin {
		return nil
	}
	for _, teamID := range []int{team1ID, team2ID} {
		if teamID == 0 {
			continue
		}
		member, err := s.teamRepo.IsMember(ctx, teamID, callerID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}
	}
	return ErrForbiddenOperation
}

// wrapRoundRobinConflict turns a version conflict into a ConflictError
// carrying the row as it exists now, so the client can rebase.
func (s *scoreService) wrapRoundRobinConflict(ctx context.Context, matchID int, err error) error {
	if !errors.Is(err, repositories.ErrScoreVersionConflict) {
		return err
	}
	current, readErr := s.roundRobinRepo.GetScore(ctx, matchID)
	if readErr != nil {
		s.logger.Error("failed to read current score after conflict",
			"match_id", matchID, "error", readErr)
		return &ConflictError{}
	}
	return &ConflictError{Current: current}
}

func (s *scoreService) wrapPlayoffConflict(ctx context.Context, tournamentID, round, match int, err error) error {
	if !errors.Is(err, repositories.ErrScoreVersionConflict) {
		return err
	}
	current, readErr := s.playoffRepo.GetScore(ctx, tournamentID, round, match)
	if readErr != nil {
		s.logger.Error("failed to read current score after conflict",
			"tournament_id", tournamentID, "round", round, "match", match, "error", readErr)
		return &ConflictError{}
	}
	return &ConflictError{Current: current}
}

func (s *scoreService) broadcastScore(tournamentID int, payload map[string]any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.WebSocketMessage{
		Type:    brackets.EventScoreUpdated,
		Payload: payload,
	})
}
