package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courtside/pickleball-backend/brackets"
	"github.com/courtside/pickleball-backend/dupr"
	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
)

// verifyConcurrency bounds parallel provider searches during verification.
const verifyConcurrency = 4

// RatingProvider is the outbound surface of the rating provider consumed by
// the reconciler. *dupr.Client satisfies it.
type RatingProvider interface {
	BatchCreate(ctx context.Context, matches []dupr.MatchPayload) (int, []byte, []dupr.MatchResult, error)
	UpdateMatch(ctx context.Context, matchID string, match dupr.MatchPayload) error
	DeleteMatch(ctx context.Context, matchID string) error
	SearchClubMatches(ctx context.Context, clubID string, from, to time.Time) ([]dupr.RemoteMatch, error)
	GetUserClubs(ctx context.Context, duprID string) ([]dupr.ClubMembership, error)
}

// SubmitResult summarizes one batch submission.
type SubmitResult struct {
	Submitted int                     `json:"submitted"`
	Skipped   int                     `json:"skipped"`
	Matches   []models.SubmittedMatch `json:"matches"`
}

// VerifyResult summarizes one verification pass.
type VerifyResult struct {
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
}

type DuprService interface {
	Submit(ctx context.Context, tournamentID, submitterID int, force bool) (*SubmitResult, error)
	Verify(ctx context.Context, tournamentID int) (*VerifyResult, error)
	ListSubmittedMatches(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error)
	UpdateSubmittedMatch(ctx context.Context, id int, games []GameInput) (*models.SubmittedMatch, error)
	DeleteSubmittedMatch(ctx context.Context, id int) error
}

type duprService struct {
	provider         RatingProvider
	duprRepo         repositories.DuprRepository
	tournamentRepo   repositories.TournamentRepository
	stateRepo        repositories.TournamentStateRepository
	teamRepo         repositories.TeamRepository
	roundRobinRepo   repositories.RoundRobinRepository
	playoffRepo      repositories.PlayoffRepository
	userRepo         repositories.UserRepository
	clubID           string
	masterAdminEmail string
	logger           *slog.Logger
}

func NewDuprService(
	provider RatingProvider,
	duprRepo repositories.DuprRepository,
	tournamentRepo repositories.TournamentRepository,
	stateRepo repositories.TournamentStateRepository,
	teamRepo repositories.TeamRepository,
	roundRobinRepo repositories.RoundRobinRepository,
	playoffRepo repositories.PlayoffRepository,
	userRepo repositories.UserRepository,
	clubID string,
	masterAdminEmail string,
	logger *slog.Logger,
) DuprService {
	return &duprService{
		provider:         provider,
		duprRepo:         duprRepo,
		tournamentRepo:   tournamentRepo,
		stateRepo:        stateRepo,
		teamRepo:         teamRepo,
		roundRobinRepo:   roundRobinRepo,
		playoffRepo:      playoffRepo,
		userRepo:         userRepo,
		clubID:           clubID,
		masterAdminEmail: masterAdminEmail,
		logger:           logger,
	}
}

// Submit collects every decided match of the tournament, sends them to the
// provider in one batch, and records a durable audit trail. A tournament with
// a logged successful submission refuses to resubmit unless forced.
func (s *duprService) Submit(ctx context.Context, tournamentID, submitterID int, force bool) (*SubmitResult, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !tournament.SubmitToDupr {
		return nil, ErrSubmissionNotEnabled
	}

	if err := s.checkSubmitter(ctx, submitterID); err != nil {
		return nil, err
	}

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
	playoffScores, err := s.playoffRepo.ListScores(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	bracket, err := brackets.ResolveBracket(state.SeedOrder, state.BracketSize,
		playoffScores, state.FinalBestOfThree, state.BronzeBestOfThree)
	if err != nil {
		return nil, err
	}
	if !bracket.Complete {
		return nil, ErrPlayoffNotComplete
	}

	if !force {
		prior, err := s.duprRepo.LastSuccessfulSubmission(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return nil, &AlreadySubmittedError{SubmittedAt: prior.CreatedAt}
		}
	}

	records, skipped, err := s.collectMatches(ctx, tournament, bracket)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoSubmittableMatches
	}

	payloads := make([]dupr.MatchPayload, len(records))
	for i, rec := range records {
		payloads[i] = s.buildPayload(tournament, &rec)
	}

	status, rawBody, results, submitErr := s.provider.BatchCreate(ctx, payloads)

	// The attempt is logged whatever the outcome; this log is also the
	// resubmission gate.
	logEntry := &models.MatchSubmission{
		TournamentID: tournamentID,
		Success:      submitErr == nil,
		StatusCode:   status,
		Response:     string(rawBody),
		MatchCount:   len(records),
		SkippedCount: skipped,
		Forced:       force,
	}
	if logErr := s.duprRepo.CreateSubmission(ctx, logEntry); logErr != nil {
		s.logger.Error("failed to log submission attempt",
			"tournament_id", tournamentID, "error", logErr)
	}
	if submitErr != nil {
		return nil, submitErr
	}

	// Match provider ids back to our records by identifier, or by position
	// for providers that do not echo identifiers.
	byIdentifier := make(map[string]dupr.MatchResult, len(results))
	for _, res := range results {
		if res.Identifier != "" {
			byIdentifier[res.Identifier] = res
		}
	}
	for i := range records {
		res, ok := byIdentifier[records[i].Identifier]
		if !ok && i < len(results) {
			res = results[i]
			ok = true
		}
		if ok {
			if res.MatchID != "" {
				id := res.MatchID
				records[i].DuprMatchID = &id
			}
			if res.MatchCode != "" {
				code := res.MatchCode
				records[i].DuprMatchCode = &code
			}
		}
	}

	if err := s.duprRepo.CreateSubmittedMatches(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist submitted matches: %w", err)
	}

	s.logger.Info("matches submitted to rating provider",
		"tournament_id", tournamentID, "count", len(records), "skipped", skipped, "forced", force)

	return &SubmitResult{
		Submitted: len(records),
		Skipped:   skipped,
		Matches:   records,
	}, nil
}

// checkSubmitter requires a linked provider account plus a director or
// organizer role in the configured club. The master admin bypasses the role
// lookup entirely.
func (s *duprService) checkSubmitter(ctx context.Context, submitterID int) error {
	user, err := s.userRepo.GetByID(ctx, submitterID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if s.masterAdminEmail != "" && user.Email == s.masterAdminEmail {
		return nil
	}
	if user.DuprID == nil || *user.DuprID == "" {
		return ErrSubmitterNotLinked
	}

	clubs, err := s.provider.GetUserClubs(ctx, *user.DuprID)
	if err != nil {
		return err
	}
	for _, club := range clubs {
		if club.ClubID != s.clubID {
			continue
		}
		role := strings.ToLower(club.Role)
		if role == "director" || role == "organizer" {
			return nil
		}
	}
	return ErrSubmitterNotDirector
}

// collectMatches builds audit records for every decided round-robin match and
// every determined playoff match. Matches whose teams lack two linked players
// are counted as skipped, never as failures.
func (s *duprService) collectMatches(ctx context.Context, tournament *models.Tournament, bracket *brackets.Bracket) ([]models.SubmittedMatch, int, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, 0, err
	}
	teamByID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}

	var records []models.SubmittedMatch
	skipped := 0

	matches, err := s.roundRobinRepo.ListMatches(ctx, tournament.ID)
	if err != nil {
		return nil, 0, err
	}
	scores, err := s.roundRobinRepo.ListScores(ctx, tournament.ID)
	if err != nil {
		return nil, 0, err
	}
	for _, m := range matches {
		score := scores[m.ID]
		if !score.Decided() {
			continue
		}
		team1, team2 := teamByID[m.Team1ID], teamByID[m.Team2ID]
		if team1 == nil || team2 == nil || !team1.DuprReady() || !team2.DuprReady() {
			skipped++
			continue
		}
		records = append(records, models.SubmittedMatch{
			TournamentID: tournament.ID,
			Identifier:   fmt.Sprintf("T%d-RR-R%d-M%d", tournament.ID, m.Round, m.ID),
			Source:       models.SourceRoundRobin,
			Round:        m.Round,
			MatchRef:     m.ID,
			BracketLabel: "Round Robin",
			MatchDate:    tournament.StartDate,

			Team1Player1DuprID: *team1.Members[0].DuprID,
			Team1Player2DuprID: *team1.Members[1].DuprID,
			Team2Player1DuprID: *team2.Members[0].DuprID,
			Team2Player2DuprID: *team2.Members[1].DuprID,

			Games:  []models.Game{{Score1: score.Score1, Score2: score.Score2}},
			Status: models.SubmittedMatchSubmitted,
		})
	}

	appendPlayoff := func(m *brackets.ResolvedMatch) {
		// Byes have no games and nothing to report.
		if !m.Decided() || m.IsBye || len(m.GamesPlayed) == 0 {
			return
		}
		team1, team2 := teamByID[*m.Team1ID], teamByID[*m.Team2ID]
		if team1 == nil || team2 == nil || !team1.DuprReady() || !team2.DuprReady() {
			skipped++
			return
		}
		records = append(records, models.SubmittedMatch{
			TournamentID: tournament.ID,
			Identifier:   fmt.Sprintf("T%d-PO-R%d-M%d", tournament.ID, m.Round, m.Match),
			Source:       models.SourcePlayoff,
			Round:        m.Round,
			MatchRef:     m.Match,
			BracketLabel: brackets.BracketLabel(bracket.Size, m.Round, m.Match),
			MatchDate:    tournament.StartDate,

			Team1Player1DuprID: *team1.Members[0].DuprID,
			Team1Player2DuprID: *team1.Members[1].DuprID,
			Team2Player1DuprID: *team2.Members[0].DuprID,
			Team2Player2DuprID: *team2.Members[1].DuprID,

			// Only the games up to the clinch count.
			Games:  m.GamesPlayed,
			Status: models.SubmittedMatchSubmitted,
		})
	}

	for r := range bracket.Rounds {
		for i := range bracket.Rounds[r] {
			appendPlayoff(&bracket.Rounds[r][i])
		}
	}
	if bracket.Bronze != nil {
		appendPlayoff(bracket.Bronze)
	}

	return records, skipped, nil
}

func (s *duprService) buildPayload(tournament *models.Tournament, rec *models.SubmittedMatch) dupr.MatchPayload {
	location := ""
	if tournament.Location != nil {
		location = *tournament.Location
	}
	payload := dupr.MatchPayload{
		Identifier: rec.Identifier,
		Event:      tournament.Title,
		Bracket:    rec.BracketLabel,
		Location:   location,
		MatchDate:  rec.MatchDate.Format("2006-01-02"),
		MatchType:  "SIDE_ONLY",
		Format:     "DOUBLES",
		ClubID:     s.clubID,
		Team1: dupr.MatchTeam{
			Player1DuprID: rec.Team1Player1DuprID,
			Player2DuprID: rec.Team1Player2DuprID,
		},
		Team2: dupr.MatchTeam{
			Player1DuprID: rec.Team2Player1DuprID,
			Player2DuprID: rec.Team2Player2DuprID,
		},
	}
	for _, g := range rec.Games {
		if !g.Complete() {
			continue
		}
		payload.Team1.GameScores = append(payload.Team1.GameScores, *g.Score1)
		payload.Team2.GameScores = append(payload.Team2.GameScores, *g.Score2)
	}
	return payload
}

// Verify checks every unverified audit row against the provider's club match
// search. It is idempotent and may be re-run at any time; rows that cannot be
// found are marked verify_failed with a reason and stay eligible for a later
// pass.
func (s *duprService) Verify(ctx context.Context, tournamentID int) (*VerifyResult, error) {
	pending, err := s.duprRepo.ListUnverified(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &VerifyResult{}, nil
	}

	result := &VerifyResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)

	// One search window per distinct match date keeps the provider traffic
	// proportional to days, not matches.
	type dateKey struct{ y, m, d int }
	remoteByDate := make(map[dateKey][]dupr.RemoteMatch)
	errByDate := make(map[dateKey]error)
	for _, rec := range pending {
		key := dateKey{rec.MatchDate.Year(), int(rec.MatchDate.Month()), rec.MatchDate.Day()}
		if _, ok := remoteByDate[key]; ok {
			continue
		}
		remote, err := s.provider.SearchClubMatches(ctx, s.clubID,
			rec.MatchDate.AddDate(0, 0, -1), rec.MatchDate.AddDate(0, 0, 1))
		remoteByDate[key] = remote
		errByDate[key] = err
	}

	resultsCh := make(chan bool, len(pending))
	for i := range pending {
		rec := pending[i]
		key := dateKey{rec.MatchDate.Year(), int(rec.MatchDate.Month()), rec.MatchDate.Day()}
		remote, searchErr := remoteByDate[key], errByDate[key]
		g.Go(func() error {
			verified := s.verifyOne(gctx, &rec, remote, searchErr)
			resultsCh <- verified
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)
	for verified := range resultsCh {
		if verified {
			result.Verified++
		} else {
			result.Failed++
		}
	}

	s.logger.Info("verification pass complete",
		"tournament_id", tournamentID, "verified", result.Verified, "failed", result.Failed)
	return result, nil
}

// verifyOne matches one audit row against the remote records: identifier
// first, then provider match id, then match code. First hit wins.
func (s *duprService) verifyOne(ctx context.Context, rec *models.SubmittedMatch, remote []dupr.RemoteMatch, searchErr error) bool {
	if searchErr != nil {
		reason := fmt.Sprintf("provider search failed: %v", searchErr)
		s.markVerifyFailed(ctx, rec.ID, reason)
		return false
	}

	var found *dupr.RemoteMatch
	for i := range remote {
		if remote[i].Identifier != "" && remote[i].Identifier == rec.Identifier {
			found = &remote[i]
			break
		}
	}
	if found == nil && rec.DuprMatchID != nil {
		for i := range remote {
			if remote[i].MatchID == *rec.DuprMatchID {
				found = &remote[i]
				break
			}
		}
	}
	if found == nil && rec.DuprMatchCode != nil {
		for i := range remote {
			if remote[i].MatchCode == *rec.DuprMatchCode {
				found = &remote[i]
				break
			}
		}
	}

	if found == nil {
		s.markVerifyFailed(ctx, rec.ID, "no matching remote record in search window")
		return false
	}

	var matchID, matchCode *string
	if found.MatchID != "" {
		matchID = &found.MatchID
	}
	if found.MatchCode != "" {
		matchCode = &found.MatchCode
	}
	err := s.duprRepo.UpdateVerification(ctx, rec.ID,
		models.VerificationVerified, nil, matchID, matchCode)
	if err != nil {
		s.logger.Error("failed to mark match verified", "id", rec.ID, "error", err)
		return false
	}
	return true
}

func (s *duprService) markVerifyFailed(ctx context.Context, id int, reason string) {
	err := s.duprRepo.UpdateVerification(ctx, id,
		models.VerificationFailed, &reason, nil, nil)
	if err != nil {
		s.logger.Error("failed to mark match verify_failed", "id", id, "error", err)
	}
}

func (s *duprService) ListSubmittedMatches(ctx context.Context, tournamentID int) ([]models.SubmittedMatch, error) {
	return s.duprRepo.ListSubmittedMatches(ctx, tournamentID)
}

// UpdateSubmittedMatch pushes corrected games to the provider first, then
// updates the local audit row, so the two can never silently diverge.
func (s *duprService) UpdateSubmittedMatch(ctx context.Context, id int, games []GameInput) (*models.SubmittedMatch, error) {
	rec, err := s.duprRepo.GetSubmittedMatch(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmittedMatchNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.DuprMatchID == nil || *rec.DuprMatchID == "" {
		return nil, fmt.Errorf("%w: match has no provider id", ErrValidationFailed)
	}

	updated := make([]models.Game, 0, len(games))
	for _, g := range games {
		if (g.Score1 == nil) != (g.Score2 == nil) {
			return nil, ErrGameScoreIncomplete
		}
		if g.Score1 == nil {
			continue
		}
		if *g.Score1 < 0 || *g.Score2 < 0 {
			return nil, ErrScoreNegative
		}
		updated = append(updated, models.Game{Score1: g.Score1, Score2: g.Score2})
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: at least one game is required", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, rec.TournamentID)
	if err != nil {
		return nil, err
	}

	rec.Games = updated
	if err := s.provider.UpdateMatch(ctx, *rec.DuprMatchID, s.buildPayload(tournament, rec)); err != nil {
		return nil, err
	}
	if err := s.duprRepo.UpdateStatus(ctx, id, models.SubmittedMatchUpdated, updated); err != nil {
		return nil, err
	}

	rec.Status = models.SubmittedMatchUpdated
	return rec, nil
}

// DeleteSubmittedMatch removes the remote record first, then marks the local
// row deleted. The audit row itself is kept.
func (s *duprService) DeleteSubmittedMatch(ctx context.Context, id int) error {
	rec, err := s.duprRepo.GetSubmittedMatch(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmittedMatchNotFound) {
			return ErrNotFound
		}
		return err
	}
	if rec.DuprMatchID == nil || *rec.DuprMatchID == "" {
		return fmt.Errorf("%w: match has no provider id", ErrValidationFailed)
	}

	if err := s.provider.DeleteMatch(ctx, *rec.DuprMatchID); err != nil {
		return err
	}
	return s.duprRepo.UpdateStatus(ctx, id, models.SubmittedMatchDeleted, nil)
}
