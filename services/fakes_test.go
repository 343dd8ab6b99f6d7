package services

import (
	"context"
	"sort"
	"time"

	"github.com/courtside/pickleball-backend/dupr"
	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
)

// In-memory repository fakes. They reproduce the storage semantics the
// services depend on, including the optimistic-version rules of the score
// repositories.

type fakeTxManager struct{}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeStateRepo struct {
	phases map[int]models.Phase
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{phases: make(map[int]models.Phase)}
}

func (f *fakeStateRepo) GetPhase(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (models.Phase, error) {
	if phase, ok := f.phases[tournamentID]; ok {
		return phase, nil
	}
	return models.PhaseRegistration, nil
}

func (f *fakeStateRepo) SetPhase(_ context.Context, _ repositories.SQLExecutor, tournamentID int, phase models.Phase) error {
	f.phases[tournamentID] = phase
	return nil
}

func (f *fakeStateRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	delete(f.phases, tournamentID)
	return nil
}

type fakeSettingsRepo struct {
	settings map[int]*models.TournamentSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[int]*models.TournamentSettings)}
}

func (f *fakeSettingsRepo) GetByTournament(_ context.Context, tournamentID int) (*models.TournamentSettings, error) {
	if s, ok := f.settings[tournamentID]; ok {
		return s, nil
	}
	return models.DefaultSettings(tournamentID), nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, s *models.TournamentSettings) error {
	f.settings[s.TournamentID] = s
	return nil
}

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
}

func (f *fakeTeamRepo) addTeam(tournamentID int, name string, members ...models.User) *models.Team {
	team := &models.Team{
		ID:           f.nextID,
		TournamentID: tournamentID,
		Name:         name,
		Members:      members,
		CreatedAt:    time.Now(),
	}
	f.teams[team.ID] = team
	f.nextID++
	return team
}

func (f *fakeTeamRepo) CreateWithMembers(_ context.Context, team *models.Team, memberIDs []int) error {
	team.ID = f.nextID
	f.nextID++
	team.CreatedAt = time.Now()
	f.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, teamID int) (*models.Team, error) {
	if team, ok := f.teams[teamID]; ok {
		return team, nil
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Team, error) {
	var out []models.Team
	for _, team := range f.teams {
		if team.TournamentID == tournamentID {
			out = append(out, *team)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeamRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	teams, _ := f.ListByTournament(ctx, tournamentID)
	return len(teams), nil
}

func (f *fakeTeamRepo) IsMember(_ context.Context, teamID, userID int) (bool, error) {
	team, ok := f.teams[teamID]
	if !ok {
		return false, nil
	}
	for _, m := range team.Members {
		if m.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamRepo) IsTournamentParticipant(_ context.Context, tournamentID, userID int) (bool, error) {
	for _, team := range f.teams {
		if team.TournamentID != tournamentID {
			continue
		}
		for _, m := range team.Members {
			if m.ID == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, teamID int) error {
	if _, ok := f.teams[teamID]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(f.teams, teamID)
	return nil
}

func (f *fakeTeamRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, team := range f.teams {
		if team.TournamentID == tournamentID {
			delete(f.teams, id)
		}
	}
	return nil
}

type fakeRoundRobinRepo struct {
	matches map[int]*models.RoundRobinMatch
	scores  map[int]*models.RoundRobinScore
	nextID  int
}

func newFakeRoundRobinRepo() *fakeRoundRobinRepo {
	return &fakeRoundRobinRepo{
		matches: make(map[int]*models.RoundRobinMatch),
		scores:  make(map[int]*models.RoundRobinScore),
		nextID:  1,
	}
}

func (f *fakeRoundRobinRepo) CreateMatches(_ context.Context, _ repositories.SQLExecutor, matches []models.RoundRobinMatch) error {
	for i := range matches {
		matches[i].ID = f.nextID
		f.nextID++
		matches[i].CreatedAt = time.Now()
		m := matches[i]
		f.matches[m.ID] = &m
	}
	return nil
}

func (f *fakeRoundRobinRepo) GetMatch(_ context.Context, matchID int) (*models.RoundRobinMatch, error) {
	if m, ok := f.matches[matchID]; ok {
		return m, nil
	}
	return nil, repositories.ErrRoundRobinMatchNotFound
}

func (f *fakeRoundRobinRepo) ListMatches(_ context.Context, tournamentID int) ([]models.RoundRobinMatch, error) {
	var out []models.RoundRobinMatch
	for _, m := range f.matches {
		if m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRoundRobinRepo) ListScores(_ context.Context, tournamentID int) (map[int]*models.RoundRobinScore, error) {
	out := make(map[int]*models.RoundRobinScore)
	for id, s := range f.scores {
		if m, ok := f.matches[id]; ok && m.TournamentID == tournamentID {
			copied := *s
			out[id] = &copied
		}
	}
	return out, nil
}

func (f *fakeRoundRobinRepo) GetScore(_ context.Context, matchID int) (*models.RoundRobinScore, error) {
	if s, ok := f.scores[matchID]; ok {
		copied := *s
		return &copied, nil
	}
	return &models.RoundRobinScore{MatchID: matchID, Version: 0}, nil
}

func (f *fakeRoundRobinRepo) UpsertScore(_ context.Context, score *models.RoundRobinScore, expectedVersion int) error {
	current, exists := f.scores[score.MatchID]
	currentVersion := 0
	if exists {
		currentVersion = current.Version
	}
	if currentVersion != expectedVersion {
		return repositories.ErrScoreVersionConflict
	}
	score.Version = currentVersion + 1
	score.UpdatedAt = time.Now()
	copied := *score
	f.scores[score.MatchID] = &copied
	return nil
}

func (f *fakeRoundRobinRepo) DeleteScore(_ context.Context, matchID int, expectedVersion int) error {
	current, exists := f.scores[matchID]
	if !exists {
		if expectedVersion == 0 {
			return nil
		}
		return repositories.ErrScoreVersionConflict
	}
	if current.Version != expectedVersion {
		return repositories.ErrScoreVersionConflict
	}
	delete(f.scores, matchID)
	return nil
}

func (f *fakeRoundRobinRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, m := range f.matches {
		if m.TournamentID == tournamentID {
			delete(f.matches, id)
			delete(f.scores, id)
		}
	}
	return nil
}

type playoffScoreKey struct {
	tournamentID, round, match int
}

type fakePlayoffRepo struct {
	states map[int]*models.PlayoffState
	scores map[playoffScoreKey]*models.PlayoffScore
}

func newFakePlayoffRepo() *fakePlayoffRepo {
	return &fakePlayoffRepo{
		states: make(map[int]*models.PlayoffState),
		scores: make(map[playoffScoreKey]*models.PlayoffScore),
	}
}

func (f *fakePlayoffRepo) CreateState(_ context.Context, _ repositories.SQLExecutor, state *models.PlayoffState) error {
	state.CreatedAt = time.Now()
	f.states[state.TournamentID] = state
	return nil
}

func (f *fakePlayoffRepo) GetState(_ context.Context, tournamentID int) (*models.PlayoffState, error) {
	if s, ok := f.states[tournamentID]; ok {
		return s, nil
	}
	return nil, repositories.ErrPlayoffNotFound
}

func (f *fakePlayoffRepo) ListScores(_ context.Context, tournamentID int) ([]models.PlayoffScore, error) {
	var out []models.PlayoffScore
	for key, s := range f.scores {
		if key.tournamentID == tournamentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Match < out[j].Match
	})
	return out, nil
}

func (f *fakePlayoffRepo) GetScore(_ context.Context, tournamentID, round, match int) (*models.PlayoffScore, error) {
	key := playoffScoreKey{tournamentID, round, match}
	if s, ok := f.scores[key]; ok {
		copied := *s
		return &copied, nil
	}
	return &models.PlayoffScore{TournamentID: tournamentID, Round: round, Match: match, Version: 0}, nil
}

func (f *fakePlayoffRepo) UpsertScore(_ context.Context, score *models.PlayoffScore, expectedVersion int) error {
	key := playoffScoreKey{score.TournamentID, score.Round, score.Match}
	current, exists := f.scores[key]
	currentVersion := 0
	if exists {
		currentVersion = current.Version
	}
	if currentVersion != expectedVersion {
		return repositories.ErrScoreVersionConflict
	}
	score.Version = currentVersion + 1
	score.UpdatedAt = time.Now()
	copied := *score
	f.scores[key] = &copied
	return nil
}

func (f *fakePlayoffRepo) DeleteScore(_ context.Context, tournamentID, round, match int, expectedVersion int) error {
	key := playoffScoreKey{tournamentID, round, match}
	current, exists := f.scores[key]
	if !exists {
		if expectedVersion == 0 {
			return nil
		}
		return repositories.ErrScoreVersionConflict
	}
	if current.Version != expectedVersion {
		return repositories.ErrScoreVersionConflict
	}
	delete(f.scores, key)
	return nil
}

func (f *fakePlayoffRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	delete(f.states, tournamentID)
	for key := range f.scores {
		if key.tournamentID == tournamentID {
			delete(f.scores, key)
		}
	}
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	if t, ok := f.tournaments[id]; ok {
		return t, nil
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *fakeTournamentRepo) List(_ context.Context, _ repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range f.tournaments {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTournamentRepo) UpdateDetails(_ context.Context, t *models.Tournament) error {
	if _, ok := f.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (f *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	return nil
}

func (f *fakeTournamentRepo) ListByStatus(_ context.Context, status models.TournamentStatus) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range f.tournaments {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (f *fakeUserRepo) addUser(u models.User) *models.User {
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []int) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeDuprRepo struct {
	submissions      []models.MatchSubmission
	submittedMatches map[int]*models.SubmittedMatch
	nextID           int
}

func newFakeDuprRepo() *fakeDuprRepo {
	return &fakeDuprRepo{submittedMatches: make(map[int]*models.SubmittedMatch), nextID: 1}
}

func (f *fakeDuprRepo) CreateSubmission(_ context.Context, s *models.MatchSubmission) error {
	s.ID = len(f.submissions) + 1
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	f.submissions = append(f.submissions, *s)
	return nil
}

func (f *fakeDuprRepo) LastSuccessfulSubmission(_ context.Context, tournamentID int) (*models.MatchSubmission, error) {
	for i := len(f.submissions) - 1; i >= 0; i-- {
		s := f.submissions[i]
		if s.TournamentID == tournamentID && s.Success {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeDuprRepo) ListSubmissions(_ context.Context, tournamentID int) ([]models.MatchSubmission, error) {
	var out []models.MatchSubmission
	for _, s := range f.submissions {
		if s.TournamentID == tournamentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDuprRepo) CreateSubmittedMatches(_ context.Context, matches []models.SubmittedMatch) error {
	for i := range matches {
		matches[i].ID = f.nextID
		f.nextID++
		copied := matches[i]
		f.submittedMatches[copied.ID] = &copied
	}
	return nil
}

func (f *fakeDuprRepo) ListSubmittedMatches(_ context.Context, tournamentID int) ([]models.SubmittedMatch, error) {
	var out []models.SubmittedMatch
	for _, m := range f.submittedMatches {
		if m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDuprRepo) ListUnverified(_ context.Context, tournamentID int) ([]models.SubmittedMatch, error) {
	var out []models.SubmittedMatch
	for _, m := range f.submittedMatches {
		if m.TournamentID == tournamentID &&
			m.Status != models.SubmittedMatchDeleted &&
			m.VerificationStatus != models.VerificationVerified {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDuprRepo) GetSubmittedMatch(_ context.Context, id int) (*models.SubmittedMatch, error) {
	if m, ok := f.submittedMatches[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, repositories.ErrSubmittedMatchNotFound
}

func (f *fakeDuprRepo) UpdateVerification(_ context.Context, id int, status models.VerificationStatus, reason *string, duprMatchID, duprMatchCode *string) error {
	m, ok := f.submittedMatches[id]
	if !ok {
		return repositories.ErrSubmittedMatchNotFound
	}
	m.VerificationStatus = status
	m.VerifyReason = reason
	if duprMatchID != nil {
		m.DuprMatchID = duprMatchID
	}
	if duprMatchCode != nil {
		m.DuprMatchCode = duprMatchCode
	}
	return nil
}

func (f *fakeDuprRepo) UpdateStatus(_ context.Context, id int, status models.SubmittedMatchStatus, games []models.Game) error {
	m, ok := f.submittedMatches[id]
	if !ok {
		return repositories.ErrSubmittedMatchNotFound
	}
	m.Status = status
	if games != nil {
		m.Games = games
	}
	return nil
}

func (f *fakeDuprRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, m := range f.submittedMatches {
		if m.TournamentID == tournamentID {
			delete(f.submittedMatches, id)
		}
	}
	var kept []models.MatchSubmission
	for _, s := range f.submissions {
		if s.TournamentID != tournamentID {
			kept = append(kept, s)
		}
	}
	f.submissions = kept
	return nil
}

// fakeProvider scripts the rating provider and records every call, so tests
// can assert both what was sent and that nothing was sent at all.
type fakeProvider struct {
	batchCalls   [][]dupr.MatchPayload
	batchResults []dupr.MatchResult
	batchErr     error

	updateCalls []string
	updateErr   error
	deleteCalls []string
	deleteErr   error

	searchCalls   int
	searchResults []dupr.RemoteMatch
	searchErr     error

	clubs    []dupr.ClubMembership
	clubsErr error
}

func (f *fakeProvider) BatchCreate(_ context.Context, matches []dupr.MatchPayload) (int, []byte, []dupr.MatchResult, error) {
	f.batchCalls = append(f.batchCalls, matches)
	if f.batchErr != nil {
		return 500, []byte(`{"error":"boom"}`), nil, f.batchErr
	}
	return 200, []byte(`{"result":{}}`), f.batchResults, nil
}

func (f *fakeProvider) UpdateMatch(_ context.Context, matchID string, _ dupr.MatchPayload) error {
	f.updateCalls = append(f.updateCalls, matchID)
	return f.updateErr
}

func (f *fakeProvider) DeleteMatch(_ context.Context, matchID string) error {
	f.deleteCalls = append(f.deleteCalls, matchID)
	return f.deleteErr
}

func (f *fakeProvider) SearchClubMatches(_ context.Context, _ string, _, _ time.Time) ([]dupr.RemoteMatch, error) {
	f.searchCalls++
	return f.searchResults, f.searchErr
}

func (f *fakeProvider) GetUserClubs(_ context.Context, _ string) ([]dupr.ClubMembership, error) {
	return f.clubs, f.clubsErr
}

func (f *fakeProvider) totalCalls() int {
	return len(f.batchCalls) + len(f.updateCalls) + len(f.deleteCalls) + f.searchCalls
}
