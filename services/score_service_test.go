package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickleball-backend/models"
)

func intp(v int) *int { return &v }

func testLogger() *slog.Logger {
	return slog.Default()
}

type scoreFixture struct {
	svc     ScoreService
	rrRepo  *fakeRoundRobinRepo
	poRepo  *fakePlayoffRepo
	state   *fakeStateRepo
	teams   *fakeTeamRepo
	matchID int
}

// newScoreFixture sets up a tournament in the round-robin phase with one
// match between two teams. User 1 is on team 1; user 99 is on neither.
func newScoreFixture(t *testing.T) *scoreFixture {
	t.Helper()

	state := newFakeStateRepo()
	state.phases[1] = models.PhaseRoundRobin

	teams := newFakeTeamRepo()
	team1 := teams.addTeam(1, "Dink Dynasty", models.User{ID: 1}, models.User{ID: 2})
	team2 := teams.addTeam(1, "Net Force", models.User{ID: 3}, models.User{ID: 4})

	rrRepo := newFakeRoundRobinRepo()
	matches := []models.RoundRobinMatch{
		{TournamentID: 1, Round: 1, Team1ID: team1.ID, Team2ID: team2.ID},
	}
	require.NoError(t, rrRepo.CreateMatches(context.Background(), nil, matches))

	poRepo := newFakePlayoffRepo()
	svc := NewScoreService(rrRepo, poRepo, state, teams, nil, testLogger())

	return &scoreFixture{
		svc:     svc,
		rrRepo:  rrRepo,
		poRepo:  poRepo,
		state:   state,
		teams:   teams,
		matchID: matches[0].ID,
	}
}

func TestRoundRobinScoreFirstWriteGetsVersionOne(t *testing.T) {
	f := newScoreFixture(t)

	score, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Version)
	assert.Equal(t, 11, *score.Score1)
	assert.Equal(t, 7, *score.Score2)
}

func TestRoundRobinScoreStaleWriteReturnsConflictWithCurrentState(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	// A second writer who never saw the first write asserts version 0.
	_, err = f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 3, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(9), Score2: intp(11)}},
		ExpectedVersion: 0,
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	current, ok := conflict.Current.(*models.RoundRobinScore)
	require.True(t, ok)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, 11, *current.Score1)
}

func TestRoundRobinScoreSequentialVersions(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	first, err := f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	second, err := f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(9)}},
		ExpectedVersion: first.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 9, *second.Score2)
}

func TestRoundRobinScoreDeleteSemantics(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()
	empty := ScoreUpdateInput{Games: []GameInput{{}}, ExpectedVersion: 0}

	// Deleting an absent score with expected version 0 is a no-op success.
	cleared, err := f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, empty)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Version)

	_, err = f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	// Deleting an existing row with expected version 0 is a conflict.
	_, err = f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, empty)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// Deleting with the right version succeeds and resets to version 0.
	cleared, err = f.svc.UpdateRoundRobinScore(ctx, 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{}},
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Version)
	assert.Nil(t, cleared.Score1)
}

func TestRoundRobinScoreRejectsExtraGames(t *testing.T) {
	f := newScoreFixture(t)

	_, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 1, false, ScoreUpdateInput{
		Games: []GameInput{
			{Score1: intp(11), Score2: intp(7)},
			{Score1: intp(11), Score2: intp(5)},
		},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrGameNotAllowed)
}

func TestScoreRejectsOneSidedGame(t *testing.T) {
	f := newScoreFixture(t)

	_, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 1, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11)}},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrGameScoreIncomplete)
}

func TestScoreRejectsNonParticipant(t *testing.T) {
	f := newScoreFixture(t)

	_, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 99, false, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestScoreAdminBypassesMembership(t *testing.T) {
	f := newScoreFixture(t)

	_, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 99, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	assert.NoError(t, err)
}

// playoffFixture puts tournament 1 in the playoff phase with a 4-team
// bracket, final and bronze both best-of-three.
func playoffFixture(t *testing.T) *scoreFixture {
	t.Helper()
	f := newScoreFixture(t)
	f.state.phases[1] = models.PhasePlayoff

	team3 := f.teams.addTeam(1, "Third Shot Drop", models.User{ID: 5}, models.User{ID: 6})
	team4 := f.teams.addTeam(1, "Kitchen Sink", models.User{ID: 7}, models.User{ID: 8})

	require.NoError(t, f.poRepo.CreateState(context.Background(), nil, &models.PlayoffState{
		TournamentID:      1,
		TeamCount:         4,
		BracketSize:       4,
		SeedOrder:         []int{1, 2, team3.ID, team4.ID},
		FinalBestOfThree:  true,
		BronzeBestOfThree: true,
	}))
	return f
}

func TestPlayoffScoreSemifinalRejectsSecondGame(t *testing.T) {
	f := playoffFixture(t)

	_, err := f.svc.UpdatePlayoffScore(context.Background(), 1, 1, 1, 1, false, ScoreUpdateInput{
		Games: []GameInput{
			{Score1: intp(11), Score2: intp(7)},
			{Score1: intp(11), Score2: intp(5)},
		},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrGameNotAllowed)
}

func TestPlayoffScoreFinalAcceptsSeries(t *testing.T) {
	f := playoffFixture(t)
	ctx := context.Background()

	// Decide both semifinals first so the final slot has teams.
	_, err := f.svc.UpdatePlayoffScore(ctx, 1, 1, 1, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdatePlayoffScore(ctx, 1, 1, 2, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(9)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	score, err := f.svc.UpdatePlayoffScore(ctx, 1, 2, 1, 1, true, ScoreUpdateInput{
		Games: []GameInput{
			{Score1: intp(11), Score2: intp(7)},
			{Score1: intp(9), Score2: intp(11)},
			{Score1: intp(11), Score2: intp(4)},
		},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Version)
	assert.True(t, score.Games[2].Complete())
}

func TestPlayoffScoreGameThreeRequiresGameTwo(t *testing.T) {
	f := playoffFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdatePlayoffScore(ctx, 1, 1, 1, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdatePlayoffScore(ctx, 1, 1, 2, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(9)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdatePlayoffScore(ctx, 1, 2, 1, 1, true, ScoreUpdateInput{
		Games: []GameInput{
			{Score1: intp(11), Score2: intp(7)},
			{},
			{Score1: intp(11), Score2: intp(4)},
		},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrGameOrderInvalid)
}

func TestPlayoffScoreUnknownSlotRejected(t *testing.T) {
	f := playoffFixture(t)

	_, err := f.svc.UpdatePlayoffScore(context.Background(), 1, 5, 1, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	assert.ErrorIs(t, err, ErrSlotNotInBracket)
}

func TestPlayoffScoreStaleConflictCarriesCurrent(t *testing.T) {
	f := playoffFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdatePlayoffScore(ctx, 1, 1, 1, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
		ExpectedVersion: 0,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdatePlayoffScore(ctx, 1, 1, 1, 1, true, ScoreUpdateInput{
		Games:           []GameInput{{Score1: intp(7), Score2: intp(11)}},
		ExpectedVersion: 0,
	})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))

	current, ok := conflict.Current.(*models.PlayoffScore)
	require.True(t, ok)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, 11, *current.Games[0].Score1)
}

func TestRoundRobinScoreOnlyAcceptedInRoundRobinPhase(t *testing.T) {
	for _, phase := range []models.Phase{models.PhaseRegistration, models.PhasePlayoff} {
		t.Run(string(phase), func(t *testing.T) {
			f := newScoreFixture(t)
			f.state.phases[1] = phase

			_, err := f.svc.UpdateRoundRobinScore(context.Background(), 1, f.matchID, 1, false, ScoreUpdateInput{
				Games:           []GameInput{{Score1: intp(11), Score2: intp(7)}},
				ExpectedVersion: 0,
			})
			assert.ErrorIs(t, err, ErrWrongPhase)

			// Pool play is frozen once seeding happened; nothing was written.
			current, getErr := f.rrRepo.GetScore(context.Background(), f.matchID)
			require.NoError(t, getErr)
			assert.Equal(t, 0, current.Version)
		})
	}
}
