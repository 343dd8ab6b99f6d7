package brackets

import (
	"testing"

	"github.com/courtside/pickleball-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func game(s1, s2 int) models.Game {
	return models.Game{Score1: intp(s1), Score2: intp(s2)}
}

func score(round, match int, games ...models.Game) models.PlayoffScore {
	s := models.PlayoffScore{Round: round, Match: match, Version: 1}
	copy(s.Games[:], games)
	return s
}

func TestResolveBracketSizeTwo(t *testing.T) {
	seeds := []int{10, 20}

	b, err := ResolveBracket(seeds, 2, nil, false, false)
	require.NoError(t, err)
	require.Len(t, b.Rounds, 1)
	require.Len(t, b.Rounds[0], 1)
	assert.Nil(t, b.Bronze)
	assert.False(t, b.Complete)

	b, err = ResolveBracket(seeds, 2, []models.PlayoffScore{score(1, 1, game(11, 7))}, false, false)
	require.NoError(t, err)
	gold := b.Gold()
	require.NotNil(t, gold.WinnerID)
	assert.Equal(t, 10, *gold.WinnerID)
	assert.Equal(t, 20, *gold.LoserID)
	assert.True(t, b.Complete, "size 2 has no bronze match")
}

func TestRoundOneByeAutoAdvances(t *testing.T) {
	// Three teams on a bracket of four: slots [1,4,2,3] give seed 1 a bye.
	seeds := []int{1, 2, 3}

	b, err := ResolveBracket(seeds, 4, nil, false, false)
	require.NoError(t, err)

	m1 := b.Rounds[0][0]
	assert.True(t, m1.IsBye)
	require.NotNil(t, m1.WinnerID)
	assert.Equal(t, 1, *m1.WinnerID)
	assert.Nil(t, m1.LoserID, "the loser of a bye is undefined")

	// The bye winner is already placed in the final pairing.
	require.NotNil(t, b.Rounds[1][0].Team1ID)
	assert.Equal(t, 1, *b.Rounds[1][0].Team1ID)

	// Bronze slot fed by the bye semifinal stays empty.
	require.NotNil(t, b.Bronze)
	assert.Nil(t, b.Bronze.Team1ID)

	// No match past round 1 may be a bye while its feeders are undecided.
	for _, m := range b.Rounds[1] {
		assert.False(t, m.IsBye)
	}
}

func TestBestOfThreeSeries(t *testing.T) {
	seeds := []int{10, 20}

	t.Run("two one loss one", func(t *testing.T) {
		scores := []models.PlayoffScore{score(1, 1, game(11, 9), game(9, 11), game(11, 8))}
		b, err := ResolveBracket(seeds, 2, scores, true, false)
		require.NoError(t, err)
		gold := b.Gold()
		require.NotNil(t, gold.WinnerID)
		assert.Equal(t, 10, *gold.WinnerID)
		assert.Len(t, gold.GamesPlayed, 3)
	})

	t.Run("straight games stop at two", func(t *testing.T) {
		scores := []models.PlayoffScore{score(1, 1, game(11, 9), game(11, 7), game(11, 2))}
		b, err := ResolveBracket(seeds, 2, scores, true, false)
		require.NoError(t, err)
		gold := b.Gold()
		require.NotNil(t, gold.WinnerID)
		assert.Equal(t, 10, *gold.WinnerID)
		assert.Len(t, gold.GamesPlayed, 2, "series clinched 2-0, third game not counted")
	})

	t.Run("single game is incomplete", func(t *testing.T) {
		scores := []models.PlayoffScore{score(1, 1, game(11, 9))}
		b, err := ResolveBracket(seeds, 2, scores, true, false)
		require.NoError(t, err)
		assert.Nil(t, b.Gold().WinnerID)
		assert.False(t, b.Complete)
	})

	t.Run("tied game is skipped not counted", func(t *testing.T) {
		scores := []models.PlayoffScore{score(1, 1, game(11, 9), game(10, 10), game(11, 5))}
		b, err := ResolveBracket(seeds, 2, scores, true, false)
		require.NoError(t, err)
		gold := b.Gold()
		require.NotNil(t, gold.WinnerID)
		assert.Equal(t, 10, *gold.WinnerID)
		assert.Len(t, gold.GamesPlayed, 2)
	})
}

func TestBronzeMatchFromSemifinalLosers(t *testing.T) {
	seeds := []int{1, 2, 3, 4}
	scores := []models.PlayoffScore{
		score(1, 1, game(11, 5)), // seed 1 beats seed 4
		score(1, 2, game(11, 8)), // seed 2 beats seed 3
	}

	b, err := ResolveBracket(seeds, 4, scores, false, false)
	require.NoError(t, err)

	require.NotNil(t, b.Bronze)
	require.NotNil(t, b.Bronze.Team1ID)
	require.NotNil(t, b.Bronze.Team2ID)
	assert.Equal(t, 4, *b.Bronze.Team1ID)
	assert.Equal(t, 3, *b.Bronze.Team2ID)

	// Gold decided, bronze still open: bracket not complete.
	scores = append(scores, score(2, 1, game(11, 6)))
	b, err = ResolveBracket(seeds, 4, scores, false, false)
	require.NoError(t, err)
	require.NotNil(t, b.Gold().WinnerID)
	assert.False(t, b.Complete)

	scores = append(scores, score(2, 2, game(11, 9)))
	b, err = ResolveBracket(seeds, 4, scores, false, false)
	require.NoError(t, err)
	assert.True(t, b.Complete)
	assert.Equal(t, 4, *b.Bronze.WinnerID)
}

func TestBronzeBestOfThreeIndependentOfFinal(t *testing.T) {
	seeds := []int{1, 2, 3, 4}
	scores := []models.PlayoffScore{
		score(1, 1, game(11, 5)),
		score(1, 2, game(11, 8)),
		score(2, 1, game(11, 6)),                             // gold: single game
		score(2, 2, game(11, 9), game(9, 11), game(12, 10)), // bronze: full series
	}

	b, err := ResolveBracket(seeds, 4, scores, false, true)
	require.NoError(t, err)
	assert.True(t, b.Complete)
	assert.False(t, b.Gold().BestOfThree)
	assert.True(t, b.Bronze.BestOfThree)
	assert.Equal(t, 4, *b.Bronze.WinnerID)
}

func TestResolveIsDeterministicAndOrderIndependent(t *testing.T) {
	seeds := []int{1, 2, 3, 4, 5, 6, 7, 8}
	scores := []models.PlayoffScore{
		score(1, 1, game(11, 3)),
		score(1, 2, game(5, 11)),
		score(1, 3, game(11, 9)),
		score(1, 4, game(11, 7)),
		score(2, 1, game(11, 4)),
		score(2, 2, game(8, 11)),
	}

	first, err := ResolveBracket(seeds, 8, scores, false, false)
	require.NoError(t, err)

	// Same scores in reverse order must resolve identically.
	reversed := make([]models.PlayoffScore, 0, len(scores))
	for i := len(scores) - 1; i >= 0; i-- {
		reversed = append(reversed, scores[i])
	}
	second, err := ResolveBracket(seeds, 8, reversed, false, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NotNil(t, second.Gold().Team1ID)
}

func TestResolveBracketRejectsBadInput(t *testing.T) {
	_, err := ResolveBracket([]int{1, 2, 3}, 3, nil, false, false)
	assert.Error(t, err)

	_, err = ResolveBracket([]int{1, 2, 3}, 2, nil, false, false)
	assert.Error(t, err, "more seeds than slots")
}

func TestBracketSizeFor(t *testing.T) {
	assert.Equal(t, 2, BracketSizeFor(2))
	assert.Equal(t, 4, BracketSizeFor(3))
	assert.Equal(t, 4, BracketSizeFor(4))
	assert.Equal(t, 8, BracketSizeFor(5))
	assert.Equal(t, 8, BracketSizeFor(8))
}

func TestBracketLabel(t *testing.T) {
	assert.Equal(t, "Quarter-finals", BracketLabel(8, 1, 1))
	assert.Equal(t, "Semi-finals", BracketLabel(8, 2, 2))
	assert.Equal(t, "Semi-finals", BracketLabel(4, 1, 1))
	assert.Equal(t, "Finals", BracketLabel(4, 2, 1))
	assert.Equal(t, "Finals", BracketLabel(2, 1, 1))
	assert.Equal(t, "Bronze Match", BracketLabel(4, 2, 2))
	assert.Equal(t, "Bronze Match", BracketLabel(8, 3, 2))
}
