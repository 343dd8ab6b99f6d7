package brackets

import (
	"testing"

	"github.com/courtside/pickleball-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rrScore(matchID, s1, s2 int) *models.RoundRobinScore {
	return &models.RoundRobinScore{MatchID: matchID, Score1: intp(s1), Score2: intp(s2), Version: 1}
}

func TestComputeStandingsOrdering(t *testing.T) {
	teams := []models.Team{
		{ID: 1, Name: "Dill With It"},
		{ID: 2, Name: "Big Dill Energy"},
		{ID: 3, Name: "Kind of a Big Dill"},
		{ID: 4, Name: "The Volley Llamas"},
	}
	matches := []models.RoundRobinMatch{
		{ID: 100, Round: 1, Team1ID: 1, Team2ID: 2},
		{ID: 101, Round: 1, Team1ID: 3, Team2ID: 4},
		{ID: 102, Round: 2, Team1ID: 1, Team2ID: 3},
		{ID: 103, Round: 2, Team1ID: 2, Team2ID: 4},
	}
	scores := map[int]*models.RoundRobinScore{
		100: rrScore(100, 11, 5), // 1 beats 2 by 6
		101: rrScore(101, 11, 9), // 3 beats 4 by 2
		102: rrScore(102, 3, 11), // 3 beats 1 by 8
		103: rrScore(103, 11, 3), // 2 beats 4 by 8
	}

	standings := ComputeStandings(teams, matches, scores)
	require.Len(t, standings, 4)

	// Team 3: 2-0. Teams 1 and 2: 1-1, avg diff -1 vs +1. Team 4: 0-2.
	assert.Equal(t, 3, standings[0].TeamID)
	assert.Equal(t, 2, standings[1].TeamID)
	assert.Equal(t, 1, standings[2].TeamID)
	assert.Equal(t, 4, standings[3].TeamID)

	assert.Equal(t, 2, standings[0].Wins)
	assert.InDelta(t, 5.0, standings[0].AvgPointDiff, 1e-9)
	assert.InDelta(t, 1.0, standings[1].AvgPointDiff, 1e-9)
	assert.InDelta(t, -1.0, standings[2].AvgPointDiff, 1e-9)
}

func TestComputeStandingsNameTieBreak(t *testing.T) {
	teams := []models.Team{
		{ID: 2, Name: "Zero Zero Two"},
		{ID: 1, Name: "Net Gains"},
	}

	standings := ComputeStandings(teams, nil, nil)
	require.Len(t, standings, 2)
	assert.Equal(t, "Net Gains", standings[0].Name)
	assert.Equal(t, "Zero Zero Two", standings[1].Name)
}

func TestComputeStandingsIgnoresUndecidedGames(t *testing.T) {
	teams := []models.Team{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	matches := []models.RoundRobinMatch{
		{ID: 1, Round: 1, Team1ID: 1, Team2ID: 2},
		{ID: 2, Round: 2, Team1ID: 1, Team2ID: 2},
		{ID: 3, Round: 3, Team1ID: 1, Team2ID: 2},
	}
	scores := map[int]*models.RoundRobinScore{
		1: rrScore(1, 10, 10), // tie: not decided
		// match 2 unplayed
		3: rrScore(3, 11, 6),
	}

	standings := ComputeStandings(teams, matches, scores)
	require.Len(t, standings, 2)
	assert.Equal(t, 1, standings[0].TeamID)
	assert.Equal(t, 1, standings[0].Wins)
	assert.Equal(t, 1, standings[0].GamesPlayed, "tied and unplayed games contribute nothing")
	assert.Equal(t, 11, standings[0].PointsFor)
}

func TestComputeStandingsZeroGames(t *testing.T) {
	teams := []models.Team{{ID: 7, Name: "Idle"}}
	standings := ComputeStandings(teams, nil, nil)
	require.Len(t, standings, 1)
	assert.Zero(t, standings[0].Wins)
	assert.Zero(t, standings[0].Losses)
	assert.Zero(t, standings[0].AvgPointDiff)
}
