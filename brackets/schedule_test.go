package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleNeverPairsTeamWithItself(t *testing.T) {
	for _, n := range []int{2, 4, 5, 7, 8, 11} {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = i + 1
		}
		schedule := GenerateRoundRobinSchedule(ids, 6)
		require.Len(t, schedule, 6)
		for _, round := range schedule {
			for _, p := range round {
				assert.NotEqual(t, p.Team1ID, p.Team2ID)
			}
		}
	}
}

func TestScheduleOddCountExactlyOneByePerRound(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5}
	schedule := GenerateRoundRobinSchedule(ids, 4)
	require.Len(t, schedule, 4)

	for _, round := range schedule {
		// Two pairings cover four of the five teams; the fifth sits out.
		assert.Len(t, round, 2)
		seen := map[int]bool{}
		for _, p := range round {
			assert.False(t, seen[p.Team1ID])
			assert.False(t, seen[p.Team2ID])
			seen[p.Team1ID] = true
			seen[p.Team2ID] = true
		}
		assert.Len(t, seen, 4)
	}
}

func TestScheduleEvenCountEveryTeamPlaysEveryRound(t *testing.T) {
	ids := []int{10, 20, 30, 40, 50, 60}
	schedule := GenerateRoundRobinSchedule(ids, 5)
	for _, round := range schedule {
		assert.Len(t, round, 3)
		seen := map[int]bool{}
		for _, p := range round {
			seen[p.Team1ID] = true
			seen[p.Team2ID] = true
		}
		assert.Len(t, seen, 6)
	}
}

func TestScheduleRotationVariesOpponents(t *testing.T) {
	ids := []int{1, 2, 3, 4}
	schedule := GenerateRoundRobinSchedule(ids, 3)
	require.Len(t, schedule, 3)

	// Over n-1 rounds of the circle method each team meets each other team
	// exactly once.
	meetings := map[[2]int]int{}
	for _, round := range schedule {
		for _, p := range round {
			a, b := p.Team1ID, p.Team2ID
			if a > b {
				a, b = b, a
			}
			meetings[[2]int{a, b}]++
		}
	}
	assert.Len(t, meetings, 6)
	for pair, count := range meetings {
		assert.Equal(t, 1, count, "pair %v met more than once", pair)
	}
}

func TestScheduleRejectsDegenerateInput(t *testing.T) {
	assert.Nil(t, GenerateRoundRobinSchedule([]int{1}, 3))
	assert.Nil(t, GenerateRoundRobinSchedule([]int{1, 2}, 0))
}
