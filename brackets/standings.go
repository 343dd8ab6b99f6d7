package brackets

import (
	"sort"

	"github.com/courtside/pickleball-backend/models"
)

// TeamStanding is one row of the round-robin table.
type TeamStanding struct {
	TeamID        int     `json:"team_id"`
	Name          string  `json:"name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	GamesPlayed   int     `json:"games_played"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	AvgPointDiff  float64 `json:"avg_point_diff"`
}

// ComputeStandings ranks teams by their recorded round-robin results. It is
// pure and re-runnable on any subset of scores: it backs both the live
// standings display and the playoff seeding.
//
// Only decided games count (both scores recorded and unequal); a tie or a
// missing score contributes nothing, to tallies or point totals alike.
// Order: wins desc, losses asc, average point differential per played game
// desc, display name asc.
func ComputeStandings(teams []models.Team, matches []models.RoundRobinMatch, scores map[int]*models.RoundRobinScore) []TeamStanding {
	index := make(map[int]*TeamStanding, len(teams))
	standings := make([]TeamStanding, len(teams))
	for i, t := range teams {
		standings[i] = TeamStanding{TeamID: t.ID, Name: t.Name}
		index[t.ID] = &standings[i]
	}

	for _, m := range matches {
		score := scores[m.ID]
		if !score.Decided() {
			continue
		}
		s1, s2 := *score.Score1, *score.Score2

		t1 := index[m.Team1ID]
		t2 := index[m.Team2ID]
		if t1 == nil || t2 == nil {
			continue
		}

		t1.GamesPlayed++
		t2.GamesPlayed++
		t1.PointsFor += s1
		t1.PointsAgainst += s2
		t2.PointsFor += s2
		t2.PointsAgainst += s1

		if s1 > s2 {
			t1.Wins++
			t2.Losses++
		} else {
			t2.Wins++
			t1.Losses++
		}
	}

	for i := range standings {
		if standings[i].GamesPlayed > 0 {
			diff := standings[i].PointsFor - standings[i].PointsAgainst
			standings[i].AvgPointDiff = float64(diff) / float64(standings[i].GamesPlayed)
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		if a.AvgPointDiff != b.AvgPointDiff {
			return a.AvgPointDiff > b.AvgPointDiff
		}
		return a.Name < b.Name
	})

	return standings
}
