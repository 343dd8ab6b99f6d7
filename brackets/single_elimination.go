package brackets

import (
	"fmt"

	"github.com/courtside/pickleball-backend/models"
)

// seedSlots maps a bracket size to the fixed seed-to-slot order producing
// standard single-elimination pairing (seed 1 meets the lowest remaining seed
// at every stage). Adjacent pairs form round-1 matches.
var seedSlots = map[int][]int{
	2: {1, 2},
	4: {1, 4, 2, 3},
	8: {1, 8, 4, 5, 2, 7, 3, 6},
}

// BracketSizeFor returns the smallest supported bracket (2, 4 or 8) holding
// teamCount teams, capped at 8.
func BracketSizeFor(teamCount int) int {
	switch {
	case teamCount <= 2:
		return 2
	case teamCount <= 4:
		return 4
	default:
		return 8
	}
}

// NumRounds is log2 of a valid bracket size.
func NumRounds(size int) int {
	n := 0
	for s := size; s > 1; s >>= 1 {
		n++
	}
	return n
}

// ResolvedMatch is one computed slot of the bracket tree.
type ResolvedMatch struct {
	Round int `json:"round"`
	Match int `json:"match"` // 1-based within the round

	Team1ID *int `json:"team1_id"`
	Team2ID *int `json:"team2_id"`

	WinnerID *int `json:"winner_id"`
	LoserID  *int `json:"loser_id"`

	IsBye       bool `json:"is_bye"`
	BestOfThree bool `json:"best_of_three"`

	// Games holds the raw recorded games; GamesPlayed only the decided
	// ones up to and including the clinching game, which is what gets
	// reported to the rating provider.
	Games       []models.Game `json:"games,omitempty"`
	GamesPlayed []models.Game `json:"games_played,omitempty"`
}

// Decided reports whether the match has a determined winner.
func (m *ResolvedMatch) Decided() bool { return m != nil && m.WinnerID != nil }

// Bracket is the full resolved tree plus the bronze match.
type Bracket struct {
	Size     int               `json:"size"`
	Rounds   [][]ResolvedMatch `json:"rounds"` // Rounds[0] = round 1
	Bronze   *ResolvedMatch    `json:"bronze,omitempty"`
	Complete bool              `json:"complete"`
}

// Gold returns the final, or nil for an empty bracket.
func (b *Bracket) Gold() *ResolvedMatch {
	if len(b.Rounds) == 0 {
		return nil
	}
	final := b.Rounds[len(b.Rounds)-1]
	if len(final) == 0 {
		return nil
	}
	return &final[0]
}

// ResolveBracket recomputes the whole single-elimination tree from the seed
// order and the sparse set of recorded scores. It is pure and is re-run from
// scratch after every score write: the result is the single source of truth
// for bracket display, archival checks and rating submission.
//
// seedOrder index 0 is seed 1. A round-1 slot without an opponent is a bye
// and auto-advances without a score; the fixed slot mapping guarantees byes
// cannot occur past round 1.
func ResolveBracket(seedOrder []int, size int, scores []models.PlayoffScore, finalBestOfThree, bronzeBestOfThree bool) (*Bracket, error) {
	slots, ok := seedSlots[size]
	if !ok {
		return nil, fmt.Errorf("unsupported bracket size %d", size)
	}
	if len(seedOrder) > size {
		return nil, fmt.Errorf("seed order has %d teams for bracket size %d", len(seedOrder), size)
	}

	byKey := make(map[[2]int]*models.PlayoffScore, len(scores))
	for i := range scores {
		s := &scores[i]
		byKey[[2]int{s.Round, s.Match}] = s
	}

	totalRounds := NumRounds(size)
	bracket := &Bracket{Size: size, Rounds: make([][]ResolvedMatch, totalRounds)}

	// Round 1 from the slot mapping; both slots are structurally final, so
	// a lone team is a genuine bye.
	firstRound := make([]ResolvedMatch, 0, size/2)
	for i := 0; i < len(slots); i += 2 {
		m := ResolvedMatch{Round: 1, Match: i/2 + 1}
		m.Team1ID = teamAtSeed(seedOrder, slots[i])
		m.Team2ID = teamAtSeed(seedOrder, slots[i+1])
		bo3 := totalRounds == 1 && finalBestOfThree
		decideMatch(&m, byKey[[2]int{m.Round, m.Match}], bo3, true, true)
		firstRound = append(firstRound, m)
	}
	bracket.Rounds[0] = firstRound

	// Later rounds are populated transitively from winners, in slot order.
	// A slot fed by an undecided match is pending, not a bye: the fixed
	// seed mapping guarantees real byes only exist in round 1.
	for r := 2; r <= totalRounds; r++ {
		prev := bracket.Rounds[r-2]
		round := make([]ResolvedMatch, 0, len(prev)/2)
		for i := 0; i < len(prev); i += 2 {
			m := ResolvedMatch{Round: r, Match: i/2 + 1}
			m.Team1ID = prev[i].WinnerID
			m.Team2ID = prev[i+1].WinnerID
			bo3 := r == totalRounds && finalBestOfThree
			decideMatch(&m, byKey[[2]int{m.Round, m.Match}], bo3, prev[i].Decided(), prev[i+1].Decided())
			round = append(round, m)
		}
		bracket.Rounds[r-1] = round
	}

	// Bronze match: both semifinal losers. The loser of a bye semifinal is
	// undefined and leaves its slot definitively empty, so the other loser
	// takes bronze by the normal bye rule.
	if size >= 4 {
		semis := bracket.Rounds[totalRounds-2]
		bronze := &ResolvedMatch{Round: totalRounds, Match: 2}
		bronze.Team1ID = semis[0].LoserID
		bronze.Team2ID = semis[1].LoserID
		decideMatch(bronze, byKey[[2]int{bronze.Round, bronze.Match}], bronzeBestOfThree, semis[0].Decided(), semis[1].Decided())
		bracket.Bronze = bronze
	}

	gold := bracket.Gold()
	bracket.Complete = gold.Decided() && (size < 4 || bracket.Bronze.Decided())

	return bracket, nil
}

func teamAtSeed(seedOrder []int, seed int) *int {
	if seed < 1 || seed > len(seedOrder) {
		return nil
	}
	id := seedOrder[seed-1]
	return &id
}

// decideMatch fills winner/loser and the played-games list for one match.
// slot1Final/slot2Final say whether each slot's content is settled (a team,
// or definitively no team); a nil slot that is still waiting on a feeder
// match is pending and never decides anything. With both slots final,
// exactly one present team means a bye: that team wins without a score.
func decideMatch(m *ResolvedMatch, score *models.PlayoffScore, bestOfThree, slot1Final, slot2Final bool) {
	m.BestOfThree = bestOfThree

	if m.Team1ID == nil || m.Team2ID == nil {
		if !slot1Final || !slot2Final {
			return
		}
		switch {
		case m.Team1ID != nil:
			m.IsBye = true
			m.WinnerID = m.Team1ID
		case m.Team2ID != nil:
			m.IsBye = true
			m.WinnerID = m.Team2ID
		}
		return
	}

	if score == nil {
		return
	}
	m.Games = recordedGames(score)

	if !bestOfThree {
		g := score.Games[0]
		if !g.Decided() {
			return
		}
		m.GamesPlayed = []models.Game{g}
		if *g.Score1 > *g.Score2 {
			m.WinnerID, m.LoserID = m.Team1ID, m.Team2ID
		} else {
			m.WinnerID, m.LoserID = m.Team2ID, m.Team1ID
		}
		return
	}

	// Best of three: evaluate games in order, skipping undecided ones,
	// stopping as soon as a side reaches two wins. Fewer than two wins for
	// either side leaves the series incomplete, not lost.
	wins1, wins2 := 0, 0
	played := make([]models.Game, 0, models.MaxPlayoffGames)
	for _, g := range score.Games {
		if !g.Decided() {
			continue
		}
		played = append(played, g)
		if *g.Score1 > *g.Score2 {
			wins1++
		} else {
			wins2++
		}
		if wins1 == 2 || wins2 == 2 {
			break
		}
	}
	if wins1 < 2 && wins2 < 2 {
		return
	}
	m.GamesPlayed = played
	if wins1 > wins2 {
		m.WinnerID, m.LoserID = m.Team1ID, m.Team2ID
	} else {
		m.WinnerID, m.LoserID = m.Team2ID, m.Team1ID
	}
}

func recordedGames(score *models.PlayoffScore) []models.Game {
	games := make([]models.Game, 0, models.MaxPlayoffGames)
	for _, g := range score.Games {
		if !g.Empty() {
			games = append(games, g)
		}
	}
	return games
}

// BracketLabel names a bracket stage the way the rating provider expects it.
// The second match of the final round is the bronze match on brackets of
// four or more.
func BracketLabel(size, round, match int) string {
	totalRounds := NumRounds(size)
	if round == totalRounds {
		if match == 2 && size >= 4 {
			return "Bronze Match"
		}
		return "Finals"
	}
	switch totalRounds - round {
	case 1:
		return "Semi-finals"
	case 2:
		return "Quarter-finals"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}
