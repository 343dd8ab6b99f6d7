package brackets

// Pairing is one round-robin fixture slot.
type Pairing struct {
	Team1ID int
	Team2ID int
}

// byeMarker pads an odd field; team IDs are positive so -1 can never collide.
const byeMarker = -1

// GenerateRoundRobinSchedule produces `rounds` rounds of pairings using the
// circle method: one team stays fixed while the rest rotate one position each
// round, the fixed team playing the first rotated team and the remainder
// pairing off mirror-wise. With an odd team count exactly one team sits out
// each round; the bye produces no pairing.
//
// teamIDs arrive pre-ordered (summed rating desc) purely to balance the
// opening rounds; the order has no effect on standings.
func GenerateRoundRobinSchedule(teamIDs []int, rounds int) [][]Pairing {
	if len(teamIDs) < 2 || rounds < 1 {
		return nil
	}

	field := make([]int, len(teamIDs))
	copy(field, teamIDs)
	if len(field)%2 != 0 {
		field = append(field, byeMarker)
	}

	fixed := field[0]
	rotating := make([]int, len(field)-1)
	copy(rotating, field[1:])

	schedule := make([][]Pairing, 0, rounds)
	for r := 0; r < rounds; r++ {
		arr := make([]int, 0, len(field))
		arr = append(arr, fixed)
		arr = append(arr, rotating...)

		round := make([]Pairing, 0, len(arr)/2)
		for i := 0; i < len(arr)/2; i++ {
			a, b := arr[i], arr[len(arr)-1-i]
			if a == byeMarker || b == byeMarker {
				continue
			}
			round = append(round, Pairing{Team1ID: a, Team2ID: b})
		}
		schedule = append(schedule, round)

		// Rotate clockwise by one.
		last := rotating[len(rotating)-1]
		copy(rotating[1:], rotating[:len(rotating)-1])
		rotating[0] = last
	}

	return schedule
}
