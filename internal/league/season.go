package league

import "sort"

// SortByKickoff orders matches chronologically, breaking ties by id.
func SortByKickoff(matches []*Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.Kickoff.Equal(b.Kickoff) {
			return a.Kickoff.Before(b.Kickoff)
		}
		return a.ID < b.ID
	})
}

// NextRound is the lowest round that still has an unplayed match.
func NextRound(matches []*Match) (int, bool) {
	next, found := 0, false
	for _, m := range matches {
		if m.Finished {
			continue
		}
		if !found || m.Round < next {
			next, found = m.Round, true
		}
	}
	return next, found
}

// LastRound is the highest scheduled round.
func LastRound(matches []*Match) int {
	last := 0
	for _, m := range matches {
		if m.Round > last {
			last = m.Round
		}
	}
	return last
}

// RoundMatches returns the matches teamID plays in round, in input order.
func RoundMatches(matches []*Match, round, teamID int) []*Match {
	var out []*Match
	for _, m := range matches {
		if m.Round == round && m.Involves(teamID) {
			out = append(out, m)
		}
	}
	return out
}
