package league

import (
	"fmt"
	"io"
	"sort"
)

// TableEntry holds the standings info for one team.
type TableEntry struct {
	TeamID       int    `json:"team_id"`
	Name         string `json:"name"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	GoalDiff     int    `json:"goal_diff"`
	Points       int    `json:"points"`
}

// CalculateTable builds the standings from the finished matches.
func CalculateTable(matches []*Match) []*TableEntry {
	entriesMap := make(map[int]*TableEntry)
	entry := func(id int, name string) *TableEntry {
		e, ok := entriesMap[id]
		if !ok {
			e = &TableEntry{TeamID: id, Name: name}
			entriesMap[id] = e
		}
		return e
	}

	for _, m := range matches {
		if !m.Finished || m.Score == nil {
			continue
		}
		home := entry(m.HomeID, m.HomeName)
		away := entry(m.AwayID, m.AwayName)

		home.Played++
		away.Played++

		home.GoalsFor += m.Score.Home
		home.GoalsAgainst += m.Score.Away
		away.GoalsFor += m.Score.Away
		away.GoalsAgainst += m.Score.Home

		switch {
		case m.Score.Home > m.Score.Away:
			home.Wins++
			away.Losses++
			home.Points += 3
		case m.Score.Home < m.Score.Away:
			away.Wins++
			home.Losses++
			away.Points += 3
		default:
			home.Draws++
			away.Draws++
			home.Points++
			away.Points++
		}
	}

	entries := make([]*TableEntry, 0, len(entriesMap))
	for _, e := range entriesMap {
		e.GoalDiff = e.GoalsFor - e.GoalsAgainst
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Name < b.Name
	})

	return entries
}

// WriteTable prints the standings as fixed-width text.
func WriteTable(w io.Writer, table []*TableEntry) error {
	if _, err := fmt.Fprintf(w, "%-16s %2s %2s %2s %2s %3s %3s %3s %3s\n",
		"Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"); err != nil {
		return err
	}
	for _, e := range table {
		if _, err := fmt.Fprintf(w, "%-16s %2d %2d %2d %2d %3d %3d %3d %3d\n",
			e.Name, e.Played, e.Wins, e.Draws, e.Losses,
			e.GoalsFor, e.GoalsAgainst, e.GoalDiff, e.Points,
		); err != nil {
			return err
		}
	}
	return nil
}
