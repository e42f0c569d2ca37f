package fetch

type bootstrapResponse struct {
	Teams    []apiTeam    `json:"teams"`
	Elements []apiElement `json:"elements"`
}

type apiTeam struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Code        int    `json:"code"`
	Unavailable bool   `json:"unavailable"`
}

type apiElement struct {
	ID                       int    `json:"id"`
	WebName                  string `json:"web_name"`
	ElementType              int    `json:"element_type"`
	TeamCode                 int    `json:"team_code"`
	NowCost                  int    `json:"now_cost"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
}

type apiFixture struct {
	ID          int     `json:"id"`
	Event       *int    `json:"event"`
	TeamH       int     `json:"team_h"`
	TeamA       int     `json:"team_a"`
	TeamHScore  *int    `json:"team_h_score"`
	TeamAScore  *int    `json:"team_a_score"`
	KickoffTime *string `json:"kickoff_time"`
	Finished    bool    `json:"finished"`
}

type elementSummaryResponse struct {
	History []apiHistoryRow `json:"history"`
}

type apiHistoryRow struct {
	Fixture      int    `json:"fixture"`
	OpponentTeam int    `json:"opponent_team"`
	TotalPoints  int    `json:"total_points"`
	Minutes      int    `json:"minutes"`
	Value        int    `json:"value"`
	Round        int    `json:"round"`
	KickoffTime  string `json:"kickoff_time"`
}

type picksResponse struct {
	ActiveChip   *string `json:"active_chip"`
	EntryHistory struct {
		Event          int `json:"event"`
		Bank           int `json:"bank"`
		EventTransfers int `json:"event_transfers"`
	} `json:"entry_history"`
	Picks []struct {
		Element int `json:"element"`
	} `json:"picks"`
}
