// Package types contains the display shapes shared by the service, the
// HTTP API and the CLI.
package types

// Entry is one leaderboard row rounded for display.
type Entry struct {
	Rank       int     `json:"rank"`
	Player     string  `json:"player"`
	Rating     int     `json:"rating"`
	Deviation  int     `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// Match is one match from a player's point of view.
type Match struct {
	Date     string `json:"date"` // DD/MM/YYYY, empty when undated
	Opponent string `json:"opponent"`
	Result   string `json:"result"`
	Score    string `json:"score"`
	Type     string `json:"type"`
	Division string `json:"division"`
	Season   string `json:"season"`
}

// Bucket is a win/loss summary.
type Bucket struct {
	Matches      int     `json:"matches"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	WinRate      string  `json:"win_rate"`
	SetsWon      int     `json:"sets_won"`
	SetsLost     int     `json:"sets_lost"`
	MatchHistory []Match `json:"match_history"`
}

// PlayerStats groups a player's regular, fill-in and combined buckets.
type PlayerStats struct {
	Name     string `json:"name"`
	Rating   *Entry `json:"rating,omitempty"`
	Regular  Bucket `json:"regular"`
	FillIn   Bucket `json:"fillin"`
	Combined Bucket `json:"combined"`
}

// HeadToHead lists matches between two players.
type HeadToHead struct {
	Player1 string  `json:"player1"`
	Player2 string  `json:"player2"`
	P1Wins  int     `json:"p1_wins"`
	P2Wins  int     `json:"p2_wins"`
	Matches []Match `json:"matches"`
}

// Issue is one audit finding.
type Issue struct {
	Sheet   string `json:"season"`
	Row     int    `json:"row"`
	Type    string `json:"type"`
	Details string `json:"details"`
}
