package ingest

import "strings"

// Header aliases, first match wins.
var (
	colName1    = []string{"Name 1", "Player 1"}
	colName2    = []string{"Name 2", "Player 2"}
	colSets1    = []string{"Sets 1", "S1"}
	colSets2    = []string{"Sets 2", "S2"}
	colDate     = []string{"Date", "Match Date"}
	colRound    = []string{"Round", "Rd", "Week"}
	colDivision = []string{"Division", "Div"}
	colStatus1  = []string{"PS 1", "Pos 1"}
	colStatus2  = []string{"PS 2", "Pos 2"}
	colFormat   = []string{"Format", "Match Format", "Type"}

	colSeason = []string{"Season", "Season Name", "Name"}
	colStart  = []string{"Start Date", "Start", "Date", "First Round"}
)

// header maps column titles to indexes.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, title := range row {
		t := strings.TrimSpace(title)
		if _, dup := h[t]; t != "" && !dup {
			h[t] = i
		}
	}
	return h
}

// get returns the trimmed cell under the first present alias, or def when
// no alias is a column.
func (h header) get(row []string, aliases []string, def string) string {
	for _, a := range aliases {
		i, ok := h[a]
		if !ok {
			continue
		}
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return def
}

// cleanName collapses internal whitespace runs.
func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
