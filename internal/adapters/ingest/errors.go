package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrOpenWorkbook = errors.New("cannot open workbook")
	ErrReadSeeds    = errors.New("cannot read seed file")
)

// Issue kinds reported in the audit.
const (
	IssueEmptyScore      = "Empty Score"
	IssueInvalidScore    = "Invalid Score"
	IssueMissingOpponent = "Missing Opponent"
	IssueMissingPlayer   = "Missing Player"
	IssueDuplicateRow    = "Duplicate Row"
	IssueInvalidDate     = "Invalid Date"
	IssueInvalidSeed     = "Invalid Seed"
	IssueUnreadableSheet = "Unreadable Sheet"
)
