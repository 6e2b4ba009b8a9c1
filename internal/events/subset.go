package events

import "time"

// SubsetStart is emitted before documents are collected against a schema.
type SubsetStart struct {
	Documents int
	Types     int
}

// SubsetPass is emitted after each pruning pass.
type SubsetPass struct {
	Pass     string
	Removed  int
	Duration time.Duration
}

// SubsetFinish is emitted once subsetting succeeds or fails.
type SubsetFinish struct {
	TypesBefore int
	TypesAfter  int
	Err         error
	Duration    time.Duration
}
