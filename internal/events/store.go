package events

import "time"

// StoreQueryStart is emitted before a statement is sent to the database.
type StoreQueryStart struct {
	Operation string
	Table     string
	Statement string
}

// StoreQueryFinish is emitted after a statement completes.
type StoreQueryFinish struct {
	Operation string
	Table     string
	Statement string
	Rows      int
	Err       error
	Duration  time.Duration
}
