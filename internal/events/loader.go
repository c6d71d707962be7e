package events

import "time"

// LoaderDispatch is emitted after a loader flushes its pending keys in one
// batch call.
type LoaderDispatch struct {
	Loader   string
	Keys     int
	Err      error
	Duration time.Duration
}
