package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the GraphQL handler accepts a request, before
// the body is read.
type HTTPStart struct {
	RequestID string
	Request   *http.Request
}

// HTTPFinish is published once the response has been written. Operations is
// the number of GraphQL operations carried by the body: 1 for a single
// request, the array length for a batch and 0 when the body was rejected.
type HTTPFinish struct {
	RequestID  string
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}
