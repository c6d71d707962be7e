package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
// Rejected is set when the document never reached execution because parsing
// or validation failed.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Depth         int
	Rejected      bool
	Errors        []error
	Duration      time.Duration
}
