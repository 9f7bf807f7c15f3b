package events

import (
	"net/http"
	"time"
)

// For every request the server publishes HTTPStart, then a GraphQLStart and
// GraphQLFinish pair per executed operation, then HTTPFinish. A batched
// request executes several operations.

type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish reports the status written for the request and how many
// operations it executed.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}

// Operation names one GraphQL operation. Index is its position in a batched
// request, zero otherwise.
type Operation struct {
	Name  string
	Type  string
	Query string
	Index int
}

type GraphQLStart struct {
	Operation
}

// GraphQLFinish carries every error of the result, located or not.
type GraphQLFinish struct {
	Operation
	Errors   []error
	Duration time.Duration
}
