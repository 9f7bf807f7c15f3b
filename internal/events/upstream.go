package events

import "time"

// UpstreamStart is emitted before an upstream HTTP request is sent.
type UpstreamStart struct {
	Method string
	URL    string
}

// UpstreamFinish is emitted after an upstream HTTP request completes.
// Status is zero when no response was received.
type UpstreamFinish struct {
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}

// CacheHit is emitted when an upstream response is served from cache.
type CacheHit struct {
	Key string
}

// Coalesced is emitted when a request joins an identical request in flight.
type Coalesced struct {
	Key string
}
