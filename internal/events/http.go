package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when a request reaches the subset server. The
// published context carries the request ID.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Bytes    int
	Duration time.Duration
}
