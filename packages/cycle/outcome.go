package cycle

import (
	"time"

	"github.com/abdul-hamid-achik/reqpace/packages/http"
)

// Role identifies which of the cycle's two requests an outcome belongs to.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// FailureKind classifies a failed outcome.
type FailureKind int

const (
	// FailureNone marks a successful outcome
	FailureNone FailureKind = iota
	// FailureNetwork is a transport-level error (DNS, refused connection, reset)
	FailureNetwork
	// FailureTimeout is a request that exceeded its deadline
	FailureTimeout
	// FailureHTTP is a completed request with a non-2xx status
	FailureHTTP
	// FailureAuth is a digest challenge that could not be answered
	FailureAuth
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureHTTP:
		return "http"
	case FailureAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Outcome is the result of dispatching one request of one cycle.
type Outcome struct {
	Role       Role
	Cycle      int
	StatusCode int
	Elapsed    time.Duration
	Kind       FailureKind
	Err        error

	// Response is the raw response, nil on transport failure. A's
	// response feeds field extraction for B.
	Response *http.Response
}

// Success reports whether the request completed with a 2xx status.
func (o *Outcome) Success() bool {
	return o.Kind == FailureNone
}
