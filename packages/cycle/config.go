// Package cycle drives repeating two-request cycles against HTTP
// endpoints with strict timing guarantees: consecutive A dispatches are
// spaced by delayAtoA anchored on dispatch time, and each B is
// dispatched delayAtoB after its paired A, as an independent concurrent
// operation that may be enriched with values extracted from A's
// response.
package cycle

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/reqpace/packages/capture"
	"github.com/abdul-hamid-achik/reqpace/packages/fields"
	"github.com/abdul-hamid-achik/reqpace/packages/http"
)

// RequestSpec describes one of the two requests of a cycle.
type RequestSpec struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Validate checks method, URL, and body constraints.
func (s *RequestSpec) Validate() error {
	switch s.Method {
	case "GET":
		if s.Body != "" {
			return fmt.Errorf("GET request cannot carry a body")
		}
	case "POST", "PUT":
	default:
		return fmt.Errorf("unsupported method %q (GET, POST, PUT)", s.Method)
	}

	return http.ValidateURL(s.URL)
}

// AuthConfig holds digest credentials. Realm and Nonce are optional;
// when absent the executor primes them from a 401 challenge.
type AuthConfig struct {
	Username string
	Password string
	Realm    string
	Nonce    string
}

// Config holds everything needed to run cycles. It is read-only once
// the run starts and shared by reference across all cycles.
type Config struct {
	RequestA RequestSpec
	RequestB RequestSpec

	// DelayAtoA is the minimum spacing between consecutive A dispatches.
	DelayAtoA time.Duration
	// DelayAtoB is the offset from A's dispatch to B's dispatch within a cycle.
	DelayAtoB time.Duration

	// MaxCycles stops the run after this many cycles; 0 runs until cancelled.
	MaxCycles int

	// Timeout applies per request.
	Timeout time.Duration

	Auth     *AuthConfig
	Fields   []fields.Spec
	Mappings []capture.Mapping
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DelayAtoA: time.Second,
		DelayAtoB: 100 * time.Millisecond,
		Timeout:   30 * time.Second,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if err := c.RequestA.Validate(); err != nil {
		return fmt.Errorf("requestA: %w", err)
	}
	if err := c.RequestB.Validate(); err != nil {
		return fmt.Errorf("requestB: %w", err)
	}

	if c.DelayAtoA < 0 {
		return fmt.Errorf("delayAtoA cannot be negative")
	}
	if c.DelayAtoB < 0 {
		return fmt.Errorf("delayAtoB cannot be negative")
	}
	if c.MaxCycles < 0 {
		return fmt.Errorf("maxCycles cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Auth != nil && (c.Auth.Username == "" || c.Auth.Password == "") {
		return fmt.Errorf("auth requires both username and password")
	}

	for _, spec := range c.Fields {
		if err := spec.Validate(); err != nil {
			return err
		}
	}

	for _, m := range c.Mappings {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	return nil
}
