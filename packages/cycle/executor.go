package cycle

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/reqpace/packages/fields"
	"github.com/abdul-hamid-achik/reqpace/packages/http"
)

// Executor dispatches a single request and classifies its outcome. It
// never retries beyond the digest challenge retry performed inside the
// HTTP client.
type Executor struct {
	client  *http.Client
	timeout time.Duration
}

func NewExecutor(client *http.Client, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = http.DefaultTimeout
	}
	return &Executor{
		client:  client,
		timeout: timeout,
	}
}

// Execute builds the request from the spec plus per-cycle values and
// dispatches it. Header precedence, lowest to highest: static spec
// headers, generated fields, extracted fields.
func (e *Executor) Execute(ctx context.Context, role Role, cycle int, spec RequestSpec, extraHeaders, bodyFields map[string]string, auth *AuthConfig) *Outcome {
	req := http.NewRequest(spec.Method, spec.URL)
	req.SetTimeout(e.timeout)

	for k, v := range spec.Headers {
		req.SetHeader(k, v)
	}
	for k, v := range extraHeaders {
		req.SetHeader(k, v)
	}

	if req.HasBody() {
		req.SetBody(fields.ExpandBody(spec.Body, bodyFields))
	}

	if auth != nil {
		req.DigestAuth = &http.DigestAuthCredentials{
			Username: auth.Username,
			Password: auth.Password,
			Realm:    auth.Realm,
			Nonce:    auth.Nonce,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.DoContext(reqCtx, req)
	elapsed := time.Since(start)

	outcome := &Outcome{
		Role:    role,
		Cycle:   cycle,
		Elapsed: elapsed,
	}

	if err != nil {
		outcome.Err = err
		outcome.Kind = classifyError(err)
		return outcome
	}

	outcome.Response = resp
	outcome.StatusCode = resp.StatusCode
	outcome.Elapsed = resp.Duration

	if !resp.IsSuccess() {
		if resp.StatusCode == 401 && (auth != nil || isDigestChallenge(resp)) {
			outcome.Kind = FailureAuth
		} else {
			outcome.Kind = FailureHTTP
		}
	}

	return outcome
}

// isDigestChallenge reports whether a 401 carries a digest challenge,
// which makes it an auth failure even without configured credentials.
func isDigestChallenge(resp *http.Response) bool {
	return strings.HasPrefix(strings.TrimSpace(resp.Header("WWW-Authenticate")), "Digest")
}

func classifyError(err error) FailureKind {
	var authErr *http.AuthError
	if errors.As(err, &authErr) {
		return FailureAuth
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return FailureTimeout
	}

	return FailureNetwork
}
