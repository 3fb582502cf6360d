package http

import (
	"fmt"
	neturl "net/url"
	"time"
)

// Request describes a single HTTP request to dispatch.
type Request struct {
	Method     string
	URL        string
	Headers    map[string]string
	Body       string
	Timeout    time.Duration
	DigestAuth *DigestAuthCredentials
}

// DigestAuthCredentials holds credentials for digest auth. Realm and
// Nonce may be pre-set from configuration; when empty the client primes
// them from a 401 challenge.
type DigestAuthCredentials struct {
	Username string
	Password string
	Realm    string
	Nonce    string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// HasBody reports whether the method carries a request body.
func (r *Request) HasBody() bool {
	return r.Method == "POST" || r.Method == "PUT"
}

// RequestURI returns the path?query portion of the request URL, which is
// what the digest response must be computed over.
func (r *Request) RequestURI() string {
	u, err := neturl.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	return u.RequestURI()
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
