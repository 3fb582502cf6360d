package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// AuthError indicates that digest authentication could not be carried
// out: the server challenged but the challenge was unparseable, or no
// credentials were available to answer it.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "digest auth: " + e.Reason
}

type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	validateSSL    bool
	defaultHeaders map[string]string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithDefaultHeader sets a header applied to every request
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

func (c *Client) Do(req *Request) (*Response, error) {
	ctx := context.Background()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	return c.DoContext(ctx, req)
}

// DoContext dispatches a request under the caller's context. Digest
// auth, when configured, is resolved here: either computed up-front
// from a pre-set realm/nonce, or primed with an unauthenticated probe
// followed by a single authenticated retry.
func (c *Client) DoContext(ctx context.Context, req *Request) (*Response, error) {
	if req.DigestAuth != nil {
		if req.DigestAuth.Realm != "" && req.DigestAuth.Nonce != "" {
			header := AuthorizeWithCredentials(req.Method, req.RequestURI(), req.DigestAuth)
			return c.doRequest(ctx, req, header)
		}
		return c.doWithDigestAuth(ctx, req)
	}

	return c.doRequest(ctx, req, "")
}

func (c *Client) doRequest(ctx context.Context, req *Request, authHeader string) (*Response, error) {
	// Validate URL before making request
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.HasBody() && req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	// Set auth header if provided (for digest auth retry)
	if authHeader != "" {
		httpReq.Header.Set("Authorization", authHeader)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func (c *Client) doWithDigestAuth(ctx context.Context, req *Request) (*Response, error) {
	// First request without auth to get the challenge
	resp, err := c.doRequest(ctx, req, "")
	if err != nil {
		return nil, err
	}

	// If not 401, return the response as-is
	if resp.StatusCode != 401 {
		return resp, nil
	}

	wwwAuth := resp.Header("WWW-Authenticate")
	if wwwAuth == "" {
		return resp, nil // Return original response if no challenge
	}

	if req.DigestAuth.Username == "" {
		return nil, &AuthError{Reason: "server challenged but no credentials configured"}
	}

	params := ParseWWWAuthenticate(wwwAuth)
	if params["realm"] == "" || params["nonce"] == "" {
		return nil, &AuthError{Reason: "unparseable WWW-Authenticate challenge: " + wwwAuth}
	}

	auth := &DigestAuth{
		Username: req.DigestAuth.Username,
		Password: req.DigestAuth.Password,
		Realm:    params["realm"],
		Nonce:    params["nonce"],
		URI:      req.RequestURI(),
		Qop:      params["qop"],
		Opaque:   params["opaque"],
		Method:   req.Method,
	}

	if auth.Qop != "" {
		auth.Nc = "00000001"
		cnonce, err := GenerateCnonce()
		if err != nil {
			return nil, err
		}
		auth.Cnonce = cnonce
		// Prefer "auth" qop
		if strings.Contains(auth.Qop, "auth") {
			auth.Qop = "auth"
		}
	}

	authHeader := auth.BuildAuthorizationHeader()

	// Retry with authorization, once
	return c.doRequest(ctx, req, authHeader)
}

func (c *Client) Get(url string, headers map[string]string) (*Response, error) {
	req := NewRequest("GET", url)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return c.Do(req)
}

func (c *Client) Post(url, body string, headers map[string]string) (*Response, error) {
	req := NewRequest("POST", url).SetBody(body)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return c.Do(req)
}
