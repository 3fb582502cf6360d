package capture

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/reqpace/packages/http"
	"github.com/tidwall/gjson"
)

const (
	jsonPrefix   = "json."
	headerPrefix = "headers."
)

// Mapping describes how a value read from one response becomes a header
// on the next request.
type Mapping struct {
	Source string // "json.<path>" or "headers.<name>"
	Target string // header name to set
}

// Validate reports whether the mapping is well-formed.
func (m Mapping) Validate() error {
	if m.Target == "" {
		return fmt.Errorf("mapping requires a target header name")
	}
	if !strings.HasPrefix(m.Source, jsonPrefix) && !strings.HasPrefix(m.Source, headerPrefix) {
		return fmt.Errorf("mapping %q: source must start with %q or %q", m.Target, jsonPrefix, headerPrefix)
	}
	return nil
}

// Extractor resolves mappings against a single response. The body is
// parsed as JSON at most once.
type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
	parsed   bool
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{response: resp}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.parsed = true
	}
	return e
}

// Extract resolves a single mapping. The second return is false when
// the source does not resolve.
func (e *Extractor) Extract(m Mapping) (string, bool) {
	switch {
	case strings.HasPrefix(m.Source, jsonPrefix):
		return e.extractFromBody(strings.TrimPrefix(m.Source, jsonPrefix))
	case strings.HasPrefix(m.Source, headerPrefix):
		return e.extractFromHeader(strings.TrimPrefix(m.Source, headerPrefix))
	default:
		return "", false
	}
}

func (e *Extractor) extractFromBody(path string) (string, bool) {
	if !e.parsed || path == "" {
		return "", false
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

func (e *Extractor) extractFromHeader(name string) (string, bool) {
	value := e.response.Header(name)
	if value == "" {
		return "", false
	}
	return value, true
}

// ExtractAll resolves every mapping against the response. Mappings that
// do not resolve are omitted from the result.
func ExtractAll(resp *http.Response, mappings []Mapping) map[string]string {
	extractor := NewExtractor(resp)
	results := make(map[string]string)

	for _, m := range mappings {
		if value, ok := extractor.Extract(m); ok {
			results[m.Target] = value
		}
	}

	return results
}
