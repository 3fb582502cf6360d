package capture

import (
	"testing"

	"github.com/abdul-hamid-achik/reqpace/packages/http"
	"github.com/stretchr/testify/assert"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}
}

func TestExtractJSONPath(t *testing.T) {
	resp := jsonResponse(`{"message":"hi"}`)

	result := ExtractAll(resp, []Mapping{
		{Source: "json.message", Target: "X-Custom-Message"},
	})

	assert.Equal(t, map[string]string{"X-Custom-Message": "hi"}, result)
}

func TestExtractNestedJSONPath(t *testing.T) {
	resp := jsonResponse(`{"task":{"id":"t-1","state":"running"},"items":[{"n":7}]}`)

	result := ExtractAll(resp, []Mapping{
		{Source: "json.task.id", Target: "X-Task-Id"},
		{Source: "json.items.0.n", Target: "X-First-N"},
	})

	assert.Equal(t, "t-1", result["X-Task-Id"])
	assert.Equal(t, "7", result["X-First-N"])
}

func TestExtractHeaderCaseInsensitive(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"X-Session-Token": "tok123"},
	}

	result := ExtractAll(resp, []Mapping{
		{Source: "headers.x-session-token", Target: "X-Session"},
	})

	assert.Equal(t, "tok123", result["X-Session"])
}

func TestExtractMissingPathOmitted(t *testing.T) {
	resp := jsonResponse(`{"message":"hi"}`)

	result := ExtractAll(resp, []Mapping{
		{Source: "json.absent", Target: "X-A"},
		{Source: "headers.No-Such-Header", Target: "X-B"},
		{Source: "json.message", Target: "X-C"},
	})

	assert.Equal(t, map[string]string{"X-C": "hi"}, result)
}

func TestExtractInvalidJSONOmitted(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/html"},
		Body:       []byte("<html>not json</html>"),
	}

	result := ExtractAll(resp, []Mapping{
		{Source: "json.message", Target: "X-Custom-Message"},
	})

	assert.Empty(t, result, "extraction from a non-JSON body must degrade silently")
}

func TestMappingValidate(t *testing.T) {
	assert.NoError(t, Mapping{Source: "json.a.b", Target: "X-T"}.Validate())
	assert.NoError(t, Mapping{Source: "headers.Server", Target: "X-T"}.Validate())
	assert.Error(t, Mapping{Source: "body.a", Target: "X-T"}.Validate())
	assert.Error(t, Mapping{Source: "json.a", Target: ""}.Validate())
}
