package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Get(server.URL+"/test", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.Contains(t, resp.BodyString(), "hello")
	assert.True(t, resp.Duration > 0)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Post(server.URL+"/items", `{"name":"x"}`, map[string]string{
		"Content-Type": "application/json",
	})

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestClient_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-value", r.Header.Get("X-Custom"))
		assert.Equal(t, "reqpace", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeader("User-Agent", "reqpace"))
	req := NewRequest("GET", server.URL).SetHeader("X-Custom", "custom-value")
	_, err := client.Do(req)
	require.NoError(t, err)
}

func TestClient_InvalidURL(t *testing.T) {
	client := NewClient()

	_, err := client.Get("ftp://example.com/file", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")

	_, err = client.Get("http://", nil)
	require.Error(t, err)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL).SetTimeout(50 * time.Millisecond)
	_, err := client.Do(req)
	require.Error(t, err)
}

func TestClient_DigestChallengeRetry(t *testing.T) {
	const realm = "device"
	const nonce = "abc123"
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s"`, realm, nonce))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		expected := referenceDigest("admin", realm, "secret", nonce, "GET", "/protected")
		if !strings.Contains(auth, expected) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL+"/protected")
	req.DigestAuth = &DigestAuthCredentials{Username: "admin", Password: "secret"}

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2, attempts, "should probe once and retry once")
}

func TestClient_DigestPresetRealmNonce(t *testing.T) {
	const realm = "device"
	const nonce = "pre-set"
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		expected := referenceDigest("admin", realm, "secret", nonce, "GET", "/protected")
		if !strings.Contains(r.Header.Get("Authorization"), expected) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL+"/protected")
	req.DigestAuth = &DigestAuthCredentials{
		Username: "admin",
		Password: "secret",
		Realm:    realm,
		Nonce:    nonce,
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, attempts, "pre-set realm/nonce skips the priming request")
}

func TestClient_DigestUnparseableChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Digest garbage`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL)
	req.DigestAuth = &DigestAuthCredentials{Username: "u", Password: "p"}

	_, err := client.Do(req)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "unparseable")
}

func TestClient_DigestNoChallengeHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL)
	req.DigestAuth = &DigestAuthCredentials{Username: "u", Password: "p"}

	// A bare 401 without a challenge is returned as-is, not an auth error.
	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
