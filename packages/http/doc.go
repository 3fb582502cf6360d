// Package http wraps the standard HTTP client with the request and
// response shapes used by the cycle driver: string-keyed headers,
// measured duration, and digest authentication with challenge priming.
package http
