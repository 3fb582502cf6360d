// Package capture extracts values from a completed response and turns
// them into headers for the follow-up request. Extraction is
// best-effort: unresolvable paths, non-JSON bodies, and missing headers
// silently omit the field rather than failing the cycle.
package capture
