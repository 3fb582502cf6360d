// Package fields generates the per-cycle values shared between the A
// and B requests of a cycle. Supported generators:
//   - random: fresh pseudorandom alphanumeric string
//   - timestamp: current time in milliseconds since epoch
//   - counter: process-wide atomic counter, unique per call
//   - uuid: random UUID v4
//   - fixed: configured value, verbatim
//
// Header-targeted fields become request headers on both A and B; body
// fields are substituted into {name} placeholders in request bodies.
package fields
