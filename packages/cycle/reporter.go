package cycle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter handles process output for a run
type Reporter struct {
	writer  io.Writer
	noColor bool
	verbose bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithVerbose enables verbose output
func WithVerbose(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	color.NoColor = r.noColor
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)

	return r
}

// Header prints the run header
func (r *Reporter) Header(version string, config *Config) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintf(r.writer, "reqpace %s\n", version)
	fmt.Fprintln(r.writer)

	r.cyan.Fprintf(r.writer, "A: %s %s\n", config.RequestA.Method, config.RequestA.URL)
	r.cyan.Fprintf(r.writer, "B: %s %s\n", config.RequestB.Method, config.RequestB.URL)

	details := []string{
		fmt.Sprintf("A→A: %s", formatDuration(config.DelayAtoA)),
		fmt.Sprintf("A→B: %s", formatDuration(config.DelayAtoB)),
	}
	if config.MaxCycles > 0 {
		details = append(details, fmt.Sprintf("Cycles: %d", config.MaxCycles))
	} else {
		details = append(details, "Cycles: unbounded")
	}
	if config.Auth != nil {
		details = append(details, fmt.Sprintf("Auth: digest (%s)", config.Auth.Username))
	}

	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Outcome prints the per-request status line.
func (r *Reporter) Outcome(o *Outcome) {
	if o.Success() {
		r.green.Fprintf(r.writer, "[cycle %d] %s %d", o.Cycle, o.Role, o.StatusCode)
		fmt.Fprintf(r.writer, " in %dms\n", o.Elapsed.Milliseconds())
		return
	}

	r.red.Fprintf(r.writer, "[cycle %d] %s failed", o.Cycle, o.Role)
	if o.StatusCode > 0 {
		fmt.Fprintf(r.writer, " (%s, status %d)", o.Kind, o.StatusCode)
	} else {
		fmt.Fprintf(r.writer, " (%s)", o.Kind)
	}
	fmt.Fprintf(r.writer, " in %dms", o.Elapsed.Milliseconds())
	if o.Err != nil && r.verbose {
		fmt.Fprintf(r.writer, ": %v", o.Err)
	}
	fmt.Fprintln(r.writer)
}

// Summary prints the final run summary
func (r *Reporter) Summary(summary *Summary) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "RUN SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Requests:   ")
	r.bold.Fprintf(r.writer, "%d", summary.TotalRequests())
	fmt.Fprintf(r.writer, " (%d failed)\n", summary.TotalFailures())

	for _, rs := range []*RoleSummary{summary.A, summary.B} {
		fmt.Fprintf(r.writer, "Role %s:     ", rs.Role)
		r.green.Fprintf(r.writer, "%d ok", rs.Success)
		fmt.Fprintf(r.writer, " / ")
		if rs.Failures > 0 {
			r.red.Fprintf(r.writer, "%d failed", rs.Failures)
		} else {
			fmt.Fprintf(r.writer, "%d failed", rs.Failures)
		}
		if rs.Total > 0 {
			fmt.Fprintf(r.writer, " | min: %s | mean: %s | max: %s",
				formatLatencyMs(rs.Min), formatLatencyMs(rs.Mean), formatLatencyMs(rs.Max))
		}
		fmt.Fprintln(r.writer)
	}

	if summary.TotalFailures() > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "FAILURES BY KIND")
		printFailureKind(r.writer, "network", summary.NetworkFailures)
		printFailureKind(r.writer, "timeout", summary.TimeoutFailures)
		printFailureKind(r.writer, "http", summary.HTTPFailures)
		printFailureKind(r.writer, "auth", summary.AuthFailures)
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "DISPATCH TIMING (ms)")
	if summary.AtoA.Count > 0 {
		fmt.Fprintf(r.writer, "  A→A: min: %-7s mean: %-7s max: %s\n",
			formatLatencyMs(summary.AtoA.Min), formatLatencyMs(summary.AtoA.Mean), formatLatencyMs(summary.AtoA.Max))
	}
	if summary.AtoB.Count > 0 {
		fmt.Fprintf(r.writer, "  A→B: min: %-7s mean: %-7s max: %s\n",
			formatLatencyMs(summary.AtoB.Min), formatLatencyMs(summary.AtoB.Mean), formatLatencyMs(summary.AtoB.Max))
	}

	fmt.Fprintln(r.writer)
}

func printFailureKind(w io.Writer, name string, count int64) {
	if count > 0 {
		fmt.Fprintf(w, "  %-8s %d\n", name+":", count)
	}
}

// JSONSummary outputs the summary as JSON
func (r *Reporter) JSONSummary(summary *Summary) error {
	output := map[string]interface{}{
		"duration": summary.Duration.String(),
		"roles": map[string]interface{}{
			"A": roleJSON(summary.A),
			"B": roleJSON(summary.B),
		},
		"failuresByKind": map[string]interface{}{
			"network": summary.NetworkFailures,
			"timeout": summary.TimeoutFailures,
			"http":    summary.HTTPFailures,
			"auth":    summary.AuthFailures,
		},
		"dispatchTiming": map[string]interface{}{
			"aToA": deltaJSON(summary.AtoA),
			"aToB": deltaJSON(summary.AtoB),
		},
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func roleJSON(rs *RoleSummary) map[string]interface{} {
	return map[string]interface{}{
		"total":    rs.Total,
		"success":  rs.Success,
		"failures": rs.Failures,
		"minMs":    rs.Min.Milliseconds(),
		"meanMs":   rs.Mean.Milliseconds(),
		"maxMs":    rs.Max.Milliseconds(),
		"p95Ms":    rs.P95.Milliseconds(),
	}
}

func deltaJSON(d DeltaSummary) map[string]interface{} {
	return map[string]interface{}{
		"count":  d.Count,
		"minMs":  d.Min.Milliseconds(),
		"meanMs": d.Mean.Milliseconds(),
		"maxMs":  d.Max.Milliseconds(),
	}
}

// Error prints an error message
func (r *Reporter) Error(format string, args ...interface{}) {
	r.red.Fprintf(r.writer, "Error: "+format+"\n", args...)
}

// Info prints an info message
func (r *Reporter) Info(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format+"\n", args...)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

// formatLatencyMs formats latency in milliseconds
func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}
