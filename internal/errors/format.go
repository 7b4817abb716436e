package errors

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Report is the flat view of an error shared by the CLI, JSON output and
// logs. Errors without a code are reported as internal errors.
type Report struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   Category          `json:"category"`
	Severity   Severity          `json:"severity"`
	Retryable  bool              `json:"retryable"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Describe flattens err into a Report. It returns nil for a nil error.
func Describe(err error) *Report {
	if err == nil {
		return nil
	}
	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}
	r := &Report{
		Code:       ae.Code,
		Message:    ae.Message,
		Category:   ae.Category,
		Severity:   ae.Severity,
		Retryable:  ae.Retryable,
		Suggestion: ae.Suggestion,
		Details:    ae.Details,
	}
	if ae.Cause != nil && ae.Cause.Error() != ae.Message {
		r.Cause = ae.Cause.Error()
	}
	return r
}

// Text renders the report for a terminal. Verbose adds the cause and the
// details, sorted by key.
func (r *Report) Text(verbose bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", r.Message)
	if r.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", r.Suggestion)
	}
	if verbose {
		if r.Cause != "" {
			fmt.Fprintf(&sb, "  Cause: %s\n", r.Cause)
		}
		for _, k := range slices.Sorted(maps.Keys(r.Details)) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, r.Details[k])
		}
	}
	fmt.Fprintf(&sb, "  Code: %s\n", r.Code)
	return sb.String()
}

// FormatForCLI renders err for stderr.
func FormatForCLI(err error, verbose bool) string {
	r := Describe(err)
	if r == nil {
		return ""
	}
	return r.Text(verbose)
}

// LogAttrs returns slog attributes for err. Coded errors log their code,
// category and details next to the message; plain errors only the message.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}
	ae, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error", ae.Message),
		slog.String("error_code", ae.Code),
		slog.String("category", string(ae.Category)),
	}
	if ae.Retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if ae.Cause != nil {
		attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
	}
	for _, k := range slices.Sorted(maps.Keys(ae.Details)) {
		attrs = append(attrs, slog.String("detail_"+k, ae.Details[k]))
	}
	return attrs
}
