package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "warehouse.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownKinds are the storage kinds a default binary registers.
var knownKinds = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"mysql":    true,
	"mssql":    true,
}

// knownDedupPolicies mirrors the cleaning stage's accepted policies.
var knownDedupPolicies = map[string]bool{
	"exact":        true,
	"invoice-line": true,
}

// Validate performs static validation of a Config. It does not mutate the
// config; it returns a slice of findings the caller can surface. Callers
// decide whether warnings block execution.
func Validate(c *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Source.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "input file path must not be empty",
		})
	}
	if c.Source.Delimiter != "" && len([]rune(c.Source.Delimiter)) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.delimiter",
			Message:  "delimiter has more than one character; only the first is used",
		})
	}
	switch strings.ToLower(strings.TrimSpace(c.Source.Encoding)) {
	case "", "utf-8", "utf8", "iso-8859-1", "latin-1", "latin1":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.encoding",
			Message:  fmt.Sprintf("unsupported encoding %q (use utf-8 or iso-8859-1)", c.Source.Encoding),
		})
	}

	if p := strings.ToLower(strings.TrimSpace(c.Clean.DedupPolicy)); p != "" && !knownDedupPolicies[p] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "clean.dedup_policy",
			Message:  fmt.Sprintf("unknown policy %q (use exact or invoice-line)", c.Clean.DedupPolicy),
		})
	}

	if !knownKinds[strings.TrimSpace(c.Warehouse.Kind)] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unknown warehouse kind %q", c.Warehouse.Kind),
		})
	}
	if strings.TrimSpace(c.Warehouse.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.dsn",
			Message:  "warehouse DSN must not be empty",
		})
	}
	if c.Warehouse.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.batch_size",
			Message:  "batch size must not be negative",
		})
	}

	if c.Export.Enabled && strings.TrimSpace(c.Export.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.dir",
			Message:  "export directory must not be empty when export is enabled",
		})
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
