// Package errkind defines the closed set of error kinds used at every
// component boundary (spec.md §7), so the orchestrator can decide
// recover-vs-escalate by switching on kind rather than string-matching.
package errkind

// Kind is one member of the closed error-kind set.
type Kind string

const (
	InputParse          Kind = "input_parse"
	AnalyzerUnavailable Kind = "analyzer_unavailable"
	StateIO             Kind = "state_io"
	SchemaMismatch      Kind = "schema_mismatch"
	LockContention       Kind = "lock_contention"
	IntegratorDivergence Kind = "integrator_divergence"
	ConfigError          Kind = "config_error"
)

// Fatal reports whether an error of this kind must abort the process
// rather than being recovered and logged as a warning.
func (k Kind) Fatal() bool {
	switch k {
	case SchemaMismatch, LockContention, ConfigError:
		return true
	default:
		return false
	}
}

// ExitCode maps a fatal kind onto the CLI exit code from spec.md §6.
func (k Kind) ExitCode() int {
	switch k {
	case ConfigError:
		return 2
	case LockContention:
		return 3
	case SchemaMismatch:
		return 4
	case StateIO:
		return 5
	default:
		return 1
	}
}

// Error is a typed error carrying a Kind, satisfied at every component
// boundary instead of raising ad-hoc exceptions.
type Error struct {
	K       Kind
	Op      string
	Err     error
}

func New(k Kind, op string, err error) *Error {
	return &Error{K: k, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.K)
	}
	return e.Op + ": " + string(e.K) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() Kind { return e.K }
