package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType is the category of a failure
type ErrorType int

const (
	// ErrorTypeConfig - configuration could not be loaded or is unusable
	ErrorTypeConfig ErrorType = iota
	// ErrorTypeValidation - configuration loaded but failed validation for a stage
	ErrorTypeValidation
	// ErrorTypeParse - git output in a format we do not understand
	ErrorTypeParse
	// ErrorTypeStorage - document store failures
	ErrorTypeStorage
	// ErrorTypeFileSystem - file I/O outside the store
	ErrorTypeFileSystem
	// ErrorTypeExternal - the git binary failed
	ErrorTypeExternal
)

var typeNames = map[ErrorType]string{
	ErrorTypeConfig:     "CONFIG",
	ErrorTypeValidation: "VALIDATION",
	ErrorTypeParse:      "PARSE",
	ErrorTypeStorage:    "STORAGE",
	ErrorTypeFileSystem: "FILESYSTEM",
	ErrorTypeExternal:   "EXTERNAL",
}

func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Severity tells whether rerunning without changes could help
type Severity int

const (
	// SeverityHigh - the user can fix the input and rerun
	SeverityHigh Severity = iota
	// SeverityCritical - the run stopped and produced nothing
	SeverityCritical
)

func (s Severity) String() string {
	if s == SeverityCritical {
		return "CRITICAL"
	}
	return "HIGH"
}

// Error is a failure with a category, severity and key/value context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same type, so callers can test categories
// with errors.Is(err, &Error{Type: ErrorTypeStorage})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Type == t.Type
}

// WithContext records a key/value pair shown by DetailedString
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// DetailedString renders the error with its context and the stack where it
// was created. Used for --verbose output.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s\n", e.Severity, e.Type, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, e.Context[k])
		}
	}

	if e.StackTrace != "" {
		fmt.Fprintf(&sb, "Stack trace:\n%s", e.StackTrace)
	}
	return sb.String()
}

// callers formats up to ten frames above the constructor that called it
func callers() string {
	pcs := make([]uintptr, 10)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "  %s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func build(cause error, errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      cause,
		StackTrace: callers(),
	}
}

// ConfigErrorf reports configuration that cannot be used at all
func ConfigErrorf(format string, args ...interface{}) *Error {
	return build(nil, ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationError reports configuration that failed the checks for a stage
func ValidationError(message string) *Error {
	return build(nil, ErrorTypeValidation, SeverityHigh, message)
}

// ParseErrorf wraps a parse failure. Parse failures always stop the run.
func ParseErrorf(err error, format string, args ...interface{}) *Error {
	return build(err, ErrorTypeParse, SeverityCritical, fmt.Sprintf(format, args...))
}

func StorageError(err error, message string) *Error {
	return build(err, ErrorTypeStorage, SeverityCritical, message)
}

func StorageErrorf(err error, format string, args ...interface{}) *Error {
	return build(err, ErrorTypeStorage, SeverityCritical, fmt.Sprintf(format, args...))
}

func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return build(err, ErrorTypeFileSystem, SeverityHigh, fmt.Sprintf(format, args...))
}

// ExternalErrorf wraps a failure of the git binary. History retrieval has no
// per-file recovery, so these are critical.
func ExternalErrorf(err error, format string, args ...interface{}) *Error {
	return build(err, ErrorTypeExternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// TypeOf returns the category of the first *Error in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}
