package errs

import (
	"errors"
	"fmt"
	"strings"
)

type Code uint16

const (
	CodeUnknown Code = iota
	CodeConfiguration
	CodeResolution
	CodeCyclicDependency
	CodeScope
	CodeInvocation
	CodeValidation
	CodeFrozen
)

var codeNames = map[Code]string{
	CodeUnknown:          "UNKNOWN",
	CodeConfiguration:    "CONFIGURATION",
	CodeResolution:       "RESOLUTION",
	CodeCyclicDependency: "CYCLIC_DEPENDENCY",
	CodeScope:            "SCOPE",
	CodeInvocation:       "INVOCATION",
	CodeValidation:       "VALIDATION",
	CodeFrozen:           "FROZEN",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the single error type the injector returns. Chain holds the
// resolution path for cyclic and resolution errors; Keys lists the
// registered keys when nothing could satisfy a required dependency.
type Error struct {
	Code    Code
	Message string
	Key     string
	Cause   error
	Chain   []string
	Keys    []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Key != "" {
		b.WriteString(fmt.Sprintf(" key=%q:", e.Key))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

func (e *Error) WithChain(chain []string) *Error {
	e.Chain = chain
	return e
}

func New(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func Configuration(format string, args ...any) *Error {
	return New(CodeConfiguration, fmt.Sprintf(format, args...), nil)
}

// Resolution reports a required key nobody binds. known is the sorted,
// deduplicated listing of every registered key.
func Resolution(key string, known []string, chain []string) *Error {
	var b strings.Builder
	b.WriteString("no binding to construct an instance; existing bindings:")
	for _, k := range known {
		b.WriteString("\n - ")
		b.WriteString(k)
	}
	e := New(CodeResolution, b.String(), nil).WithKey(key).WithChain(chain)
	e.Keys = known
	return e
}

func Cyclic(chain []string) *Error {
	return New(
		CodeCyclicDependency,
		"cyclic dependency detected: "+strings.Join(chain, " -> "),
		nil,
	).WithChain(chain)
}

func Scope(marker any) *Error {
	return New(CodeScope, fmt.Sprintf("scope not bound for marker %T", marker), nil)
}

// Invocation wraps a failure raised by user code. Injector errors pass
// through unchanged so the innermost diagnosis survives.
func Invocation(key, what string, cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return New(CodeInvocation, what, cause).WithKey(key)
}

func Frozen(operation string) *Error {
	return New(CodeFrozen, operation+" is not allowed after the injector is frozen", nil)
}

func Has(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
