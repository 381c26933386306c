package spindle

import (
	"errors"

	"github.com/danpasecinic/spindle/internal/errs"
)

// Error is the single error type the injector returns. Chain holds the
// resolution path of cyclic and resolution errors; Keys lists the
// registered keys when a required dependency has no binding.
type Error = errs.Error

type ErrorCode = errs.Code

const (
	ErrCodeUnknown          = errs.CodeUnknown
	ErrCodeConfiguration    = errs.CodeConfiguration
	ErrCodeResolution       = errs.CodeResolution
	ErrCodeCyclicDependency = errs.CodeCyclicDependency
	ErrCodeScope            = errs.CodeScope
	ErrCodeInvocation       = errs.CodeInvocation
	ErrCodeValidation       = errs.CodeValidation
	ErrCodeFrozen           = errs.CodeFrozen
)

func IsConfiguration(err error) bool {
	return errs.Has(err, ErrCodeConfiguration)
}

func IsResolution(err error) bool {
	return errs.Has(err, ErrCodeResolution)
}

func IsCyclicDependency(err error) bool {
	return errs.Has(err, ErrCodeCyclicDependency)
}

func IsScope(err error) bool {
	return errs.Has(err, ErrCodeScope)
}

func IsInvocation(err error) bool {
	return errs.Has(err, ErrCodeInvocation)
}

func IsValidation(err error) bool {
	return errs.Has(err, ErrCodeValidation)
}

func IsFrozen(err error) bool {
	return errs.Has(err, ErrCodeFrozen)
}

// errModuleApplyFailed keeps the code of cause so that IsXxx still
// classifies the failure.
func errModuleApplyFailed(name string, cause error) *Error {
	code := ErrCodeConfiguration
	var e *Error
	if errors.As(cause, &e) {
		code = e.Code
	}
	return errs.New(code, "failed to apply module "+name, cause)
}

func errTypeMismatch(key string, v any) *Error {
	return errs.Configuration("resolved %T does not match the requested type", v).WithKey(key)
}
