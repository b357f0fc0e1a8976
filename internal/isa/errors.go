package isa

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a structured fence-table error with context
type Error struct {
	Op    string    // Operation that failed (e.g., "LOOKUP", "VALIDATE", "GEN")
	Arch  string    // Architecture name or GOARCH ("" if not applicable)
	Kind  *Kind     // Barrier kind (nil if not applicable)
	Type  *Type     // Barrier type (nil if not applicable)
	Code  ErrorCode // High-level error category
	Msg   string    // Human-readable message
	Inner error     // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}
	if e.Arch != "" {
		parts = append(parts, "arch="+e.Arch)
	}
	if e.Kind != nil {
		parts = append(parts, "kind="+e.Kind.String())
	}
	if e.Type != nil {
		parts = append(parts, "type="+e.Type.String())
	}

	msg := string(e.Code)
	if e.Msg != "" && msg != "" {
		msg += ": " + e.Msg
	} else if e.Msg != "" {
		msg = e.Msg
	}

	if len(parts) > 0 {
		return fmt.Sprintf("membarrier: %s (%s)", msg, strings.Join(parts, ", "))
	}
	return "membarrier: " + msg
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches sentinel errors and other structured errors by code
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeUnsupportedArchitecture ErrorCode = "UnsupportedArchitecture"
	ErrCodeUnsupportedCombination  ErrorCode = "UnsupportedCombination"
	ErrCodeWeakerSubstitute        ErrorCode = "WeakerSubstitute"
	ErrCodeNotMonotonic            ErrorCode = "NotMonotonic"
	ErrCodeUnneededFallback        ErrorCode = "UnneededFallback"
	ErrCodeStaleGenerated          ErrorCode = "StaleGenerated"
	ErrCodeIOError                 ErrorCode = "I/O error"
)

// Sentinel errors for errors.Is comparisons
var (
	ErrUnsupportedArchitecture = &Error{Code: ErrCodeUnsupportedArchitecture}
	ErrUnsupportedCombination  = &Error{Code: ErrCodeUnsupportedCombination}
	ErrWeakerSubstitute        = &Error{Code: ErrCodeWeakerSubstitute}
	ErrNotMonotonic            = &Error{Code: ErrCodeNotMonotonic}
	ErrUnneededFallback        = &Error{Code: ErrCodeUnneededFallback}
	ErrStaleGenerated          = &Error{Code: ErrCodeStaleGenerated}
)

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Msg:  msg,
	}
}

// NewPairError creates an error scoped to one (kind, type) pair of an architecture
func NewPairError(op, arch string, kind Kind, typ Type, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Arch: arch,
		Kind: &kind,
		Type: &typ,
		Code: code,
		Msg:  msg,
	}
}

// WrapError wraps an existing error with operation context
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	var ie *Error
	if errors.As(inner, &ie) {
		w := &Error{
			Op:    op,
			Arch:  ie.Arch,
			Kind:  ie.Kind,
			Type:  ie.Type,
			Code:  ie.Code,
			Msg:   ie.Msg,
			Inner: ie.Inner,
		}
		// A joined error keeps every violation reachable through Inner.
		if j, ok := inner.(interface{ Unwrap() []error }); ok {
			if n := len(j.Unwrap()); n > 1 {
				w.Msg = fmt.Sprintf("%s (and %d more)", ie.Msg, n-1)
				w.Inner = inner
			}
		}
		return w
	}

	return &Error{
		Op:    op,
		Code:  ErrCodeIOError,
		Msg:   inner.Error(),
		Inner: inner,
	}
}

// IsCode checks if an error matches a specific error code
// anywhere in its chain, including joined errors.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &Error{Code: code})
}
