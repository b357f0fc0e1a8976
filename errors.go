package membarrier

import "github.com/ehrlich-b/go-membarrier/internal/isa"

// Barrier itself never fails. These errors come from the table tooling
// (Lookup, Validate, the generator) and describe why a build would be
// rejected.

// Error is a structured fence-table error
type Error = isa.Error

// ErrorCode is a high-level error category
type ErrorCode = isa.ErrorCode

// Re-export error codes for public API
const (
	ErrCodeUnsupportedArchitecture = isa.ErrCodeUnsupportedArchitecture
	ErrCodeUnsupportedCombination  = isa.ErrCodeUnsupportedCombination
	ErrCodeWeakerSubstitute        = isa.ErrCodeWeakerSubstitute
	ErrCodeNotMonotonic            = isa.ErrCodeNotMonotonic
	ErrCodeUnneededFallback        = isa.ErrCodeUnneededFallback
	ErrCodeStaleGenerated          = isa.ErrCodeStaleGenerated
	ErrCodeIOError                 = isa.ErrCodeIOError
)

// Sentinel errors for errors.Is comparisons
var (
	ErrUnsupportedArchitecture = isa.ErrUnsupportedArchitecture
	ErrUnsupportedCombination  = isa.ErrUnsupportedCombination
	ErrWeakerSubstitute        = isa.ErrWeakerSubstitute
	ErrNotMonotonic            = isa.ErrNotMonotonic
	ErrUnneededFallback        = isa.ErrUnneededFallback
	ErrStaleGenerated          = isa.ErrStaleGenerated
)

// Lookup returns the mnemonic selected for (kind, typ) on any GOARCH,
// not only the one being built. It fails with ErrUnsupportedArchitecture
// for architectures without a fence table.
func Lookup(goarch string, kind Kind, typ Type) (string, error) {
	in, err := isa.Lookup(goarch, kind, typ)
	if err != nil {
		return "", err
	}
	return in.Name, nil
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	return isa.IsCode(err, code)
}
