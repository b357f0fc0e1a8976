package isa

import (
	"errors"
	"fmt"
)

func asmImm(op string, imm uint32) string { return fmt.Sprintf("%s $0x%x", op, imm) }

func asmWord(w uint32) string { return fmt.Sprintf("WORD $0x%08x", w) }

// Validate checks one architecture table:
//
//   - every CPU (kind, type) pair selects a cataloged instruction
//   - the selection covers the pair's requirement
//   - General covers Load and Store of the same kind
//   - a Load or Store pair only shares the General instruction when the
//     catalog has nothing strictly weaker that still covers it
//
// All violations are returned joined.
func Validate(a *Arch) error {
	var errs []error
	if len(a.GOARCH) == 0 {
		errs = append(errs, NewError("VALIDATE", ErrCodeUnsupportedArchitecture, a.Name+": no GOARCH values"))
	}

	for _, kind := range CPUKinds() {
		general, gerr := a.Lookup(kind, General)
		for _, typ := range Types() {
			in, err := a.Lookup(kind, typ)
			if err != nil {
				errs = append(errs, WrapError("VALIDATE", err))
				continue
			}
			if len(in.Asm) == 0 {
				errs = append(errs, NewPairError("VALIDATE", a.Name, kind, typ, ErrCodeUnsupportedCombination,
					fmt.Sprintf("%q has no assembly", in.Name)))
			}

			req := Requirement(kind, typ)
			if !in.Effect.Covers(req) {
				errs = append(errs, NewPairError("VALIDATE", a.Name, kind, typ, ErrCodeWeakerSubstitute,
					fmt.Sprintf("%q does not cover the requirement", in.Name)))
			}

			if typ == General || gerr != nil {
				continue
			}
			if !general.Effect.Covers(in.Effect) {
				errs = append(errs, NewPairError("VALIDATE", a.Name, kind, typ, ErrCodeNotMonotonic,
					fmt.Sprintf("general %q is weaker than %q", general.Name, in.Name)))
			}
			if in.Name == general.Name {
				if cheaper, ok := a.cheaperCover(req, general); ok {
					errs = append(errs, NewPairError("VALIDATE", a.Name, kind, typ, ErrCodeUnneededFallback,
						fmt.Sprintf("falls back to %q although %q covers it", general.Name, cheaper.Name)))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// cheaperCover returns a catalog instruction that covers req and is
// strictly weaker than general.
func (a *Arch) cheaperCover(req Effect, general Instruction) (Instruction, bool) {
	for _, in := range a.Catalog {
		if in.Effect.Covers(req) && in.Effect.StrictlyWeaker(general.Effect) {
			return in, true
		}
	}
	return Instruction{}, false
}

// ValidateAll validates every table entry and checks that no GOARCH is
// claimed twice.
func ValidateAll() error {
	var errs []error
	seen := make(map[string]string)
	for i := range Table {
		a := &Table[i]
		if err := Validate(a); err != nil {
			errs = append(errs, err)
		}
		for _, g := range a.GOARCH {
			if prev, dup := seen[g]; dup {
				errs = append(errs, &Error{Op: "VALIDATE", Arch: g, Code: ErrCodeUnsupportedArchitecture,
					Msg: fmt.Sprintf("claimed by both %s and %s", prev, a.Name)})
			}
			seen[g] = a.Name
		}
	}
	return errors.Join(errs...)
}
