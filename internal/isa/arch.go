package isa

import (
	"fmt"
	"slices"
	"strings"
)

// Instruction is one fence instruction as emitted by the Go assembler.
type Instruction struct {
	Name   string   // canonical mnemonic from the reference manual, e.g. "dmb ishld"
	Asm    []string // Go assembler lines implementing it
	Effect Effect
}

// CompilerBarrier is the pseudo-instruction selected for Compiler: an
// opaque call with no body, which the compiler cannot move memory
// accesses across.
var CompilerBarrier = Instruction{}

// Arch is the fence table of one instruction-set architecture.
type Arch struct {
	Name    string   // ISA name, e.g. "AArch64"
	GOARCH  []string // GOARCH values sharing this table
	File    string   // generated assembly file in the root package
	Manual  string   // reference the table was taken from
	Catalog []Instruction

	// Select names the catalog instruction for each CPU kind (Mmio,
	// Memory, Dma) and type (General, Load, Store).
	Select [3][3]string
}

// Instruction returns the catalog entry with the given name.
func (a *Arch) Instruction(name string) (Instruction, bool) {
	for _, in := range a.Catalog {
		if in.Name == name {
			return in, true
		}
	}
	return Instruction{}, false
}

// Lookup returns the instruction selected for (kind, typ). Out-of-range
// values are normalized first, so Lookup never answers with something
// weaker than the caller asked for.
func (a *Arch) Lookup(kind Kind, typ Type) (Instruction, error) {
	kind, typ = Normalize(kind, typ)
	if kind == Compiler {
		return CompilerBarrier, nil
	}

	name := a.Select[kind][typ]
	if name == "" {
		return Instruction{}, NewPairError("LOOKUP", a.Name, kind, typ, ErrCodeUnsupportedCombination,
			"no instruction selected")
	}
	in, ok := a.Instruction(name)
	if !ok {
		return Instruction{}, NewPairError("LOOKUP", a.Name, kind, typ, ErrCodeUnsupportedCombination,
			fmt.Sprintf("selected instruction %q missing from catalog", name))
	}
	return in, nil
}

// BuildConstraint returns the //go:build expression for the arch.
func (a *Arch) BuildConstraint() string {
	return strings.Join(a.GOARCH, " || ")
}

// ForGOARCH returns the table for a GOARCH value.
func ForGOARCH(goarch string) (*Arch, error) {
	for i := range Table {
		if slices.Contains(Table[i].GOARCH, goarch) {
			return &Table[i], nil
		}
	}
	return nil, &Error{
		Op:   "LOOKUP",
		Arch: goarch,
		Code: ErrCodeUnsupportedArchitecture,
		Msg:  "no fence table for " + goarch,
	}
}

// Lookup returns the instruction selected for (kind, typ) on goarch.
func Lookup(goarch string, kind Kind, typ Type) (Instruction, error) {
	a, err := ForGOARCH(goarch)
	if err != nil {
		return Instruction{}, err
	}
	return a.Lookup(kind, typ)
}

// SupportedGOARCH lists every GOARCH with a fence table, in table order.
func SupportedGOARCH() []string {
	var out []string
	for _, a := range Table {
		out = append(out, a.GOARCH...)
	}
	return out
}
