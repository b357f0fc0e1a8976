// Package isa holds the per-architecture fence tables behind membarrier.
//
// Every supported instruction-set architecture has a catalog of the fence
// instructions the package emits, the strength of each instruction in a
// small ordering model, and the selection for every (Kind, Type) pair.
// The tables are data: the assembly in the root package is generated from
// them and the tests check them against the ordering model.
package isa

import "fmt"

// Kind classifies what memory traffic a barrier orders.
type Kind uint8

const (
	// Mmio orders memory accesses and memory-mapped device I/O.
	// It is the strongest kind and the zero value.
	Mmio Kind = iota
	// Memory orders cacheable memory as observed by other CPUs.
	Memory
	// Dma orders memory shared between the CPU and DMA-capable devices.
	Dma
	// Compiler emits no instruction. It only stops the compiler from
	// moving memory accesses across the call.
	Compiler
)

// Type classifies which access directions a barrier orders.
type Type uint8

const (
	// General orders all earlier loads and stores before all later ones.
	General Type = iota
	// Load orders earlier loads before later loads.
	Load
	// Store orders earlier stores before later stores.
	Store
)

// Kinds lists every valid Kind, strongest first.
func Kinds() []Kind { return []Kind{Mmio, Memory, Dma, Compiler} }

// Types lists every valid Type, General first.
func Types() []Type { return []Type{General, Load, Store} }

// CPUKinds lists the kinds that lower to a CPU instruction.
func CPUKinds() []Kind { return []Kind{Mmio, Memory, Dma} }

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k <= Compiler }

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool { return t <= Store }

func (k Kind) String() string {
	switch k {
	case Mmio:
		return "mmio"
	case Memory:
		return "memory"
	case Dma:
		return "dma"
	case Compiler:
		return "compiler"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (t Type) String() string {
	switch t {
	case General:
		return "general"
	case Load:
		return "load"
	case Store:
		return "store"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseKind parses the String form of a Kind. "smp" is accepted for Memory.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "mmio":
		return Mmio, nil
	case "memory", "smp":
		return Memory, nil
	case "dma":
		return Dma, nil
	case "compiler":
		return Compiler, nil
	}
	return 0, fmt.Errorf("unknown barrier kind %q", s)
}

// ParseType parses the String form of a Type. "read" and "write" are
// accepted for Load and Store.
func ParseType(s string) (Type, error) {
	switch s {
	case "general", "full":
		return General, nil
	case "load", "read":
		return Load, nil
	case "store", "write":
		return Store, nil
	}
	return 0, fmt.Errorf("unknown barrier type %q", s)
}
