package membarrier

import (
	"runtime"

	"github.com/ehrlich-b/go-membarrier/internal/isa"
)

//go:generate go run ./cmd/membar gen -dir .

// Kind determines what memory traffic a barrier orders.
type Kind = isa.Kind

// Type determines which access directions a barrier orders.
type Type = isa.Type

const (
	// Mmio is the mandatory barrier (Linux mb, rmb, wmb). It orders
	// memory accesses as well as memory-mapped device I/O. This is the
	// strongest kind and the zero value.
	Mmio = isa.Mmio

	// Memory orders cacheable memory across an SMP system (Linux
	// smp_mb, virt_mb and friends). It is also suitable for memory
	// shared between a single-CPU guest and an SMP host.
	Memory = isa.Memory

	// Smp is an alias for Memory.
	Smp = isa.Memory

	// Dma orders memory accessed by both the CPU and DMA-capable
	// devices (Linux dma_mb, dma_rmb, dma_wmb).
	Dma = isa.Dma

	// Compiler runs no CPU instruction. It only prevents the compiler
	// from moving memory accesses across the barrier (Linux barrier).
	Compiler = isa.Compiler
)

const (
	// General orders both loads and stores (the *_mb family).
	General = isa.General

	// Load orders loads (the *_rmb family).
	Load = isa.Load

	// Store orders stores (the *_wmb family).
	Store = isa.Store

	LoadLoad   = isa.Load
	StoreStore = isa.Store
)

// Barrier executes the fence instruction the build architecture requires
// for (kind, typ) before returning.
//
// The architecture is fixed by GOARCH at build time; the instruction for
// every pair is listed by Instruction. Barrier never blocks, allocates or
// fails, and is safe to call from any goroutine. Values outside the
// declared constants are never weakened: an unknown Type is treated as
// General and an unknown Kind as Mmio.
func Barrier(kind Kind, typ Type) {
	switch kind {
	case Memory:
		switch typ {
		case Load:
			memoryLoad()
		case Store:
			memoryStore()
		default:
			memoryGeneral()
		}
	case Dma:
		switch typ {
		case Load:
			dmaLoad()
		case Store:
			dmaStore()
		default:
			dmaGeneral()
		}
	case Compiler:
		compilerBarrier()
	default:
		switch typ {
		case Load:
			mmioLoad()
		case Store:
			mmioStore()
		default:
			mmioGeneral()
		}
	}
}

// Instruction returns the mnemonic Barrier executes for (kind, typ) on
// the build architecture, e.g. "dmb ishld" on arm64. Compiler barriers
// return "".
func Instruction(kind Kind, typ Type) string {
	in, err := isa.Lookup(runtime.GOARCH, kind, typ)
	if err != nil {
		// Unreachable: unsupported.go stops the build first.
		panic(err)
	}
	return in.Name
}

// Arch returns the name of the instruction set Barrier was built for.
func Arch() string {
	a, err := isa.ForGOARCH(runtime.GOARCH)
	if err != nil {
		panic(err)
	}
	return a.Name
}

// Supported lists the GOARCH values membarrier builds for.
func Supported() []string {
	return isa.SupportedGOARCH()
}

// Kinds lists every Kind, strongest first.
func Kinds() []Kind { return isa.Kinds() }

// Types lists every Type, General first.
func Types() []Type { return isa.Types() }
