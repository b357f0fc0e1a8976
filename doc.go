// Package membarrier provides cross-architecture CPU memory barriers.
//
// Compilers and CPUs reorder independent memory accesses. A barrier
// restricts that reordering so other CPUs and devices observe memory
// effects in program order, which is what lock-free rings, device
// drivers and DMA descriptor handoffs rely on. The barriers follow the
// Linux kernel memory barriers: Kind picks the family (mandatory, SMP,
// DMA or compiler-only) and Type the direction (general, read, write).
//
//	membarrier.Barrier(membarrier.Mmio, membarrier.General)
//
// The fence instruction for every pair is selected when the package is
// built, from per-architecture assembly generated out of internal/isa.
// There is no runtime CPU detection and no fallback: building for an
// architecture without a fence table fails with an
// UnsupportedArchitecture error from the compiler.
//
// Supported architectures:
//
//	ISA           GOARCH
//	x86-64        amd64
//	x86           386 (GO386=sse2; GO386=softfloat fails to build)
//	AArch64       arm64
//	RISC-V RV64   riscv64
//	Power         ppc64, ppc64le
//	MIPS32        mips, mipsle
//	MIPS64        mips64, mips64le
//
// Barrier orders the calling goroutine's own accesses only. Pairing it
// with the matching barrier on the observing side is up to the caller.
// Go programs that only share memory between goroutines should keep
// using sync/atomic, whose operations already carry the required
// ordering; membarrier is for memory the Go memory model does not cover,
// such as device registers and buffers shared with DMA engines or other
// processes.
package membarrier
