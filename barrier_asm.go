//go:build amd64 || 386 || arm64 || riscv64 || ppc64 || ppc64le || mips || mipsle || mips64 || mips64le

package membarrier

// Implemented in the generated barrier_*.s files, one leaf function per
// pair. A missing body is a link error, never a silent no-op.

func mmioGeneral()
func mmioLoad()
func mmioStore()

func memoryGeneral()
func memoryLoad()
func memoryStore()

func dmaGeneral()
func dmaLoad()
func dmaStore()

// compilerBarrier has an empty body. The call is opaque to the
// compiler, which must assume it reads and writes memory.
func compilerBarrier()
