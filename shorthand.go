package membarrier

// Linux-style shorthands. Each calls the leaf function for its pair
// directly, without going through the Barrier switch.

// Mb is Barrier(Mmio, General).
func Mb() { mmioGeneral() }

// Rmb is Barrier(Mmio, Load).
func Rmb() { mmioLoad() }

// Wmb is Barrier(Mmio, Store).
func Wmb() { mmioStore() }

// SmpMb is Barrier(Memory, General).
func SmpMb() { memoryGeneral() }

// SmpRmb is Barrier(Memory, Load).
func SmpRmb() { memoryLoad() }

// SmpWmb is Barrier(Memory, Store).
func SmpWmb() { memoryStore() }

// DmaMb is Barrier(Dma, General).
func DmaMb() { dmaGeneral() }

// DmaRmb is Barrier(Dma, Load).
func DmaRmb() { dmaLoad() }

// DmaWmb is Barrier(Dma, Store).
func DmaWmb() { dmaStore() }

// CompilerBarrier is Barrier(Compiler, General).
func CompilerBarrier() { compilerBarrier() }
