//go:build 386 && 386.softfloat

package membarrier

// GO386=softfloat targets CPUs without SSE2, which lack MFENCE, LFENCE
// and SFENCE. Build with GO386=sse2.
var _ = UnsupportedArchitecture_GO386_softfloat_has_no_fence_instructions
