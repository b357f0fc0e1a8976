//go:build !(amd64 || 386 || arm64 || riscv64 || ppc64 || ppc64le || mips || mipsle || mips64 || mips64le)

package membarrier

// No fence table for this GOARCH; the build stops on the undefined name
// below. Add the architecture to internal/isa and run "go generate".
var _ = UnsupportedArchitecture_no_fence_table_for_this_GOARCH
