package membarrier

import (
	"go/build"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-membarrier/internal/gen"
	"github.com/ehrlich-b/go-membarrier/internal/isa"
)

func TestBarrierAllPairs(t *testing.T) {
	for _, kind := range Kinds() {
		for _, typ := range Types() {
			Barrier(kind, typ)
		}
	}

	// Out-of-range values take the strongest path.
	Barrier(Kind(99), Type(99))
	Barrier(Memory, Type(99))
}

func TestShorthands(t *testing.T) {
	for _, f := range []func(){Mb, Rmb, Wmb, SmpMb, SmpRmb, SmpWmb, DmaMb, DmaRmb, DmaWmb, CompilerBarrier} {
		f()
	}
}

func TestBarrierConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				Barrier(Kinds()[j%4], Types()[j%3])
			}
		}()
	}
	wg.Wait()
}

func TestInstructionMatchesTable(t *testing.T) {
	for _, kind := range Kinds() {
		for _, typ := range Types() {
			in, err := isa.Lookup(runtime.GOARCH, kind, typ)
			require.NoError(t, err)
			assert.Equal(t, in.Name, Instruction(kind, typ), "%s/%s", kind, typ)
		}
	}
	assert.Empty(t, Instruction(Compiler, General))
	assert.Equal(t, Instruction(Mmio, General), Instruction(Kind(77), Type(77)))
	assert.NotEmpty(t, Arch())
	assert.Contains(t, Supported(), runtime.GOARCH)
}

func TestInstructionPerArch(t *testing.T) {
	tests := []struct {
		goarch string
		kind   Kind
		typ    Type
		want   string
	}{
		{"amd64", Memory, General, "mfence"},
		{"amd64", Memory, Load, "lfence"},
		{"amd64", Mmio, Store, "sfence"},
		{"386", Dma, Load, "lfence"},
		{"arm64", Mmio, General, "dsb sy"},
		{"arm64", Memory, General, "dmb ish"},
		{"arm64", Dma, Store, "dmb oshst"},
		{"riscv64", Mmio, Load, "fence ir,ir"},
		{"riscv64", Smp, Store, "fence w,w"},
		{"ppc64le", Memory, LoadLoad, "lwsync"},
		{"ppc64", Mmio, StoreStore, "sync"},
		{"mipsle", Memory, Load, "sync"},
		{"mips64", Memory, General, "sync"},
		{"arm64", Compiler, Store, ""},
	}
	for _, tt := range tests {
		t.Run(tt.goarch+"/"+tt.kind.String()+"/"+tt.typ.String(), func(t *testing.T) {
			got, err := Lookup(tt.goarch, tt.kind, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Lookup("wasm", Memory, General)
	require.ErrorIs(t, err, ErrUnsupportedArchitecture)
	assert.True(t, IsCode(err, ErrCodeUnsupportedArchitecture))
}

func TestGeneratedAssemblyUpToDate(t *testing.T) {
	require.NoError(t, gen.VerifyAll("."))
}

func TestBuildFileSelection(t *testing.T) {
	for i := range isa.Table {
		a := &isa.Table[i]
		for _, goarch := range a.GOARCH {
			t.Run(goarch, func(t *testing.T) {
				pkg := importFor(t, goarch)
				assert.Contains(t, pkg.GoFiles, "barrier_asm.go")
				assert.NotContains(t, pkg.GoFiles, "unsupported.go")
				assert.Equal(t, []string{a.File}, pkg.SFiles)
			})
		}
	}
}

func TestBuildRejectsUnsupportedArchitecture(t *testing.T) {
	for _, goarch := range []string{"arm", "wasm", "s390x", "loong64"} {
		require.False(t, slices.Contains(Supported(), goarch))
		t.Run(goarch, func(t *testing.T) {
			pkg := importFor(t, goarch)
			assert.Contains(t, pkg.GoFiles, "unsupported.go")
			assert.NotContains(t, pkg.GoFiles, "barrier_asm.go")
			assert.Empty(t, pkg.SFiles)
		})
	}

	// The only thing unsupported.go contributes is an undefined name, so
	// the compiler diagnostic carries it.
	src, err := os.ReadFile("unsupported.go")
	require.NoError(t, err)
	assert.Contains(t, string(src), "var _ = UnsupportedArchitecture")
}

func TestBuildRejects386Softfloat(t *testing.T) {
	sse2 := importFor(t, "386", "386.sse2")
	assert.NotContains(t, sse2.GoFiles, "softfloat_386.go")
	assert.Equal(t, []string{"barrier_386.s"}, sse2.SFiles)

	soft := importFor(t, "386", "386.softfloat")
	assert.Contains(t, soft.GoFiles, "softfloat_386.go")

	src, err := os.ReadFile("softfloat_386.go")
	require.NoError(t, err)
	assert.Contains(t, string(src), "var _ = UnsupportedArchitecture")
}

func importFor(t *testing.T, goarch string, toolTags ...string) *build.Package {
	t.Helper()
	ctx := build.Default
	ctx.GOOS = "linux"
	ctx.GOARCH = goarch
	ctx.CgoEnabled = false
	ctx.ToolTags = toolTags
	pkg, err := ctx.ImportDir(".", 0)
	require.NoError(t, err)
	require.Equal(t, "membarrier", pkg.Name)
	return pkg
}

func TestAsmDeclarationsMatchGenerator(t *testing.T) {
	src, err := os.ReadFile("barrier_asm.go")
	require.NoError(t, err)
	a, err := isa.ForGOARCH("arm64")
	require.NoError(t, err)
	funcs, err := gen.Funcs(a)
	require.NoError(t, err)
	for _, f := range funcs {
		assert.True(t, strings.Contains(string(src), "func "+f.Name+"()"), f.Name)
	}

	// Both constraint lines list exactly the supported GOARCH values.
	want := strings.Join(Supported(), " || ")
	assert.Contains(t, string(src), "//go:build "+want)
	unsupported, err := os.ReadFile("unsupported.go")
	require.NoError(t, err)
	assert.Contains(t, string(unsupported), "//go:build !("+want+")")
}

func BenchmarkBarrier(b *testing.B) {
	for _, kind := range Kinds() {
		for _, typ := range Types() {
			b.Run(kind.String()+"/"+typ.String(), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					Barrier(kind, typ)
				}
			})
		}
	}
}
