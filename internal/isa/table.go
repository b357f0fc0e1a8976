package isa

// x86 fences. The memory model is TSO for ordinary memory, but the
// fences also order weakly ordered accesses (WC memory, non-temporal
// stores, UC device registers), so Kind does not change the selection.
var x86Catalog = []Instruction{
	{Name: "mfence", Asm: []string{"MFENCE"}, Effect: Effect{Orders: Fence(IORW, IORW), Scope: ScopeSystem}},
	{Name: "lfence", Asm: []string{"LFENCE"}, Effect: Effect{Orders: Fence(R|I, R|I), Scope: ScopeSystem}},
	{Name: "sfence", Asm: []string{"SFENCE"}, Effect: Effect{Orders: Fence(W|O, W|O), Scope: ScopeSystem}},
}

var x86Select = [3][3]string{
	Mmio:   {General: "mfence", Load: "lfence", Store: "sfence"},
	Memory: {General: "mfence", Load: "lfence", Store: "sfence"},
	Dma:    {General: "mfence", Load: "lfence", Store: "sfence"},
}

// AArch64 option field (CRm) values for DMB and DSB.
const (
	armOSHLD = 0x1
	armOSHST = 0x2
	armOSH   = 0x3
	armISHLD = 0x9
	armISHST = 0xa
	armISH   = 0xb
	armLD    = 0xd
	armST    = 0xe
	armSY    = 0xf
)

// DMB orders accesses within a shareability domain but does not wait
// for device side effects, so only DSB satisfies Mmio.
var arm64Catalog = []Instruction{
	{Name: "dsb sy", Asm: []string{asmImm("DSB", armSY)}, Effect: Effect{Orders: Fence(IORW, IORW), Scope: ScopeSystem}},
	{Name: "dsb ld", Asm: []string{asmImm("DSB", armLD)}, Effect: Effect{Orders: Fence(R|I, IORW), Scope: ScopeSystem}},
	{Name: "dsb st", Asm: []string{asmImm("DSB", armST)}, Effect: Effect{Orders: Fence(W|O, W|O), Scope: ScopeSystem}},
	{Name: "dmb ish", Asm: []string{asmImm("DMB", armISH)}, Effect: Effect{Orders: Fence(RW, RW), Scope: ScopeInner}},
	{Name: "dmb ishld", Asm: []string{asmImm("DMB", armISHLD)}, Effect: Effect{Orders: Fence(R, RW), Scope: ScopeInner}},
	{Name: "dmb ishst", Asm: []string{asmImm("DMB", armISHST)}, Effect: Effect{Orders: Fence(W, W), Scope: ScopeInner}},
	{Name: "dmb osh", Asm: []string{asmImm("DMB", armOSH)}, Effect: Effect{Orders: Fence(RW, RW), Scope: ScopeOuter}},
	{Name: "dmb oshld", Asm: []string{asmImm("DMB", armOSHLD)}, Effect: Effect{Orders: Fence(R, RW), Scope: ScopeOuter}},
	{Name: "dmb oshst", Asm: []string{asmImm("DMB", armOSHST)}, Effect: Effect{Orders: Fence(W, W), Scope: ScopeOuter}},
}

var arm64Select = [3][3]string{
	Mmio:   {General: "dsb sy", Load: "dsb ld", Store: "dsb st"},
	Memory: {General: "dmb ish", Load: "dmb ishld", Store: "dmb ishst"},
	Dma:    {General: "dmb osh", Load: "dmb oshld", Store: "dmb oshst"},
}

// riscvFence encodes FENCE pred, succ (fm=0, rs1=rd=x0). The Go
// assembler only knows the full fence, so every variant is a WORD.
func riscvFence(pred, succ uint32) string {
	return asmWord(pred<<24 | succ<<20 | 0x0f)
}

// RISC-V fence set bits: PI/SI, PO/SO, PR/SR, PW/SW.
const (
	rvI = 0x8
	rvO = 0x4
	rvR = 0x2
	rvW = 0x1
)

// RISC-V has no shareability domains; device ordering is expressed by
// the I and O bits. Dma uses the device variants like Linux dma_*mb.
var riscv64Catalog = []Instruction{
	{Name: "fence iorw,iorw", Asm: []string{riscvFence(rvI|rvO|rvR|rvW, rvI|rvO|rvR|rvW)}, Effect: Effect{Orders: Fence(IORW, IORW), Scope: ScopeSystem}},
	{Name: "fence ir,ir", Asm: []string{riscvFence(rvI|rvR, rvI|rvR)}, Effect: Effect{Orders: Fence(R|I, R|I), Scope: ScopeSystem}},
	{Name: "fence ow,ow", Asm: []string{riscvFence(rvO|rvW, rvO|rvW)}, Effect: Effect{Orders: Fence(W|O, W|O), Scope: ScopeSystem}},
	{Name: "fence rw,rw", Asm: []string{riscvFence(rvR|rvW, rvR|rvW)}, Effect: Effect{Orders: Fence(RW, RW), Scope: ScopeSystem}},
	{Name: "fence r,r", Asm: []string{riscvFence(rvR, rvR)}, Effect: Effect{Orders: Fence(R, R), Scope: ScopeSystem}},
	{Name: "fence w,w", Asm: []string{riscvFence(rvW, rvW)}, Effect: Effect{Orders: Fence(W, W), Scope: ScopeSystem}},
}

var riscv64Select = [3][3]string{
	Mmio:   {General: "fence iorw,iorw", Load: "fence ir,ir", Store: "fence ow,ow"},
	Memory: {General: "fence rw,rw", Load: "fence r,r", Store: "fence w,w"},
	Dma:    {General: "fence iorw,iorw", Load: "fence ir,ir", Store: "fence ow,ow"},
}

// lwsync orders load-load, load-store and store-store for cacheable
// memory only. It never orders store-load and never orders
// caching-inhibited (device) accesses, so Mmio always needs sync.
var ppc64Catalog = []Instruction{
	{Name: "sync", Asm: []string{"SYNC"}, Effect: Effect{Orders: Fence(IORW, IORW), Scope: ScopeSystem}},
	{Name: "lwsync", Asm: []string{"LWSYNC"}, Effect: Effect{Orders: Fence(R, RW).Union(Fence(W, W)), Scope: ScopeSystem}},
}

var ppc64Select = [3][3]string{
	Mmio:   {General: "sync", Load: "sync", Store: "sync"},
	Memory: {General: "sync", Load: "lwsync", Store: "lwsync"},
	Dma:    {General: "sync", Load: "lwsync", Store: "lwsync"},
}

// SYNC with stype 0 is the only barrier every MIPS32/MIPS64 core
// implements; the lightweight stypes are optional.
var mipsCatalog = []Instruction{
	{Name: "sync", Asm: []string{"SYNC"}, Effect: Effect{Orders: Fence(IORW, IORW), Scope: ScopeSystem}},
}

var mipsSelect = [3][3]string{
	Mmio:   {General: "sync", Load: "sync", Store: "sync"},
	Memory: {General: "sync", Load: "sync", Store: "sync"},
	Dma:    {General: "sync", Load: "sync", Store: "sync"},
}

// Table is the fence table of every supported architecture.
var Table = []Arch{
	{
		Name:    "x86-64",
		GOARCH:  []string{"amd64"},
		File:    "barrier_amd64.s",
		Manual:  "Intel SDM Vol. 3A 9.2 / Vol. 2B MFENCE, LFENCE, SFENCE",
		Catalog: x86Catalog,
		Select:  x86Select,
	},
	{
		Name:    "x86",
		GOARCH:  []string{"386"},
		File:    "barrier_386.s",
		Manual:  "Intel SDM Vol. 3A 9.2 / Vol. 2B MFENCE, LFENCE, SFENCE",
		Catalog: x86Catalog,
		Select:  x86Select,
	},
	{
		Name:    "AArch64",
		GOARCH:  []string{"arm64"},
		File:    "barrier_arm64.s",
		Manual:  "Arm ARM DDI 0487 B2.3, C6.2 DMB and DSB",
		Catalog: arm64Catalog,
		Select:  arm64Select,
	},
	{
		Name:    "RISC-V RV64",
		GOARCH:  []string{"riscv64"},
		File:    "barrier_riscv64.s",
		Manual:  "RISC-V Unprivileged ISA 2.7 FENCE, Appendix A RVWMO",
		Catalog: riscv64Catalog,
		Select:  riscv64Select,
	},
	{
		Name:    "Power",
		GOARCH:  []string{"ppc64", "ppc64le"},
		File:    "barrier_ppc64x.s",
		Manual:  "Power ISA v3.1 Book II 4.6.3 sync, lwsync",
		Catalog: ppc64Catalog,
		Select:  ppc64Select,
	},
	{
		Name:    "MIPS32",
		GOARCH:  []string{"mips", "mipsle"},
		File:    "barrier_mipsx.s",
		Manual:  "MIPS32 Architecture Vol. II SYNC",
		Catalog: mipsCatalog,
		Select:  mipsSelect,
	},
	{
		Name:    "MIPS64",
		GOARCH:  []string{"mips64", "mips64le"},
		File:    "barrier_mips64x.s",
		Manual:  "MIPS64 Architecture Vol. II SYNC",
		Catalog: mipsCatalog,
		Select:  mipsSelect,
	},
}
