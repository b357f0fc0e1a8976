package isa

import "strings"

// Access is a set of memory access classes a fence can order.
type Access uint8

const (
	R Access = 1 << iota // loads from memory
	W                    // stores to memory
	I                    // device input (loads from device memory)
	O                    // device output (stores to device memory)

	RW   = R | W
	IORW = I | O | R | W
)

const numAccess = 4

// String renders the set in RISC-V fence order, e.g. "iorw" or "r".
func (a Access) String() string {
	var b strings.Builder
	for _, c := range []struct {
		bit Access
		ch  byte
	}{{I, 'i'}, {O, 'o'}, {R, 'r'}, {W, 'w'}} {
		if a&c.bit != 0 {
			b.WriteByte(c.ch)
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// Ordering is a set of (earlier, later) access-class pairs. Bit
// earlier*4+later is set when every access of class earlier before the
// fence is ordered before every access of class later after it.
type Ordering uint16

// Fence returns the ordering a fence with the given predecessor and
// successor sets provides: the full cross product pred x succ.
func Fence(pred, succ Access) Ordering {
	var o Ordering
	for a := 0; a < numAccess; a++ {
		if pred&(1<<a) == 0 {
			continue
		}
		for b := 0; b < numAccess; b++ {
			if succ&(1<<b) != 0 {
				o |= 1 << (a*numAccess + b)
			}
		}
	}
	return o
}

// Union returns the pairs ordered by either o or p.
func (o Ordering) Union(p Ordering) Ordering { return o | p }

// Contains reports whether o orders every pair p orders.
func (o Ordering) Contains(p Ordering) bool { return o&p == p }

// Orders reports whether every earlier access in before is ordered
// before every later access in after.
func (o Ordering) Orders(before, after Access) bool {
	return o.Contains(Fence(before, after))
}

// Scope is the set of observers an ordering is guaranteed for.
type Scope uint8

const (
	ScopeNone   Scope = iota // no observer outside the compiler
	ScopeInner               // other CPUs (inner shareable domain)
	ScopeOuter               // other CPUs and coherent DMA masters
	ScopeSystem              // the whole system, including devices
)

func (s Scope) String() string {
	switch s {
	case ScopeInner:
		return "inner"
	case ScopeOuter:
		return "outer"
	case ScopeSystem:
		return "system"
	default:
		return "none"
	}
}

// Effect is the ordering guarantee of an instruction, or the guarantee
// a barrier request needs.
type Effect struct {
	Orders Ordering
	Scope  Scope
}

// Covers reports whether e is at least as strong as o.
func (e Effect) Covers(o Effect) bool {
	return e.Orders.Contains(o.Orders) && e.Scope >= o.Scope
}

// StrictlyWeaker reports whether e is covered by o and differs from it.
func (e Effect) StrictlyWeaker(o Effect) bool {
	return o.Covers(e) && e != o
}

// Requirement returns the effect a (kind, typ) barrier must provide.
// Compiler barriers require nothing of the CPU.
func Requirement(kind Kind, typ Type) Effect {
	kind, typ = Normalize(kind, typ)
	if kind == Compiler {
		return Effect{}
	}

	var load, store, all Access = R, W, RW
	scope := ScopeInner
	switch kind {
	case Dma:
		scope = ScopeOuter
	case Mmio:
		load, store, all = R|I, W|O, IORW
		scope = ScopeSystem
	}

	switch typ {
	case Load:
		return Effect{Orders: Fence(load, load), Scope: scope}
	case Store:
		return Effect{Orders: Fence(store, store), Scope: scope}
	default:
		return Effect{Orders: Fence(all, all), Scope: scope}
	}
}

// Normalize maps out-of-range values to the strongest valid ones: an
// unknown Type becomes General and an unknown Kind becomes Mmio.
func Normalize(kind Kind, typ Type) (Kind, Type) {
	if !kind.Valid() {
		kind = Mmio
	}
	if !typ.Valid() {
		typ = General
	}
	return kind, typ
}
