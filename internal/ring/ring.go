// Package ring implements a single-producer single-consumer descriptor
// ring in shared memory, the layout DMA engines and io_uring use.
//
// The ring lives outside the Go heap, so its indices and descriptors
// are accessed with plain loads and stores. Ordering comes from
// membarrier Dma barriers, exactly as a driver would order descriptor
// handoff with a device:
//
//	producer: write desc; Barrier(Dma, Store); tail++
//	consumer: read tail; Barrier(Dma, Load); read desc; Barrier(Dma, General); head++
package ring

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/sys/cpu"

	membarrier "github.com/ehrlich-b/go-membarrier"
)

var (
	ErrRingFull  = errors.New("ring: full")
	ErrRingEmpty = errors.New("ring: empty")
	ErrClosed    = errors.New("ring: closed")
)

// Desc is one ring entry. The layout is fixed at 32 bytes.
type Desc struct {
	Addr  uint64 // buffer address or payload
	Len   uint32 // buffer length
	Flags uint32
	Seq   uint64 // producer sequence number
	_     uint64
}

const descSize = int(unsafe.Sizeof(Desc{}))

const cacheLine = unsafe.Sizeof(cpu.CacheLinePad{})

// header holds the indices, each on its own cache line so producer and
// consumer never write the same line.
type header struct {
	tail uint32 // written by the producer only
	_    [cacheLine - 4]byte
	head uint32 // written by the consumer only
	_    [cacheLine - 4]byte
}

const headerSize = int(unsafe.Sizeof(header{}))

// Ring is a descriptor ring over a shared mapping. One goroutine may
// publish and one other goroutine may consume concurrently.
type Ring struct {
	mem     []byte
	hdr     *header
	descs   []Desc
	entries uint32
	mask    uint32
}

// Size returns the number of bytes a ring of n entries occupies.
func Size(entries int) int {
	return headerSize + entries*descSize
}

// New maps a ring of the given number of entries, which must be a
// power of two.
func New(entries int) (*Ring, error) {
	if entries <= 0 || entries > 1<<16 || bits.OnesCount(uint(entries)) != 1 {
		return nil, fmt.Errorf("ring: entries must be a power of two in [1, 65536], got %d", entries)
	}

	mem, err := mapShared(Size(entries))
	if err != nil {
		return nil, fmt.Errorf("ring: map %d bytes: %w", Size(entries), err)
	}
	return attach(mem, entries), nil
}

func attach(mem []byte, entries int) *Ring {
	base := unsafe.Pointer(&mem[0])
	return &Ring{
		mem:     mem,
		hdr:     (*header)(base),
		descs:   unsafe.Slice((*Desc)(unsafe.Add(base, headerSize)), entries),
		entries: uint32(entries),
		mask:    uint32(entries - 1),
	}
}

// Close unmaps the ring. It must not be used afterwards.
func (r *Ring) Close() error {
	if r.mem == nil {
		return ErrClosed
	}
	mem := r.mem
	r.mem, r.hdr, r.descs = nil, nil, nil
	return unmapShared(mem)
}

// Entries returns the capacity of the ring.
func (r *Ring) Entries() int { return int(r.entries) }

// Len returns the number of published, unconsumed entries as seen by
// the caller. It is exact only on the producer or consumer goroutine.
func (r *Ring) Len() int {
	if r.mem == nil {
		return 0
	}
	tail := r.hdr.tail
	head := r.hdr.head
	return int(tail - head)
}

// Publish appends d. It fails with ErrRingFull when the consumer has not
// released enough entries.
func (r *Ring) Publish(d Desc) error {
	if r.mem == nil {
		return ErrClosed
	}
	tail := r.hdr.tail
	head := r.hdr.head
	if tail-head >= r.entries {
		return ErrRingFull
	}
	// Order the head load before the slot stores. Load-to-store needs
	// General.
	membarrier.Barrier(membarrier.Dma, membarrier.General)

	r.descs[tail&r.mask] = d
	membarrier.Barrier(membarrier.Dma, membarrier.Store)
	r.hdr.tail = tail + 1
	return nil
}

// Consume removes the oldest entry. It fails with ErrRingEmpty when
// nothing has been published.
func (r *Ring) Consume() (Desc, error) {
	if r.mem == nil {
		return Desc{}, ErrClosed
	}
	head := r.hdr.head
	tail := r.hdr.tail
	if head == tail {
		return Desc{}, ErrRingEmpty
	}
	membarrier.Barrier(membarrier.Dma, membarrier.Load)

	d := r.descs[head&r.mask]
	// Finish reading the slot before handing it back.
	membarrier.Barrier(membarrier.Dma, membarrier.General)
	r.hdr.head = head + 1
	return d, nil
}

// Bytes exposes the shared mapping, e.g. for handing to another process.
func (r *Ring) Bytes() []byte { return r.mem }

// Map returns size bytes of zeroed shared memory outside the Go heap,
// for callers that lay out their own shared structures.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ring: invalid map size %d", size)
	}
	return mapShared(size)
}

// Unmap releases memory returned by Map.
func Unmap(mem []byte) error {
	return unmapShared(mem)
}

// CacheLine is the cache-line size the ring pads its indices to.
const CacheLine = int(cacheLine)
