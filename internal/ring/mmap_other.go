//go:build !unix

package ring

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Without mmap the ring lives on the Go heap, aligned to a cache line.
func mapShared(size int) ([]byte, error) {
	const align = int(unsafe.Sizeof(cpu.CacheLinePad{}))
	buf := make([]byte, size+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) % uintptr(align)); rem != 0 {
		off = align - rem
	}
	return buf[off : off+size : off+size], nil
}

func unmapShared([]byte) error { return nil }
