//go:build unix

package ring

import "golang.org/x/sys/unix"

// mapShared returns zeroed, page-aligned memory outside the Go heap
// that a forked child or a device driver could share.
func mapShared(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
}

func unmapShared(mem []byte) error {
	return unix.Munmap(mem)
}
