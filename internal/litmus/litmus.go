package litmus

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/ring"
)

// Result summarizes one litmus run
type Result struct {
	Test        string
	Kind        membarrier.Kind
	Instruction string // store-side instruction on this build
	Iterations  uint64
	Violations  uint64
	Duration    time.Duration
}

// Passed reports whether no ordering violation was observed
func (r *Result) Passed() bool { return r.Violations == 0 }

// ErrViolation is returned by Check when a run observed reordering
var ErrViolation = errors.New("litmus: ordering violation observed")

// Check returns ErrViolation for a failed result
func (r *Result) Check() error {
	if r.Passed() {
		return nil
	}
	return fmt.Errorf("%w: %s/%s: %d of %d rounds", ErrViolation, r.Test, r.Kind, r.Violations, r.Iterations)
}

// spinYield is how many spins a waiter makes between scheduler yields
// and context checks.
const spinYield = 1 << 10

// pause yields and checks ctx every spinYield calls.
func pause(ctx context.Context, n int) error {
	if n%spinYield != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// mpCells is the message-passing layout: data and flag written by the
// writer, ack written by the reader, each on its own cache line.
type mpCells struct {
	data *uint64
	flag *uint64
	ack  *uint64
}

func newMPCells(mem []byte) mpCells {
	base := unsafe.Pointer(&mem[0])
	return mpCells{
		data: (*uint64)(base),
		flag: (*uint64)(unsafe.Add(base, ring.CacheLine)),
		ack:  (*uint64)(unsafe.Add(base, 2*ring.CacheLine)),
	}
}

// Run executes the message-passing litmus test with cfg.Kind barriers.
//
// The writer stores data, issues a Store barrier and stores the flag.
// The reader waits for the flag, issues a Load barrier and reads data.
// Seeing the new flag with old data is a violation. The reader
// acknowledges each round so the writer never races ahead.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger().WithArch(membarrier.Arch()).WithBarrier(cfg.Kind.String(), "store/load")
	m := cfg.metrics()

	mem, err := ring.Map(3 * ring.CacheLine)
	if err != nil {
		return nil, fmt.Errorf("litmus: map cells: %w", err)
	}
	defer ring.Unmap(mem)
	c := newMPCells(mem)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	kind := cfg.Kind
	n := uint64(cfg.Iterations)
	start := time.Now()
	logger.Debug("message passing started", "iterations", n)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := uint64(1); i <= n; i++ {
			if err := pause(ctx, int(i)); err != nil {
				return err
			}
			for spins := 1; *c.ack != i-1; spins++ {
				membarrier.Barrier(kind, membarrier.Load)
				if err := pause(ctx, spins); err != nil {
					return err
				}
			}
			membarrier.Barrier(kind, membarrier.General)
			*c.data = i
			membarrier.Barrier(kind, membarrier.Store)
			*c.flag = i
		}
		return nil
	})
	reader := logger.WithRun("mp", 1)
	g.Go(func() error {
		for i := uint64(1); i <= n; i++ {
			for spins := 1; *c.flag != i; spins++ {
				membarrier.Barrier(kind, membarrier.Load)
				if err := pause(ctx, spins); err != nil {
					return err
				}
			}
			membarrier.Barrier(kind, membarrier.Load)
			d := *c.data
			m.RecordIteration(d != i)
			if d != i {
				reader.Warn("stale data after flag", "round", i, "data", d)
			}
			membarrier.Barrier(kind, membarrier.General)
			*c.ack = i
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("litmus: message passing: %w", err)
	}

	m.Stop()
	snap := m.Snapshot()
	res := &Result{
		Test:        "mp",
		Kind:        kind,
		Instruction: membarrier.Instruction(kind, membarrier.Store),
		Iterations:  snap.Iterations,
		Violations:  snap.Violations,
		Duration:    time.Since(start),
	}
	logger.Info("message passing finished",
		"iterations", res.Iterations,
		"violations", res.Violations,
		"duration", res.Duration.String())
	return res, nil
}

// RunRing streams cfg.Iterations descriptors through a shared-memory
// ring. Each descriptor's payload is derived from its sequence number,
// so a payload read before the producer's store is detected.
func RunRing(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger().WithArch(membarrier.Arch()).WithBarrier(membarrier.Dma.String(), "ring")
	m := cfg.metrics()

	r, err := ring.New(cfg.RingEntries)
	if err != nil {
		return nil, fmt.Errorf("litmus: %w", err)
	}
	defer r.Close()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	n := uint64(cfg.Iterations)
	start := time.Now()
	logger.Debug("ring stream started", "iterations", n, "entries", r.Entries())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for seq, spins := uint64(1), 0; seq <= n; {
			err := r.Publish(ring.Desc{Addr: payload(seq), Len: uint32(seq), Seq: seq})
			m.RecordPublish(err == nil)
			switch {
			case err == nil:
				seq++
				if err := pause(ctx, int(seq)); err != nil {
					return err
				}
			case errors.Is(err, ring.ErrRingFull):
				spins++
				if err := pause(ctx, spins); err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
	consumer := logger.WithRun("ring", 1)
	g.Go(func() error {
		for want, spins := uint64(1), 0; want <= n; {
			d, err := r.Consume()
			m.RecordConsume(err == nil)
			switch {
			case err == nil:
				bad := d.Seq != want || d.Addr != payload(want) || d.Len != uint32(want)
				m.RecordIteration(bad)
				if bad {
					consumer.Warn("descriptor out of order", "want", want, "seq", d.Seq, "addr", d.Addr)
				}
				want++
			case errors.Is(err, ring.ErrRingEmpty):
				spins++
				if err := pause(ctx, spins); err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("litmus: ring stream: %w", err)
	}

	m.Stop()
	snap := m.Snapshot()
	res := &Result{
		Test:        "ring",
		Kind:        membarrier.Dma,
		Instruction: membarrier.Instruction(membarrier.Dma, membarrier.Store),
		Iterations:  snap.Iterations,
		Violations:  snap.Violations,
		Duration:    time.Since(start),
	}
	logger.Info("ring stream finished",
		"iterations", res.Iterations,
		"violations", res.Violations,
		"ring_full", snap.RingFull,
		"ring_empty", snap.RingEmpty,
		"duration", res.Duration.String())
	return res, nil
}

func payload(seq uint64) uint64 { return seq*0x9e3779b97f4a7c15 | 1 }
