// Command membar inspects, regenerates and exercises the membarrier
// fence tables.
//
//	membar table [-arch goarch]       print the (kind, type) -> instruction table
//	membar gen [-dir .]               regenerate barrier_*.s from the tables
//	membar verify [-dir .]            check barrier_*.s against the tables
//	membar litmus [-kind k] [-ring]   run a message-passing test on this CPU
//	membar bench [-iterations n]      time every barrier on this CPU
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/gen"
	"github.com/ehrlich-b/go-membarrier/internal/isa"
	"github.com/ehrlich-b/go-membarrier/internal/litmus"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
)

const usage = `usage: membar [-v] [-log-format text|json] <command> [flags]

commands:
  table    print the fence table for one or all architectures
  gen      regenerate the per-architecture assembly
  verify   check the committed assembly against the tables
  litmus   run a message-passing litmus test on this machine
  bench    measure every barrier on this machine
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("membar", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	var (
		verbose   = fs.Bool("v", false, "Verbose output")
		logFormat = fs.String("log-format", "text", "Log format: text or json")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	format, err := logging.ParseFormat(*logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "membar: %v\n", err)
		return 2
	}

	// Set up logging
	logConfig := logging.DefaultConfig()
	logConfig.Output = stderr
	logConfig.Format = format
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	defer logger.Close()
	prev := logging.Default()
	logging.SetDefault(logger)
	defer logging.SetDefault(prev)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	logging.Debug("running command", "command", cmd, "args", rest)
	switch cmd {
	case "table":
		err = cmdTable(rest, stdout, stderr)
	case "gen":
		err = cmdGen(rest, stderr)
	case "verify":
		err = cmdVerify(rest, stdout, stderr)
	case "litmus":
		err = cmdLitmus(rest, stdout, stderr, logger)
	case "bench":
		err = cmdBench(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "membar: unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		logger.WithError(err).Error("command failed", "command", cmd)
		return 1
	}
}

var errUsage = errors.New("usage")

func subcommand(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("membar "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "%s: unexpected argument %q\n", fs.Name(), fs.Arg(0))
		return errUsage
	}
	return nil
}

func cmdTable(args []string, stdout, stderr io.Writer) error {
	fs := subcommand("table", stderr)
	goarch := fs.String("arch", "", "GOARCH to print (default: all)")
	if err := parse(fs, args); err != nil {
		return err
	}

	arches := make([]*isa.Arch, 0, len(isa.Table))
	if *goarch != "" {
		a, err := isa.ForGOARCH(*goarch)
		if err != nil {
			return err
		}
		arches = append(arches, a)
	} else {
		for i := range isa.Table {
			arches = append(arches, &isa.Table[i])
		}
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for i, a := range arches {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%s)\t%s\n", a.Name, a.BuildConstraint(), a.File)
		fmt.Fprintln(tw, "KIND\tGENERAL\tLOAD\tSTORE")
		for _, k := range isa.Kinds() {
			fmt.Fprintf(tw, "%s", k)
			for _, t := range isa.Types() {
				in, err := a.Lookup(k, t)
				if err != nil {
					return err
				}
				name := in.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(tw, "\t%s", name)
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}

func cmdGen(args []string, stderr io.Writer) error {
	fs := subcommand("gen", stderr)
	dir := fs.String("dir", ".", "Directory to write barrier_*.s into")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := isa.ValidateAll(); err != nil {
		return err
	}
	return gen.Generate(*dir)
}

func cmdVerify(args []string, stdout, stderr io.Writer) error {
	fs := subcommand("verify", stderr)
	dir := fs.String("dir", ".", "Directory holding barrier_*.s")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := gen.VerifyAll(*dir); err != nil {
		return err
	}
	logging.Info("assembly verified", "dir", *dir, "architectures", len(isa.Table))
	fmt.Fprintf(stdout, "%d architectures up to date\n", len(isa.Table))
	return nil
}

func cmdLitmus(args []string, stdout, stderr io.Writer, logger *logging.Logger) error {
	cfg := litmus.DefaultConfig()
	fs := subcommand("litmus", stderr)
	var (
		kindStr    = fs.String("kind", cfg.Kind.String(), "Barrier kind: mmio, memory, dma")
		iterations = fs.Int("iterations", cfg.Iterations, "Rounds to run")
		useRing    = fs.Bool("ring", false, "Stream descriptors through a shared ring with dma barriers")
		entries    = fs.Int("entries", cfg.RingEntries, "Ring entries (power of two)")
		timeout    = fs.Duration("timeout", cfg.Timeout, "Give up after this long")
	)
	if err := parse(fs, args); err != nil {
		return err
	}
	kind, err := isa.ParseKind(*kindStr)
	if err != nil {
		return err
	}
	cfg.Kind = kind
	cfg.Iterations = *iterations
	cfg.RingEntries = *entries
	cfg.Timeout = *timeout
	cfg.Logger = logger
	cfg.Metrics = litmus.NewMetrics()

	// Stop on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting litmus test",
		"arch", membarrier.Arch(),
		"goarch", runtime.GOARCH,
		"cpus", runtime.NumCPU(),
		"kind", cfg.Kind.String(),
		"ring", *useRing)

	var res *litmus.Result
	if *useRing {
		res, err = litmus.RunRing(ctx, cfg)
	} else {
		res, err = litmus.Run(ctx, cfg)
	}
	if err != nil {
		return err
	}

	snap := cfg.Metrics.Snapshot()
	fmt.Fprintf(stdout, "Test: %s (%s, %s)\n", res.Test, res.Kind, res.Instruction)
	fmt.Fprintf(stdout, "Rounds: %d in %s (%.0f/s)\n", res.Iterations, res.Duration.Round(time.Millisecond), snap.RoundsPerSec)
	fmt.Fprintf(stdout, "Violations: %d (%.4f%%)\n", res.Violations, snap.ViolationRate)
	if *useRing {
		fmt.Fprintf(stdout, "Ring full/empty spins: %d/%d\n", snap.RingFull, snap.RingEmpty)
	}
	return res.Check()
}

func cmdBench(args []string, stdout, stderr io.Writer) error {
	fs := subcommand("bench", stderr)
	iterations := fs.Int("iterations", 1_000_000, "Barriers per (kind, type) pair")
	if err := parse(fs, args); err != nil {
		return err
	}

	results, err := litmus.BenchAll(*iterations)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s (%s), %d iterations per pair\n", membarrier.Arch(), runtime.GOARCH, *iterations)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTYPE\tINSTRUCTION\tAVG\tP50\tP99")
	for _, r := range results {
		name := r.Instruction
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1fns\t%dns\t%dns\n", r.Kind, r.Type, name, r.AvgNs, r.P50Ns, r.P99Ns)
	}
	return tw.Flush()
}
