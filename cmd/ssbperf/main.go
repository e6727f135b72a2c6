package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/internal/buildinfo"
	"github.com/sbl8/ssbctf/kernels"
	"github.com/sbl8/ssbctf/optics"
	"github.com/sbl8/ssbctf/ssb"
)

type perfOptions struct {
	test    string
	size    int
	iter    int
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts perfOptions

	cmd := &cobra.Command{
		Use:          "ssbperf",
		Short:        "SSB transfer-function performance analysis",
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.test, "test", "all", "test type: all, kernel, ctf")
	cmd.Flags().IntVar(&opts.size, "size", 32, "grid size N")
	cmd.Flags().IntVar(&opts.iter, "iter", 100, "number of iterations")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "verbose output")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts perfOptions) error {
	if opts.size < 1 || opts.iter < 1 {
		return fmt.Errorf("size and iter must be positive")
	}

	fmt.Fprintf(out, "SSB Performance Analysis Tool\n")
	fmt.Fprintf(out, "=============================\n")
	fmt.Fprintf(out, "%s\n", buildinfo.String("ssbperf"))
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "CPUs: %d\n", runtime.NumCPU())
	fmt.Fprintf(out, "Grid: %dx%d\n", opts.size, opts.size)
	fmt.Fprintf(out, "Iterations: %d\n\n", opts.iter)

	switch opts.test {
	case "all":
		runKernelTests(out, opts)
		return runCTFTests(ctx, out, opts)
	case "kernel":
		runKernelTests(out, opts)
		return nil
	case "ctf":
		return runCTFTests(ctx, out, opts)
	default:
		return fmt.Errorf("unknown test type: %s", opts.test)
	}
}

func runKernelTests(out io.Writer, opts perfOptions) {
	fmt.Fprintf(out, "Kernel Performance\n")
	fmt.Fprintf(out, "------------------\n")

	n := opts.size
	p := generateField(n)
	shifted := make([]complex128, n*n)

	start := time.Now()
	for i := 0; i < opts.iter; i++ {
		kernels.OverlapSum(p, n, i%n, (3*i)%n)
	}
	overlapTime := time.Since(start)

	start = time.Now()
	for i := 0; i < opts.iter; i++ {
		kernels.Roll(shifted, p, n, i%n, (3*i)%n)
	}
	rollTime := time.Since(start)

	elementsPerSecond := func(d time.Duration) float64 {
		return float64(n*n*opts.iter) / d.Seconds()
	}

	fmt.Fprintf(out, "OverlapSum:          %v (%.2f Melem/s)\n", overlapTime, elementsPerSecond(overlapTime)/1e6)
	fmt.Fprintf(out, "Roll:                %v (%.2f Melem/s)\n", rollTime, elementsPerSecond(rollTime)/1e6)
	if opts.verbose {
		fmt.Fprintf(out, "  roll-based overlap needs 2 rolls per shift: %.2fx extra copy work\n",
			2*float64(rollTime)/float64(overlapTime))
	}
	fmt.Fprintf(out, "\n")
}

func runCTFTests(ctx context.Context, out io.Writer, opts perfOptions) error {
	fmt.Fprintf(out, "CTF Performance\n")
	fmt.Fprintf(out, "---------------\n")

	grid := core.Grid{N: opts.size, Sampling: 0.2}
	wavelength, err := optics.ElectronWavelength(300e3)
	if err != nil {
		return err
	}
	params := optics.ProbeParams{
		Wavelength:  wavelength,
		Aberrations: optics.Aberrations{C10: -100},
		QProbe:      optics.QProbeFromSemiangle(20, wavelength),
	}
	probe, err := optics.ComplexProbe(grid, params)
	if err != nil {
		return err
	}
	q := grid.Q()
	qMax := 2 * params.QProbe

	start := time.Now()
	if _, err := ssb.CTFReference(probe, q, qMax); err != nil {
		return err
	}
	fmt.Fprintf(out, "Reference (rolled copies): %v\n", time.Since(start))

	for workers := 1; workers <= runtime.NumCPU(); workers *= 2 {
		start := time.Now()
		if _, err := ssb.CTF(ctx, probe, q, qMax, ssb.Options{Workers: workers}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Direct, %2d workers:        %v\n", workers, time.Since(start))
	}
	fmt.Fprintf(out, "\n")
	return nil
}

func generateField(n int) []complex128 {
	data := make([]complex128, n*n)
	for i := range data {
		data[i] = complex(rand.Float64()*2-1, rand.Float64()*2-1)
	}
	return data
}
