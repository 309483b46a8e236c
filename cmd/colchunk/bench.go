package main

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/colchunk/reader"
)

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench LOCATION...",
		Short: "Compare a read-once session with a chunked session",
		Long: `Reads the table once with unbounded budgets and once chunked, with an output limit of
encoded size / --chunks and an input limit of --input-factor times the output limit.
The configured budget is ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			chunks, err := c.Flags().GetInt64("chunks")
			if err != nil {
				return fmt.Errorf("failed to get chunks flag: %w", err)
			}
			factor, err := c.Flags().GetInt64("input-factor")
			if err != nil {
				return fmt.Errorf("failed to get input-factor flag: %w", err)
			}
			iterations, err := c.Flags().GetInt("iterations")
			if err != nil {
				return fmt.Errorf("failed to get iterations flag: %w", err)
			}
			if chunks < 1 || factor < 1 || iterations < 1 {
				return errors.New("chunks, input-factor and iterations must be positive")
			}

			return a.runBench(c, args, chunks, factor, iterations)
		},
	}

	cmd.Flags().Int64("chunks", 10, "Approximate number of chunks of the chunked session")
	cmd.Flags().Int64("input-factor", 10, "Input limit as a multiple of the output limit")
	cmd.Flags().Int("iterations", 3, "Sessions per mode")

	return cmd
}

type benchResult struct {
	rows        int64
	chunks      int
	fingerprint uint64
	elapsed     time.Duration
	stats       reader.ReaderStats
}

func (a *app) runBench(c *cobra.Command, locations []string, approxChunks, factor int64, iterations int) error {
	probe, err := a.open(c.Context(), locations)
	if err != nil {
		return err
	}
	encoded := probe.Stats().EncodedSize
	_ = probe.Close()

	output := max(encoded/approxChunks, 1)
	modes := []struct {
		name   string
		budget reader.Option
	}{
		{"read-once", reader.WithBudget(0, 0)},
		{"chunked", reader.WithBudget(output, factor*output)},
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "encoded=%s output_limit=%s input_limit=%s\n",
		humanize.IBytes(uint64(encoded)), humanize.IBytes(uint64(output)), humanize.IBytes(uint64(factor*output))) //nolint: gosec

	var fingerprints []uint64
	for _, m := range modes {
		var best benchResult
		for i := range iterations {
			res, err := a.benchOnce(c, locations, m.budget)
			if err != nil {
				return fmt.Errorf("%s: %w", m.name, err)
			}
			if i == 0 || res.elapsed < best.elapsed {
				best = res
			}
		}
		fingerprints = append(fingerprints, best.fingerprint)

		throughput := float64(encoded) / best.elapsed.Seconds()
		fmt.Fprintf(out, "%-9s rows=%d chunks=%d time=%s throughput=%s/s peak_device=%s peak_host=%s overruns=%d\n",
			m.name, best.rows, best.chunks, best.elapsed.Round(time.Microsecond), humanize.IBytes(uint64(throughput)),
			humanize.IBytes(uint64(best.stats.PeakDeviceBytes)), humanize.IBytes(uint64(best.stats.PeakHostBytes)), //nolint: gosec
			best.stats.BudgetOverruns)
	}

	if fingerprints[0] != fingerprints[1] {
		return fmt.Errorf("chunked read differs from read-once: %016x != %016x", fingerprints[1], fingerprints[0])
	}

	return nil
}

func (a *app) benchOnce(c *cobra.Command, locations []string, budget reader.Option) (benchResult, error) {
	ctx := c.Context()
	runtime.GC()

	start := time.Now()
	r, err := a.open(ctx, locations, budget)
	if err != nil {
		return benchResult{}, err
	}
	defer func() { _ = r.Close() }()

	fp := newFingerprint()
	var res benchResult
	for r.HasNext() {
		chunk, err := r.ReadChunk(ctx)
		if err != nil {
			return benchResult{}, err
		}
		fp.add(chunk.Record)
		res.rows += chunk.NumRows
		res.chunks++
		chunk.Release()
	}
	res.elapsed = time.Since(start)
	res.fingerprint = fp.sum()
	res.stats = r.Stats()

	return res, nil
}
