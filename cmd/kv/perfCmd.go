package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rKV servers",
		Long:    "Runs a fixed set of workloads against the server and prints throughput and latency percentiles per workload.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 1
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfRate             = 0
	perfPipeline         = 16
	perfSkip             = make([]string, 0)
)

// perfWorkload is one named benchmark. setup runs once before the timed
// phase, op runs perfOps times spread across the workers.
type perfWorkload struct {
	name  string
	setup func(keys []string) error
	op    func(worker, i int, keys []string) error
}

// perfResult is the outcome of one workload
type perfResult struct {
	name     string
	skipped  bool
	errors   int64
	duration time.Duration
	timer    metrics.Timer
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "rate"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Maximum operations per second across all workers (0 is unlimited)"))
	key = "pipeline"
	perfTestCmd.Flags().Int(key, 16, util.WrapString("Number of commands per batch in the pipeline benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 1, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfOps = max(1, viper.GetInt("ops"))
	perfRate = viper.GetInt("rate")
	perfPipeline = max(1, viper.GetInt("pipeline"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Performance testing tool for rKV servers")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, util.GetClientConfig().String())
	fmt.Fprintf(out, "Threads: %d, Ops: %d, Rate: %d/s\n", perfNumThreads, perfOps, perfRate)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "starting tests...")

	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	setAll := func(keys []string) error {
		for _, k := range keys {
			if err := rpcStore.Set(k, []byte("test")); err != nil {
				return err
			}
		}
		return nil
	}
	fillZSet := func(keys []string) error {
		for i, k := range keys {
			if _, err := rpcStore.ZAdd(perfKeyPrefix+"-zset", float64(i), k); err != nil {
				return err
			}
		}
		return nil
	}

	workloads := []perfWorkload{
		{name: "set", op: func(_, i int, keys []string) error {
			return rpcStore.Set(keys[i%len(keys)], []byte("test"))
		}},
		{name: "set-large", op: func(_, i int, keys []string) error {
			return rpcStore.Set(keys[i%len(keys)], largeValue)
		}},
		{name: "get", setup: setAll, op: func(_, i int, keys []string) error {
			_, _, err := rpcStore.Get(keys[i%len(keys)])
			return err
		}},
		{name: "get-missing", op: func(_, i int, _ []string) error {
			_, _, err := rpcStore.Get(fmt.Sprintf("%s/missing-%d", perfKeyPrefix, i%100))
			return err
		}},
		{name: "del", setup: setAll, op: func(_, i int, keys []string) error {
			_, err := rpcStore.Del(keys[i%len(keys)])
			return err
		}},
		{name: "zadd", op: func(worker, i int, keys []string) error {
			_, err := rpcStore.ZAdd(perfKeyPrefix+"-zset", float64(i), keys[i%len(keys)])
			return err
		}},
		{name: "zscore", setup: fillZSet, op: func(_, i int, keys []string) error {
			_, _, err := rpcStore.ZScore(perfKeyPrefix+"-zset", keys[i%len(keys)])
			return err
		}},
		{name: "zquery", setup: fillZSet, op: func(_, i int, keys []string) error {
			_, err := rpcStore.ZQuery(perfKeyPrefix+"-zset", float64(i%len(keys)), "", 0, 10)
			return err
		}},
		{name: "mixed", setup: setAll, op: func(_, i int, keys []string) error {
			key := keys[i%len(keys)]
			var err error
			switch i % 4 {
			case 0:
				err = rpcStore.Set(key, []byte("test"))
			case 1:
				_, _, err = rpcStore.Get(key)
			case 2:
				_, err = rpcStore.Del(key)
			case 3:
				_, _, err = rpcStore.ZScore(perfKeyPrefix+"-zset", key)
			}
			return err
		}},
		{name: "pipeline", op: func(_, i int, keys []string) error {
			p := rpcStore.Pipeline()
			for j := 0; j < perfPipeline; j++ {
				p.Set(keys[(i+j)%len(keys)], []byte("test"))
			}
			_, err := p.Exec()
			return err
		}},
	}

	results := make([]perfResult, 0, len(workloads))
	for _, w := range workloads {
		result, err := runWorkload(cmd.Context(), w)
		if err != nil {
			return fmt.Errorf("(%s) %w", w.name, err)
		}
		printResult(cmd, result)
		results = append(results, result)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runWorkload runs one workload on perfNumThreads workers and records the
// latency of every operation
func runWorkload(ctx context.Context, w perfWorkload) (perfResult, error) {
	result := perfResult{name: w.name, timer: metrics.NewTimer()}
	if shouldSkip(w.name) {
		result.skipped = true
		return result, nil
	}
	defer result.timer.Stop()

	keys := getKeys(w.name)
	defer cleanup(keys)

	if w.setup != nil {
		if err := w.setup(keys); err != nil {
			return result, fmt.Errorf("setup failed: %w", err)
		}
	}

	limit := rate.Inf
	if perfRate > 0 {
		limit = rate.Limit(perfRate)
	}
	limiter := rate.NewLimiter(limit, perfNumThreads)
	errCount := metrics.NewCounter()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for worker := 0; worker < perfNumThreads; worker++ {
		worker := worker
		g.Go(func() error {
			for i := worker; i < perfOps; i += perfNumThreads {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				began := time.Now()
				if err := w.op(worker, i, keys); err != nil {
					errCount.Inc(1)
				}
				result.timer.UpdateSince(began)
			}
			return nil
		})
	}
	err := g.Wait()
	result.duration = time.Since(start)
	result.errors = errCount.Count()
	return result, err
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// getKeys creates the test keys of one workload
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// cleanup removes everything a workload may have written
func cleanup(keys []string) {
	p := rpcStore.Pipeline()
	for _, k := range keys {
		p.Del(k)
	}
	p.Del(perfKeyPrefix + "-zset")
	if _, err := p.Exec(); err != nil {
		fmt.Fprintf(os.Stderr, "error during cleanup: %v\n", err)
	}
}

func opsPerSec(r perfResult) float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.duration.Seconds()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(cmd *cobra.Command, r perfResult) {
	if r.skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14sskipped\n", r.name)
		return
	}

	snap := r.timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.99})
	fmt.Fprintf(cmd.OutOrStdout(), "%-14s%10.0f ops/sec   mean %-10s p50 %-10s p99 %-10s errors %d\n",
		r.name,
		opsPerSec(r),
		time.Duration(snap.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		r.errors,
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "OpsPerSec", "MeanNs", "P50Ns", "P99Ns", "Errors", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "Transport",
		"Threads", "Ops", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, r := range results {
		snap := r.timer.Snapshot()
		ps := snap.Percentiles([]float64{0.5, 0.99})
		row := []string{
			r.name,
			fmt.Sprintf("%.0f", opsPerSec(r)),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(r.errors, 10),
			strconv.FormatBool(r.skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			config.Transport.Transport,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfOps),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	return nil
}
