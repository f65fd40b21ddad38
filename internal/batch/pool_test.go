package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tracefec/tracefec/sim"
	"github.com/tracefec/tracefec/sim/trace"
)

func writeTrace(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := ""
	for _, l := range lines {
		body += l + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// GIVEN several independent trace files and Strategy A (no recovery)
// WHEN Pool.Run fans them out
// THEN every file produces annotated and received output and a Stats entry
func TestPool_Run_ProducesOutputPerFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}

	p1 := writeTrace(t, dir, "a.trace", []string{"0.0\t100", "0.1\t-100", "0.2\t100"})
	p2 := writeTrace(t, dir, "b.trace", []string{"0.0\t50", "0.1\t-50"})

	cfg := sim.DefaultConfig(trace.StrategyA)
	cfg.Seed = 1

	pool := &Pool{Concurrency: 2}
	results := pool.Run([]string{p1, p2}, cfg, out)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: unexpected error: %v", i, r.Err)
		}
		if r.TracePath == "" {
			t.Fatalf("result %d: missing trace path", i)
		}
	}
	if results[0].TracePath != p1 || results[1].TracePath != p2 {
		t.Fatalf("results out of order: %+v", results)
	}

	if _, err := os.Stat(filepath.Join(out, "a.annotated.trace")); err != nil {
		t.Fatalf("missing annotated output for a: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "a.received.trace")); err != nil {
		t.Fatalf("missing received output for a: %v", err)
	}
}

// GIVEN one unreadable trace path mixed with a valid one
// WHEN Pool.Run fans them out
// THEN the bad path reports an error while the good path still succeeds
func TestPool_Run_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	good := writeTrace(t, dir, "good.trace", []string{"0.0\t10", "0.1\t-10"})
	bad := filepath.Join(dir, "missing.trace")

	cfg := sim.DefaultConfig(trace.StrategyA)
	pool := &Pool{Concurrency: 4}
	results := pool.Run([]string{good, bad}, cfg, out)

	if results[0].Err != nil {
		t.Fatalf("expected good trace to succeed, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("expected missing trace to report an error")
	}
}

// GIVEN a mix of successful and failed results
// WHEN Summarize aggregates them
// THEN failures are counted separately and excluded from the distributions
func TestSummarize_ExcludesFailures(t *testing.T) {
	s1 := sim.Stats{}
	s1.RecordRealDelivery(1.0, 0.5)
	s2 := sim.Stats{}
	s2.RecordRealDelivery(2.0, 1.0)

	results := []Result{
		{TracePath: "a", Stats: s1},
		{TracePath: "b", Stats: s2},
		{TracePath: "c", Err: os.ErrNotExist},
	}

	summary := Summarize(results)
	if summary.Files != 3 {
		t.Fatalf("expected 3 files, got %d", summary.Files)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", summary.Failed)
	}
	if summary.MeanFCT <= 0 {
		t.Fatalf("expected positive mean FCT, got %v", summary.MeanFCT)
	}
}
