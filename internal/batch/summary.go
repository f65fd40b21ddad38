package batch

import (
	"sort"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Summary aggregates per-file stats across a batch run (original_source/'s
// dropped cross-file evaluation-script step, see SPEC_FULL.md §11).
type Summary struct {
	Files        int     `yaml:"files"`
	Failed       int     `yaml:"failed"`
	MeanFCT      float64 `yaml:"mean_fct"`
	MeanLatency  float64 `yaml:"mean_latency"`
	P50Latency   float64 `yaml:"p50_latency"`
	P90Latency   float64 `yaml:"p90_latency"`
	P99Latency   float64 `yaml:"p99_latency"`
	TotalLost    int     `yaml:"total_lost"`
	TotalRecov   int     `yaml:"total_recovered"`
	TotalRetrans int     `yaml:"total_retransmitted"`
}

// Summarize computes aggregate statistics across a batch's Results. Entries
// with a non-nil Err are counted as failures and excluded from the
// latency/FCT distributions.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	var fcts, avgLatencies []float64

	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		fcts = append(fcts, r.Stats.FCT())
		avgLatencies = append(avgLatencies, r.Stats.AvgLatency())
		s.TotalLost += r.Stats.LostReal
		s.TotalRecov += r.Stats.RecoveredReal
		s.TotalRetrans += r.Stats.RetransmittedReal
	}

	if len(fcts) == 0 {
		return s
	}
	s.MeanFCT = stat.Mean(fcts, nil)
	s.MeanLatency = stat.Mean(avgLatencies, nil)

	sorted := append([]float64(nil), avgLatencies...)
	sort.Float64s(sorted)
	s.P50Latency = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90Latency = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	s.P99Latency = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return s
}

// WriteYAML renders the summary as YAML bytes for the batch output directory.
func (s Summary) WriteYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
