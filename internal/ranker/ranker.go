// Package ranker orders validated candidates and builds the cross-provider
// comparison attached to a strategy response.
package ranker

import (
	"fmt"
	"sort"

	"github.com/tradeforge/stratgen/internal/model"
)

// Ranker converts validated candidates into a deterministic ordering.
type Ranker struct{}

// New creates a Ranker.
func New() *Ranker {
	return &Ranker{}
}

// Rank selects the best candidate and builds the comparison. Only results
// that neither errored nor failed hard validation are rankable. The primary
// key is provider confidence, ties break on lower execution time, and the
// sort is stable so fixed inputs always produce the same ranking.
//
// Returns the index of the best result in results, or -1 when nothing is
// eligible.
func (r *Ranker) Rank(results []model.ModelResult) (int, *model.Comparison) {
	eligible := make([]int, 0, len(results))
	for i := range results {
		if results[i].Eligible() {
			eligible = append(eligible, i)
		}
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		ra, rb := &results[eligible[a]], &results[eligible[b]]
		if ra.Confidence != rb.Confidence {
			return ra.Confidence > rb.Confidence
		}
		return ra.ExecutionTime < rb.ExecutionTime
	})

	cmp := &model.Comparison{
		Metrics: make(map[string]map[string]float64),
		Ranking: make([]string, 0, len(eligible)),
	}

	for _, i := range eligible {
		cmp.Ranking = append(cmp.Ranking, results[i].Provider)
	}

	if len(eligible) == 0 {
		cmp.Summary = "no provider produced a usable candidate"
		return -1, cmp
	}

	best := eligible[0]
	cmp.BestProvider = results[best].Provider

	confRow := make(map[string]float64, len(eligible))
	timeRow := make(map[string]float64, len(eligible))
	for _, i := range eligible {
		confRow[results[i].Provider] = results[i].Confidence
		timeRow[results[i].Provider] = results[i].ExecutionTime
	}
	cmp.Metrics["confidence"] = confRow
	cmp.Metrics["execution_time"] = timeRow

	// Risk metrics: include any metric reported by at least one eligible
	// provider. Missing values stay missing; zero-filling would pass off an
	// unreported metric as a measured zero.
	for _, i := range eligible {
		for name, value := range results[i].RiskMetrics {
			row, ok := cmp.Metrics[name]
			if !ok {
				row = make(map[string]float64)
				cmp.Metrics[name] = row
			}
			row[results[i].Provider] = value
		}
	}

	cmp.Summary = fmt.Sprintf("%s ranked first with confidence %.2f (%d of %d candidates eligible)",
		cmp.BestProvider, results[best].Confidence, len(eligible), len(results))

	return best, cmp
}
