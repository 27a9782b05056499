package analytics

import (
	"math"
	"sort"

	"ppetrack/internal/core/id"
)

// Pareto class labels.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
)

// ParetoConfig holds the cumulative-share class boundaries in percent.
type ParetoConfig struct {
	ClassAUpper float64 // default 80
	ClassBUpper float64 // default 95
}

// DefaultParetoConfig returns the standard 80/95 ABC boundaries.
func DefaultParetoConfig() ParetoConfig {
	return ParetoConfig{ClassAUpper: 80, ClassBUpper: 95}
}

// ParetoItem is one classification input: a material and a metric value
// (quantity or monetary value).
type ParetoItem struct {
	MaterialID id.ID
	Name       string
	Metric     float64
}

// ParetoEntry is one classified output row. Share and Cumulative are
// percentages of the total metric.
type ParetoEntry struct {
	MaterialID id.ID   `json:"materialId"`
	Name       string  `json:"name"`
	Metric     float64 `json:"metric"`
	Share      float64 `json:"share"`
	Cumulative float64 `json:"cumulative"`
	Class      string  `json:"class"`
}

// Percentile selects the value at rank ceil(p*n) over the non-zero values,
// p given as a fraction (0.8 for p80). Returns 0 for an empty input.
func Percentile(values []float64, p float64) float64 {
	nonZero := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) == 0 {
		return 0
	}

	sort.Float64s(nonZero)

	idx := int(math.Ceil(p*float64(len(nonZero)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(nonZero) {
		idx = len(nonZero) - 1
	}
	return nonZero[idx]
}

// ClassifyPareto merges duplicate materials, ranks items descending by
// metric and assigns shares, running cumulative shares and ABC classes.
//
// Duplicates occur because the same material may appear multiple times after
// upstream joins; their metrics are summed before ranking. An item is class A
// while the cumulative share reached before it is below the A boundary, class
// B up to the B boundary, C beyond. A zero total yields 0% shares and class C
// for every item.
func ClassifyPareto(items []ParetoItem, cfg ParetoConfig) []ParetoEntry {
	if len(items) == 0 {
		return []ParetoEntry{}
	}

	// Merge duplicates.
	merged := make(map[id.ID]*ParetoItem, len(items))
	order := make([]id.ID, 0, len(items))
	for _, it := range items {
		if existing, ok := merged[it.MaterialID]; ok {
			existing.Metric += it.Metric
			continue
		}
		cp := it
		merged[it.MaterialID] = &cp
		order = append(order, it.MaterialID)
	}

	ranked := make([]ParetoItem, 0, len(order))
	for _, mid := range order {
		ranked = append(ranked, *merged[mid])
	}

	// Descending by metric; stable tie-break on name, then identifier.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Metric != ranked[j].Metric {
			return ranked[i].Metric > ranked[j].Metric
		}
		if ranked[i].Name != ranked[j].Name {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].MaterialID.String() < ranked[j].MaterialID.String()
	})

	var total float64
	for _, it := range ranked {
		total += it.Metric
	}

	entries := make([]ParetoEntry, 0, len(ranked))
	var cumulative float64
	for _, it := range ranked {
		entry := ParetoEntry{
			MaterialID: it.MaterialID,
			Name:       it.Name,
			Metric:     it.Metric,
			Class:      ClassC,
		}

		if total > 0 {
			before := cumulative
			entry.Share = it.Metric / total * 100
			cumulative += entry.Share
			entry.Cumulative = cumulative

			switch {
			case before < cfg.ClassAUpper:
				entry.Class = ClassA
			case before < cfg.ClassBUpper:
				entry.Class = ClassB
			}
		}

		entries = append(entries, entry)
	}

	return entries
}
