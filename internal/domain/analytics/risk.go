package analytics

import "ppetrack/internal/core/id"

// Risk tiers.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// RiskFlags is the boolean flag set evaluated per material.
type RiskFlags struct {
	BelowMinimum      bool `json:"belowMinimum"`
	HighVolume        bool `json:"highVolume"`
	ExtremeVolume     bool `json:"extremeVolume"`
	HighTurnover      bool `json:"highTurnover"`
	CriticalCategory  bool `json:"criticalCategory"`
	ShelfLifePressure bool `json:"shelfLifePressure"`
}

// RiskWeights maps each flag to its score contribution.
type RiskWeights struct {
	BelowMinimum      int `json:"belowMinimum"`
	HighVolume        int `json:"highVolume"`
	ExtremeVolume     int `json:"extremeVolume"`
	HighTurnover      int `json:"highTurnover"`
	CriticalCategory  int `json:"criticalCategory"`
	ShelfLifePressure int `json:"shelfLifePressure"`
}

// DefaultRiskWeights returns the standard weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		BelowMinimum:      2,
		HighVolume:        2,
		ExtremeVolume:     1,
		HighTurnover:      1,
		CriticalCategory:  1,
		ShelfLifePressure: 2,
	}
}

// Score sums the weights of the active flags.
func (w RiskWeights) Score(f RiskFlags) int {
	score := 0
	if f.BelowMinimum {
		score += w.BelowMinimum
	}
	if f.HighVolume {
		score += w.HighVolume
	}
	if f.ExtremeVolume {
		score += w.ExtremeVolume
	}
	if f.HighTurnover {
		score += w.HighTurnover
	}
	if f.CriticalCategory {
		score += w.CriticalCategory
	}
	if f.ShelfLifePressure {
		score += w.ShelfLifePressure
	}
	return score
}

// RiskRecord is the derived risk assessment for one material.
type RiskRecord struct {
	MaterialID id.ID     `json:"materialId"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Flags      RiskFlags `json:"flags"`
	Score      int       `json:"score"`
	Tier       string    `json:"tier"`
}

// ScoreRisks evaluates flags, weighted scores and tiers for every material
// with movement inside the period.
//
// Volume thresholds (p80/p90) come from the distribution of period
// quantities; the turnover threshold from the per-day distribution. Each
// threshold only fires when positive, so a degenerate distribution never
// flags everything.
func ScoreRisks(items []StockBalanceItem, daysInPeriod int, cfg RiskConfig) []RiskRecord {
	if daysInPeriod < 1 {
		daysInPeriod = 1
	}

	scored := make([]*StockBalanceItem, 0, len(items))
	quantities := make([]float64, 0, len(items))
	dailies := make([]float64, 0, len(items))
	for i := range items {
		it := &items[i]
		if it.PeriodEntries == 0 && it.PeriodExits == 0 {
			continue
		}
		scored = append(scored, it)
		quantities = append(quantities, it.PeriodQuantity())
		dailies = append(dailies, it.PeriodQuantity()/float64(daysInPeriod))
	}

	p80 := Percentile(quantities, 0.80)
	p90 := Percentile(quantities, 0.90)
	p80Daily := Percentile(dailies, 0.80)

	records := make([]RiskRecord, 0, len(scored))
	for _, it := range scored {
		qty := it.PeriodQuantity()
		daily := qty / float64(daysInPeriod)

		flags := RiskFlags{
			BelowMinimum:     it.Balance < it.MinimumStock,
			HighVolume:       p80 > 0 && qty >= p80,
			ExtremeVolume:    p90 > 0 && qty >= p90,
			HighTurnover:     p80Daily > 0 && daily >= p80Daily,
			CriticalCategory: cfg.IsCritical(it),
		}

		// Quantity implied by the shelf life at the current consumption
		// rate; when it exceeds the balance the stock may expire unconsumed.
		if it.ShelfLifeDays > 0 && qty > 0 {
			implied := qty * float64(it.ShelfLifeDays) / float64(daysInPeriod)
			flags.ShelfLifePressure = implied > it.Balance
		}

		tier := TierC
		switch {
		case flags.BelowMinimum && flags.HighTurnover:
			tier = TierA
		case flags.BelowMinimum:
			tier = TierB
		}

		records = append(records, RiskRecord{
			MaterialID: it.MaterialID,
			Name:       it.Name,
			Category:   it.Category,
			Flags:      flags,
			Score:      cfg.Weights.Score(flags),
			Tier:       tier,
		})
	}

	return records
}
