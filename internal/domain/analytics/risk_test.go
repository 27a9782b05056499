package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppetrack/internal/core/id"
)

func balanceItem(name, category string, balance, min, periodExits float64, shelfLife int) StockBalanceItem {
	return StockBalanceItem{
		MaterialID:    id.New(),
		Name:          name,
		Category:      category,
		UnitValue:     decimal.NewFromInt(1),
		MinimumStock:  min,
		ShelfLifeDays: shelfLife,
		Balance:       balance,
		PeriodExits:   periodExits,
		HasMovement:   true,
	}
}

func TestScoreRisks_NoMovementExcluded(t *testing.T) {
	idle := balanceItem("Idle", "EPI", 10, 0, 0, 0)
	moved := balanceItem("Moved", "EPI", 10, 0, 5, 0)

	records := ScoreRisks([]StockBalanceItem{idle, moved}, 30, DefaultRiskConfig())
	require.Len(t, records, 1)
	assert.Equal(t, "Moved", records[0].Name)
}

func TestScoreRisks_WeightsSum(t *testing.T) {
	// Single material: p80 = p90 = its own quantity, so the volume and
	// turnover flags all fire. Balance below minimum and a shelf life that
	// cannot absorb the consumption rate complete the set.
	it := balanceItem("Luva nitrilica", "EPI", 5, 50, 100, 60)

	records := ScoreRisks([]StockBalanceItem{it}, 30, DefaultRiskConfig())
	require.Len(t, records, 1)

	r := records[0]
	assert.True(t, r.Flags.BelowMinimum)
	assert.True(t, r.Flags.HighVolume)
	assert.True(t, r.Flags.ExtremeVolume)
	assert.True(t, r.Flags.HighTurnover)
	assert.True(t, r.Flags.CriticalCategory)
	assert.True(t, r.Flags.ShelfLifePressure)
	assert.Equal(t, 9, r.Score)
	assert.Equal(t, TierA, r.Tier)
}

func TestScoreRisks_Tiers(t *testing.T) {
	// High-consumption item drives the thresholds; the low one stays under.
	big := balanceItem("Bota", "Geral", 5, 50, 1000, 0)
	small := balanceItem("Oculos", "Geral", 5, 50, 1, 0)

	records := ScoreRisks([]StockBalanceItem{big, small}, 30, DefaultRiskConfig())
	require.Len(t, records, 2)

	byName := map[string]RiskRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}

	assert.Equal(t, TierA, byName["Bota"].Tier) // below minimum + high turnover
	assert.Equal(t, TierB, byName["Oculos"].Tier)

	ok := balanceItem("Capacete", "Geral", 500, 50, 1, 0)
	records = ScoreRisks([]StockBalanceItem{ok}, 30, DefaultRiskConfig())
	require.Len(t, records, 1)
	assert.Equal(t, TierC, records[0].Tier)
}

func TestScoreRisks_ShelfLifeGuard(t *testing.T) {
	// Shelf life zero means unknown: the flag must never fire.
	it := balanceItem("Mascara", "Geral", 1, 0, 100, 0)

	records := ScoreRisks([]StockBalanceItem{it}, 30, DefaultRiskConfig())
	require.Len(t, records, 1)
	assert.False(t, records[0].Flags.ShelfLifePressure)
}

func TestRiskConfig_CriticalMarker(t *testing.T) {
	cfg := DefaultRiskConfig()

	epi := balanceItem("Luva", "Epi Descartavel", 0, 0, 1, 0)
	other := balanceItem("Parafuso", "Ferragens", 0, 0, 1, 0)

	assert.True(t, cfg.IsCritical(&epi))
	assert.False(t, cfg.IsCritical(&other))
}

func TestRiskConfig_CriticalExpression(t *testing.T) {
	cfg, err := DefaultRiskConfig().WithCriticalRule(`unit_value > 100.0 || category == "Quimicos"`)
	require.NoError(t, err)

	cheap := balanceItem("Luva", "Geral", 0, 0, 1, 0)
	expensive := balanceItem("Respirador", "Geral", 0, 0, 1, 0)
	expensive.UnitValue = decimal.NewFromInt(250)
	chem := balanceItem("Solvente", "Quimicos", 0, 0, 1, 0)

	assert.False(t, cfg.IsCritical(&cheap))
	assert.True(t, cfg.IsCritical(&expensive))
	assert.True(t, cfg.IsCritical(&chem))
}

func TestRiskConfig_CriticalExpressionErrors(t *testing.T) {
	_, err := DefaultRiskConfig().WithCriticalRule(`category +`)
	assert.Error(t, err)

	_, err = DefaultRiskConfig().WithCriticalRule(`unit_value + 1.0`)
	assert.Error(t, err)

	// Blank expression keeps the marker rule.
	cfg, err := DefaultRiskConfig().WithCriticalRule("  ")
	require.NoError(t, err)
	epi := balanceItem("Luva", "EPI", 0, 0, 1, 0)
	assert.True(t, cfg.IsCritical(&epi))
}
