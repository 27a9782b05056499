package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppetrack/internal/core/id"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/domain/movements"
)

func mat(name string, min float64, unitValue string) materials.Material {
	return materials.Material{
		ID:           id.New(),
		Name:         name,
		Category:     "EPI",
		UnitValue:    decimal.RequireFromString(unitValue),
		MinimumStock: min,
	}
}

func entry(m materials.Material, qty float64, at time.Time) movements.Movement {
	return movements.Movement{ID: id.New(), Kind: movements.KindEntry, MaterialID: m.ID, Quantity: qty, OccurredAt: at}
}

func exit(m materials.Material, qty float64, at time.Time) movements.Movement {
	return movements.Movement{ID: id.New(), Kind: movements.KindExit, MaterialID: m.ID, Quantity: qty, OccurredAt: at}
}

func TestComputeBalances_LifetimeBalance(t *testing.T) {
	m := mat("Luva nitrilica", 50, "4.20")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	window := &movements.Window{Start: start, End: end}

	// Entry before the window still counts toward the balance.
	entries := []movements.Movement{entry(m, 100, start.AddDate(0, -2, 0))}
	exits := []movements.Movement{exit(m, 30, start.AddDate(0, 0, 10))}

	items := ComputeBalances([]materials.Material{m}, entries, exits, BalanceOptions{Window: window})
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, 70.0, it.Balance)
	assert.Equal(t, 0.0, it.PeriodEntries)
	assert.Equal(t, 30.0, it.PeriodExits)
	assert.Equal(t, 0.0, it.Deficit)
	assert.False(t, it.Alert)
	assert.True(t, it.RestockValue.IsZero())
}

func TestComputeBalances_DeficitAndRestockValue(t *testing.T) {
	m := mat("Capacete", 50, "10.00")
	now := time.Now().UTC()

	entries := []movements.Movement{entry(m, 20, now)}
	exits := []movements.Movement{exit(m, 5, now)}

	items := ComputeBalances([]materials.Material{m}, entries, exits, BalanceOptions{})
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, 15.0, it.Balance)
	assert.Equal(t, 35.0, it.Deficit)
	assert.True(t, it.Alert)
	assert.True(t, decimal.RequireFromString("350").Equal(it.RestockValue))
}

func TestComputeBalances_CancelledMovementsIgnored(t *testing.T) {
	m := mat("Oculos", 0, "1.00")
	now := time.Now().UTC()

	cancelled := exit(m, 99, now)
	cancelled.Cancelled = true

	items := ComputeBalances([]materials.Material{m},
		[]movements.Movement{entry(m, 10, now)},
		[]movements.Movement{cancelled},
		BalanceOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, 10.0, items[0].Balance)
	assert.Equal(t, 0.0, items[0].PeriodExits)
}

func TestComputeBalances_ZeroMovementExcludedByDefault(t *testing.T) {
	moved := mat("Bota", 0, "1.00")
	idle := mat("Protetor auricular", 0, "1.00")
	now := time.Now().UTC()

	mats := []materials.Material{moved, idle}
	entries := []movements.Movement{entry(moved, 5, now)}

	items := ComputeBalances(mats, entries, nil, BalanceOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, "Bota", items[0].Name)

	all := ComputeBalances(mats, entries, nil, BalanceOptions{IncludeAll: true})
	require.Len(t, all, 2)
	for _, it := range all {
		if it.Name == "Protetor auricular" {
			assert.False(t, it.HasMovement)
			assert.Nil(t, it.LastMovementAt)
		}
	}
}

func TestComputeBalances_UnknownMaterialSkipped(t *testing.T) {
	m := mat("Luva", 0, "1.00")
	now := time.Now().UTC()

	orphan := movements.Movement{ID: id.New(), Kind: movements.KindExit, MaterialID: id.New(), Quantity: 7, OccurredAt: now}

	items := ComputeBalances([]materials.Material{m},
		[]movements.Movement{entry(m, 3, now)},
		[]movements.Movement{orphan},
		BalanceOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, 3.0, items[0].Balance)
}

func TestComputeBalances_NegativeBalanceAllowed(t *testing.T) {
	m := mat("Mascara", 0, "2.50")
	now := time.Now().UTC()

	items := ComputeBalances([]materials.Material{m},
		nil,
		[]movements.Movement{exit(m, 4, now)},
		BalanceOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, -4.0, items[0].Balance)
	assert.Equal(t, 4.0, items[0].Deficit)
}

func TestComputeBalances_SortedByName(t *testing.T) {
	a := mat("Avental", 0, "1.00")
	z := mat("Zarcao", 0, "1.00")
	now := time.Now().UTC()

	items := ComputeBalances([]materials.Material{z, a},
		[]movements.Movement{entry(z, 1, now), entry(a, 1, now)},
		nil, BalanceOptions{})
	require.Len(t, items, 2)
	assert.Equal(t, "Avental", items[0].Name)
	assert.Equal(t, "Zarcao", items[1].Name)
}
