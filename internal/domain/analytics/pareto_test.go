package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppetrack/internal/core/id"
)

func TestPercentile(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, Percentile(nil, 0.8))
	})

	t.Run("all zeros", func(t *testing.T) {
		assert.Equal(t, 0.0, Percentile([]float64{0, 0, 0}, 0.8))
	})

	t.Run("single value", func(t *testing.T) {
		assert.Equal(t, 42.0, Percentile([]float64{42}, 0.8))
		assert.Equal(t, 42.0, Percentile([]float64{42}, 0.9))
	})

	t.Run("zeros dropped before ranking", func(t *testing.T) {
		// Non-zero set is {10, 20}; p80 rank = ceil(0.8*2) = 2 -> 20.
		assert.Equal(t, 20.0, Percentile([]float64{0, 10, 0, 20}, 0.8))
	})

	t.Run("ten values", func(t *testing.T) {
		vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		assert.Equal(t, 8.0, Percentile(vals, 0.8))
		assert.Equal(t, 9.0, Percentile(vals, 0.9))
	})
}

func TestClassifyPareto_DominantItemIsClassA(t *testing.T) {
	items := []ParetoItem{
		{MaterialID: id.New(), Name: "Luva", Metric: 90},
		{MaterialID: id.New(), Name: "Capacete", Metric: 10},
	}

	entries := ClassifyPareto(items, DefaultParetoConfig())
	require.Len(t, entries, 2)

	assert.Equal(t, "Luva", entries[0].Name)
	assert.Equal(t, ClassA, entries[0].Class)
	assert.InDelta(t, 90.0, entries[0].Share, 1e-9)

	assert.Equal(t, "Capacete", entries[1].Name)
	assert.Equal(t, ClassB, entries[1].Class)
	assert.InDelta(t, 100.0, entries[1].Cumulative, 1e-9)
}

func TestClassifyPareto_ThreeClasses(t *testing.T) {
	items := []ParetoItem{
		{MaterialID: id.New(), Name: "A1", Metric: 70},
		{MaterialID: id.New(), Name: "B1", Metric: 20},
		{MaterialID: id.New(), Name: "C1", Metric: 6},
		{MaterialID: id.New(), Name: "C2", Metric: 4},
	}

	entries := ClassifyPareto(items, DefaultParetoConfig())
	require.Len(t, entries, 4)

	assert.Equal(t, ClassA, entries[0].Class) // before 0
	assert.Equal(t, ClassA, entries[1].Class) // before 70
	assert.Equal(t, ClassB, entries[2].Class) // before 90
	assert.Equal(t, ClassC, entries[3].Class) // before 96
	assert.InDelta(t, 100.0, entries[3].Cumulative, 1e-9)
}

func TestClassifyPareto_DuplicatesMerged(t *testing.T) {
	mid := id.New()
	other := id.New()
	items := []ParetoItem{
		{MaterialID: mid, Name: "Luva", Metric: 30},
		{MaterialID: other, Name: "Bota", Metric: 50},
		{MaterialID: mid, Name: "Luva", Metric: 40},
	}

	entries := ClassifyPareto(items, DefaultParetoConfig())
	require.Len(t, entries, 2)
	assert.Equal(t, "Luva", entries[0].Name)
	assert.Equal(t, 70.0, entries[0].Metric)
}

func TestClassifyPareto_ZeroTotal(t *testing.T) {
	items := []ParetoItem{
		{MaterialID: id.New(), Name: "Luva", Metric: 0},
		{MaterialID: id.New(), Name: "Bota", Metric: 0},
	}

	entries := ClassifyPareto(items, DefaultParetoConfig())
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, 0.0, e.Share)
		assert.Equal(t, 0.0, e.Cumulative)
		assert.Equal(t, ClassC, e.Class)
	}
}

func TestClassifyPareto_TieBreakByName(t *testing.T) {
	items := []ParetoItem{
		{MaterialID: id.New(), Name: "Zarcao", Metric: 10},
		{MaterialID: id.New(), Name: "Avental", Metric: 10},
	}

	entries := ClassifyPareto(items, DefaultParetoConfig())
	require.Len(t, entries, 2)
	assert.Equal(t, "Avental", entries[0].Name)
}

func TestClassifyPareto_Empty(t *testing.T) {
	entries := ClassifyPareto(nil, DefaultParetoConfig())
	assert.Empty(t, entries)
}
