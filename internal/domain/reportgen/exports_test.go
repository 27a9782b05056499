package reportgen

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppetrack/internal/core/id"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/safety"
)

func sampleBuildResult() *BuildResult {
	mid := id.New()
	when := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	return &BuildResult{
		Items: []analytics.StockBalanceItem{{
			MaterialID:   mid,
			Name:         "Luva nitrilica",
			Category:     "EPI",
			Balance:      30,
			MinimumStock: 50,
			Deficit:      20,
			RestockValue: decimal.RequireFromString("80"),
			Alert:        true,
		}},
		PeriodEntries: []movements.Movement{
			{ID: id.New(), Kind: movements.KindEntry, MaterialID: mid, Quantity: 10, OccurredAt: when, StorageLocation: "Almoxarifado"},
		},
		PeriodExits: []movements.Movement{
			{ID: id.New(), Kind: movements.KindExit, MaterialID: mid, Quantity: 5, OccurredAt: when, PersonName: "Maria", Department: "Producao"},
		},
		Accidents: []safety.Accident{
			{ID: id.New(), PersonName: "Jose", Department: "Manutencao", OccurredAt: when, Kind: "leve", DaysOff: 2},
		},
		LaborMonths: []safety.LaborMonth{{Year: 2026, Month: 2, HeadCount: 40, Hours: 7040}},
		MaterialNames: map[id.ID]string{
			mid: "Luva nitrilica",
		},
	}
}

func TestBuildWeeklyExports(t *testing.T) {
	files, err := BuildWeeklyExports(sampleBuildResult())
	require.NoError(t, err)
	require.Len(t, files, 5)

	names := map[string]ExportFile{}
	for _, f := range files {
		names[f.Name] = f
	}
	require.Contains(t, names, "entradas.csv")
	require.Contains(t, names, "saidas.csv")
	require.Contains(t, names, "acidentes.csv")
	require.Contains(t, names, "horas_trabalhadas.csv")
	require.Contains(t, names, "estoque_atual.csv")

	for _, f := range files {
		assert.True(t, bytes.HasPrefix(f.Data, utf8BOM), "%s must start with BOM", f.Name)
		assert.Equal(t, csvContentType, f.ContentType)
	}

	entradas := string(names["entradas.csv"].Data)
	assert.Contains(t, entradas, "data;material;quantidade;local_estoque")
	assert.Contains(t, entradas, "2026-03-03;Luva nitrilica;10;Almoxarifado")

	saidas := string(names["saidas.csv"].Data)
	assert.Contains(t, saidas, "Maria")
	assert.Contains(t, saidas, "Producao")

	estoque := string(names["estoque_atual.csv"].Data)
	assert.Contains(t, estoque, "Luva nitrilica;EPI;;30;50;20;80.00;sim")
}

func TestExportObjectName(t *testing.T) {
	p := Period{
		Type:  ReportWeekly,
		Start: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		"acme/relatorios/weekly/2026-03-03_2026-03-09/entradas.csv",
		ExportObjectName("acme", p, "entradas.csv"))
}

func TestUploadExports_CleansUpOnFailure(t *testing.T) {
	p := WeeklyPeriod(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	files, err := BuildWeeklyExports(sampleBuildResult())
	require.NoError(t, err)

	store := &fakeBlobs{failOn: "horas_trabalhadas.csv"}

	_, err = UploadExports(context.Background(), store, "acme", p, files)
	require.Error(t, err)

	// The three files uploaded before the failure were deleted again.
	assert.Len(t, store.deleted, 3)
	assert.Empty(t, store.objects)
}

func TestUploadExports_Success(t *testing.T) {
	p := WeeklyPeriod(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	files, err := BuildWeeklyExports(sampleBuildResult())
	require.NoError(t, err)

	store := &fakeBlobs{}

	atts, err := UploadExports(context.Background(), store, "acme", p, files)
	require.NoError(t, err)
	require.Len(t, atts, 5)
	assert.Len(t, store.objects, 5)

	for _, att := range atts {
		assert.NotEmpty(t, att.URL)
		assert.Greater(t, att.Size, 0)
	}
}

func TestBuildInventoryXLSX(t *testing.T) {
	data, err := BuildInventoryXLSX(sampleBuildResult().Items)
	require.NoError(t, err)
	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}
