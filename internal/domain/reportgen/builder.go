package reportgen

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/core/id"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/people"
	"ppetrack/internal/domain/safety"
)

// Builder assembles one report payload for one period. It is stateless; a
// fresh data snapshot is read on every Build call.
type Builder struct {
	Materials materials.Repository
	Movements movements.Repository
	People    people.Repository
	Safety    safety.Repository

	Pareto analytics.ParetoConfig
	Risk   analytics.RiskConfig
}

// BuildResult carries the payload plus the raw datasets the weekly exports
// are rendered from.
type BuildResult struct {
	Payload *ReportPayload

	Items         []analytics.StockBalanceItem
	PeriodEntries []movements.Movement
	PeriodExits   []movements.Movement
	Accidents     []safety.Accident
	LaborMonths   []safety.LaborMonth

	MaterialNames map[id.ID]string
}

// Build computes the full report payload for the period. Returns a no-data
// error (apperror.IsNoData) when the tenant has no catalog or the period has
// no movements.
func (b *Builder) Build(ctx context.Context, period Period) (*BuildResult, error) {
	mats, err := b.Materials.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if len(mats) == 0 {
		return nil, apperror.NewNoData("tenant has no material catalog")
	}

	// Full history: balances are lifetime snapshots, the window only scopes
	// the period aggregates.
	entries, err := b.Movements.ListEntries(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	exits, err := b.Movements.ListExits(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list exits: %w", err)
	}

	window := period.Window()
	periodEntries := filterWindow(entries, window)
	periodExits := filterWindow(exits, window)
	if len(periodEntries) == 0 && len(periodExits) == 0 {
		return nil, apperror.NewNoData("no movements in period")
	}

	items := analytics.ComputeBalances(mats, entries, exits, analytics.BalanceOptions{Window: &window})

	persons, err := b.People.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}

	names := make(map[id.ID]string, len(mats))
	values := make(map[id.ID]decimal.Decimal, len(mats))
	for _, m := range mats {
		names[m.ID] = m.Name
		values[m.ID] = m.UnitValue
	}

	days := window.Days()
	risks := analytics.ScoreRisks(items, days, b.Risk)

	payload := &ReportPayload{
		ParetoByQuantity: analytics.ClassifyPareto(paretoByQuantity(items), b.Pareto),
		ParetoByValue:    analytics.ClassifyPareto(paretoByValue(items), b.Pareto),
		ParetoByRisk:     analytics.ClassifyPareto(paretoByRisk(risks), b.Pareto),
		Risks:            risks,
		Stock:            items,
		Categories:       rollupByCategory(items),
		Sectors:          rollupExits(periodExits, values, exitSector),
		CostCenters:      rollupExits(periodExits, values, exitCostCenter),
	}
	payload.Summary = b.summarize(items, risks, periodEntries, periodExits, persons, values, days)

	res := &BuildResult{
		Payload:       payload,
		Items:         items,
		PeriodEntries: periodEntries,
		PeriodExits:   periodExits,
		MaterialNames: names,
	}

	if period.Type == ReportWeekly {
		accidents, err := b.Safety.ListAccidents(ctx, &window)
		if err != nil {
			return nil, fmt.Errorf("list accidents: %w", err)
		}
		labor, err := b.Safety.ListLaborMonths(ctx)
		if err != nil {
			return nil, fmt.Errorf("list labor months: %w", err)
		}
		res.Accidents = accidents
		res.LaborMonths = labor
		payload.Accidents = accidents
		payload.LaborMonths = labor
	}

	return res, nil
}

func filterWindow(moves []movements.Movement, window movements.Window) []movements.Movement {
	out := make([]movements.Movement, 0, len(moves))
	for _, m := range moves {
		if m.Cancelled || !window.Contains(m.OccurredAt) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func paretoByQuantity(items []analytics.StockBalanceItem) []analytics.ParetoItem {
	out := make([]analytics.ParetoItem, 0, len(items))
	for i := range items {
		out = append(out, analytics.ParetoItem{
			MaterialID: items[i].MaterialID,
			Name:       items[i].Name,
			Metric:     items[i].PeriodQuantity(),
		})
	}
	return out
}

func paretoByValue(items []analytics.StockBalanceItem) []analytics.ParetoItem {
	out := make([]analytics.ParetoItem, 0, len(items))
	for i := range items {
		out = append(out, analytics.ParetoItem{
			MaterialID: items[i].MaterialID,
			Name:       items[i].Name,
			Metric:     items[i].PeriodValue().InexactFloat64(),
		})
	}
	return out
}

func paretoByRisk(risks []analytics.RiskRecord) []analytics.ParetoItem {
	out := make([]analytics.ParetoItem, 0, len(risks))
	for _, r := range risks {
		out = append(out, analytics.ParetoItem{
			MaterialID: r.MaterialID,
			Name:       r.Name,
			Metric:     float64(r.Score),
		})
	}
	return out
}

// keyedTotal accumulates one rollup bucket.
type keyedTotal struct {
	qty   float64
	value decimal.Decimal
}

func finishRollup(totals map[string]*keyedTotal) []RollupEntry {
	var totalQty float64
	for _, t := range totals {
		totalQty += t.qty
	}

	entries := make([]RollupEntry, 0, len(totals))
	for key, t := range totals {
		e := RollupEntry{Key: key, Quantity: t.qty, Value: t.value}
		if totalQty > 0 {
			e.Share = t.qty / totalQty * 100
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Quantity != entries[j].Quantity {
			return entries[i].Quantity > entries[j].Quantity
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func rollupByCategory(items []analytics.StockBalanceItem) []RollupEntry {
	totals := map[string]*keyedTotal{}
	for i := range items {
		it := &items[i]
		key := it.Category
		if key == "" {
			key = "nao informado"
		}
		t, ok := totals[key]
		if !ok {
			t = &keyedTotal{}
			totals[key] = t
		}
		t.qty += it.PeriodQuantity()
		t.value = t.value.Add(it.PeriodValue())
	}
	return finishRollup(totals)
}

func exitSector(m *movements.Movement) string     { return m.Department }
func exitCostCenter(m *movements.Movement) string { return m.CostCenter }

func rollupExits(exits []movements.Movement, values map[id.ID]decimal.Decimal, keyOf func(*movements.Movement) string) []RollupEntry {
	totals := map[string]*keyedTotal{}
	for i := range exits {
		x := &exits[i]
		key := keyOf(x)
		if key == "" {
			key = "nao informado"
		}
		t, ok := totals[key]
		if !ok {
			t = &keyedTotal{}
			totals[key] = t
		}
		t.qty += x.Quantity
		t.value = t.value.Add(values[x.MaterialID].Mul(decimal.NewFromFloat(x.Quantity)))
	}
	return finishRollup(totals)
}

func (b *Builder) summarize(
	items []analytics.StockBalanceItem,
	risks []analytics.RiskRecord,
	periodEntries, periodExits []movements.Movement,
	persons []people.Person,
	values map[id.ID]decimal.Decimal,
	days int,
) Summary {
	s := Summary{
		MaterialCount: len(items),
		EntryCount:    len(periodEntries),
		ExitCount:     len(periodExits),
		DaysInPeriod:  days,
	}

	for _, r := range risks {
		switch r.Tier {
		case analytics.TierA:
			s.CriticalCount++
		case analytics.TierB:
			s.AttentionCount++
		default:
			s.ControlledCount++
		}
	}

	for i := range items {
		if items[i].Alert {
			s.AlertCount++
		}
	}

	total := decimal.Zero
	for i := range periodEntries {
		m := &periodEntries[i]
		total = total.Add(values[m.MaterialID].Mul(decimal.NewFromFloat(m.Quantity)))
	}
	for i := range periodExits {
		m := &periodExits[i]
		total = total.Add(values[m.MaterialID].Mul(decimal.NewFromFloat(m.Quantity)))
	}
	s.TotalMovementValue = total

	// Per-capita consumption counts only exits attributable to an active
	// person or to no person at all; exits of deactivated people are noise
	// from historical hand-outs.
	active := people.ActiveSet(persons)
	s.ActivePeople = len(active)

	var consumption float64
	for i := range periodExits {
		x := &periodExits[i]
		if x.PersonID != nil {
			if _, ok := active[*x.PersonID]; !ok {
				continue
			}
		}
		consumption += x.Quantity
	}
	if s.ActivePeople > 0 {
		s.PerCapitaConsumption = consumption / float64(s.ActivePeople)
	}

	s.Narrative = narrative(s)
	return s
}

// narrative renders the one-line management summary shown in notifications.
func narrative(s Summary) string {
	return fmt.Sprintf(
		"%d materiais em nivel critico, %d em atencao e %d sob controle; %d alertas de estoque abaixo do minimo; valor movimentado no periodo: %s.",
		s.CriticalCount, s.AttentionCount, s.ControlledCount, s.AlertCount,
		s.TotalMovementValue.StringFixed(2),
	)
}
