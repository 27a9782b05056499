// Package analytics implements the computation core of the report engine:
// stock balances, percentile thresholds, Pareto (ABC) classification and
// operational risk scoring. Everything here is pure computation over the
// typed records produced by the repository adapters.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ppetrack/internal/core/id"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/domain/movements"
)

// StockBalanceItem is the derived per-material snapshot. Recomputed fresh on
// every run and never persisted independently of a report.
type StockBalanceItem struct {
	MaterialID      id.ID           `json:"materialId"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	StorageLocation string          `json:"storageLocation,omitempty"`
	UnitValue       decimal.Decimal `json:"unitValue"`
	MinimumStock    float64         `json:"minimumStock"`
	ShelfLifeDays   int             `json:"shelfLifeDays"`

	// Balance is lifetime entries minus lifetime exits, not period-scoped.
	Balance float64 `json:"balance"`

	// PeriodEntries/PeriodExits are window-scoped totals, display-only.
	PeriodEntries float64 `json:"periodEntries"`
	PeriodExits   float64 `json:"periodExits"`

	Deficit      float64         `json:"deficit"`
	RestockValue decimal.Decimal `json:"restockValue"`
	Alert        bool            `json:"alert"`

	LastMovementAt *time.Time `json:"lastMovementAt,omitempty"`

	// HasMovement reports lifetime movement; zero-movement materials only
	// appear in include-all (full inventory) mode.
	HasMovement bool `json:"-"`
}

// PeriodQuantity is the consumption metric used by the classifiers: quantity
// handed out during the window.
func (i *StockBalanceItem) PeriodQuantity() float64 {
	return i.PeriodExits
}

// PeriodValue is the monetary value of the period consumption.
func (i *StockBalanceItem) PeriodValue() decimal.Decimal {
	return i.UnitValue.Mul(decimal.NewFromFloat(i.PeriodExits))
}

// BalanceOptions controls balance computation.
type BalanceOptions struct {
	// Window scopes PeriodEntries/PeriodExits. Nil means the whole history
	// counts as the period.
	Window *movements.Window

	// IncludeAll keeps materials with zero lifetime movement (full-inventory
	// exports, as opposed to movement-scoped reports).
	IncludeAll bool
}

// ComputeBalances derives one StockBalanceItem per material.
//
// The balance is always computed over all history: it is a snapshot, not a
// period delta. Cancelled movements never count.
func ComputeBalances(mats []materials.Material, entries, exits []movements.Movement, opts BalanceOptions) []StockBalanceItem {
	type acc struct {
		balance       float64
		periodEntries float64
		periodExits   float64
		last          *time.Time
		hasMovement   bool
	}

	accs := make(map[id.ID]*acc, len(mats))
	for _, m := range mats {
		accs[m.ID] = &acc{}
	}

	inWindow := func(ts time.Time) bool {
		if opts.Window == nil {
			return true
		}
		return opts.Window.Contains(ts)
	}

	track := func(a *acc, ts time.Time) {
		a.hasMovement = true
		if a.last == nil || ts.After(*a.last) {
			t := ts
			a.last = &t
		}
	}

	for _, e := range entries {
		if e.Cancelled {
			continue
		}
		a, ok := accs[e.MaterialID]
		if !ok {
			// Movement references a material outside the catalog snapshot;
			// skip rather than fabricate a row.
			continue
		}
		a.balance += e.Quantity
		if inWindow(e.OccurredAt) {
			a.periodEntries += e.Quantity
		}
		track(a, e.OccurredAt)
	}

	for _, x := range exits {
		if x.Cancelled {
			continue
		}
		a, ok := accs[x.MaterialID]
		if !ok {
			continue
		}
		a.balance -= x.Quantity
		if inWindow(x.OccurredAt) {
			a.periodExits += x.Quantity
		}
		track(a, x.OccurredAt)
	}

	items := make([]StockBalanceItem, 0, len(mats))
	for _, m := range mats {
		a := accs[m.ID]
		if !a.hasMovement && !opts.IncludeAll {
			continue
		}

		deficit := m.MinimumStock - a.balance
		if deficit < 0 {
			deficit = 0
		}

		items = append(items, StockBalanceItem{
			MaterialID:      m.ID,
			Name:            m.Name,
			Category:        m.Category,
			StorageLocation: m.StorageLocation,
			UnitValue:       m.UnitValue,
			MinimumStock:    m.MinimumStock,
			ShelfLifeDays:   m.ShelfLifeDays,
			Balance:         a.balance,
			PeriodEntries:   a.periodEntries,
			PeriodExits:     a.periodExits,
			Deficit:         deficit,
			RestockValue:    m.UnitValue.Mul(decimal.NewFromFloat(deficit)),
			Alert:           deficit > 0,
			LastMovementAt:  a.last,
			HasMovement:     a.hasMovement,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MaterialID.String() < items[j].MaterialID.String()
	})

	return items
}
