package reportgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/people"
	"ppetrack/internal/domain/safety"
)

type fakeMaterials struct {
	mats []materials.Material
	err  error
}

func (f *fakeMaterials) ListAll(ctx context.Context) ([]materials.Material, error) {
	return f.mats, f.err
}

type fakeMovements struct {
	entries []movements.Movement
	exits   []movements.Movement
}

func (f *fakeMovements) list(moves []movements.Movement, window *movements.Window) []movements.Movement {
	if window == nil {
		return moves
	}
	out := make([]movements.Movement, 0, len(moves))
	for _, m := range moves {
		if window.Contains(m.OccurredAt) {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMovements) ListEntries(ctx context.Context, window *movements.Window) ([]movements.Movement, error) {
	return f.list(f.entries, window), nil
}

func (f *fakeMovements) ListExits(ctx context.Context, window *movements.Window) ([]movements.Movement, error) {
	return f.list(f.exits, window), nil
}

func (f *fakeMovements) EarliestMovement(ctx context.Context) (*time.Time, error) {
	var earliest *time.Time
	for _, m := range append(append([]movements.Movement{}, f.entries...), f.exits...) {
		if m.Cancelled {
			continue
		}
		if earliest == nil || m.OccurredAt.Before(*earliest) {
			t := m.OccurredAt
			earliest = &t
		}
	}
	return earliest, nil
}

type fakePeople struct {
	persons []people.Person
}

func (f *fakePeople) ListAll(ctx context.Context) ([]people.Person, error) {
	return f.persons, nil
}

type fakeSafety struct {
	accidents []safety.Accident
	labor     []safety.LaborMonth
}

func (f *fakeSafety) ListAccidents(ctx context.Context, window *movements.Window) ([]safety.Accident, error) {
	return f.accidents, nil
}

func (f *fakeSafety) ListLaborMonths(ctx context.Context) ([]safety.LaborMonth, error) {
	return f.labor, nil
}

// fakeReports enforces the unique period constraint the way the database
// would: duplicates fail on insert regardless of the listing.
type fakeReports struct {
	mu        sync.Mutex
	inserted  []*ReportRecord
	failNext  error
	listErr   error
	hideLists bool // simulate a stale reported-period listing
}

func (f *fakeReports) key(reportType ReportType, start, end time.Time) string {
	return Period{Type: reportType, Start: start, End: end}.Key()
}

func (f *fakeReports) ListReportedPeriods(ctx context.Context, reportType ReportType) ([]Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.hideLists {
		return nil, nil
	}
	var periods []Period
	for _, rec := range f.inserted {
		if rec.Type == reportType {
			periods = append(periods, Period{Type: rec.Type, Start: rec.PeriodStart, End: rec.PeriodEnd})
		}
	}
	return periods, nil
}

func (f *fakeReports) InsertReport(ctx context.Context, rec *ReportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	for _, existing := range f.inserted {
		if f.key(existing.Type, existing.PeriodStart, existing.PeriodEnd) == f.key(rec.Type, rec.PeriodStart, rec.PeriodEnd) {
			return apperror.NewAlreadyReported(string(rec.Type),
				rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02"))
		}
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeReports) ListReports(ctx context.Context, reportType ReportType, limit int) ([]ReportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ReportRecord
	for _, rec := range f.inserted {
		if rec.Type == reportType {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeReports) GetReport(ctx context.Context, reportID string) (*ReportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.inserted {
		if rec.ID.String() == reportID {
			return rec, nil
		}
	}
	return nil, apperror.NewNotFound("report", reportID)
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failOn  string // object name suffix that fails the upload
}

func (f *fakeBlobs) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && len(objectName) >= len(f.failOn) && objectName[len(objectName)-len(f.failOn):] == f.failOn {
		return "", fmt.Errorf("simulated upload failure")
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = data
	return "https://storage.example.com/" + objectName, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectName)
	f.deleted = append(f.deleted, objectName)
	return nil
}
