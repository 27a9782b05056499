package reportgen

import "context"

// Repository persists reports in the tenant database.
//
// The authoritative idempotency guarantee is the storage unique constraint on
// (report_type, period_start, period_end): InsertReport must return an
// already-reported error (apperror.IsAlreadyReported) on a duplicate period,
// regardless of what the in-memory reported set said.
type Repository interface {
	// ListReportedPeriods returns the periods already covered by a persisted
	// report of the given type.
	ListReportedPeriods(ctx context.Context, reportType ReportType) ([]Period, error)

	// InsertReport persists one report row with its payload.
	InsertReport(ctx context.Context, rec *ReportRecord) error

	// ListReports returns persisted reports without payloads, newest first.
	ListReports(ctx context.Context, reportType ReportType, limit int) ([]ReportRecord, error)

	// GetReport loads one report including its payload.
	GetReport(ctx context.Context, reportID string) (*ReportRecord, error)
}

// BlobStore uploads and deletes export files in object storage.
type BlobStore interface {
	// Upload stores data under objectName and returns a public or signed URL.
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// Delete removes objectName. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectName string) error
}
