package ports

import (
	"context"

	"github.com/alejandrodnm/polysim/internal/domain"
)

// ReportSink renders or delivers a finished optimizer report.
type ReportSink interface {
	Publish(ctx context.Context, report *domain.Report) error
}

// ReportStore persists optimizer reports for later inspection.
type ReportStore interface {
	SaveReport(ctx context.Context, report *domain.Report) error
	Close() error
}

// HistoryCache is the on-disk side of the fetch layer: adapters fill
// it after a network fetch and the loader prefers it on later runs.
type HistoryCache interface {
	LoadHistory(ctx context.Context, from, to int64) (*domain.History, error)
	SaveHistory(ctx context.Context, hist *domain.History) error
}
