package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"employerexport/internal/dbclient"
	"employerexport/internal/domain"
	"employerexport/internal/logger"
)

// ── Exporter ───────────────────────────────────────────────
// One run: connect → fetch Regions, Industries, DatePosted → close →
// write one JSON file per table → report counts.
//
// A fetch failure stops fetching. Tables fetched before it are still
// written; the failing table and the ones after it are not. Files already
// written are never rolled back.

// Dialer opens a Connector. dbclient.Open in production.
type Dialer func(ctx context.Context, drv domain.DatabaseDriver, dsn string) (dbclient.Connector, error)

// Options configures an Exporter.
type Options struct {
	Driver       domain.DatabaseDriver // empty: inferred from DSN
	DSN          string
	OutputDir    string
	Schema       domain.SchemaVariant
	OrderByID    bool
	RegionChunks int
}

// Exporter runs the export.
type Exporter struct {
	opts   Options
	dial   Dialer
	logger *log.Logger
}

// New creates an Exporter that connects with dbclient.Open.
func New(opts Options, l *log.Logger) *Exporter {
	if l == nil {
		l = logger.Discard()
	}
	return &Exporter{opts: opts, dial: dbclient.Open, logger: l.WithPrefix("EXPORT")}
}

// WithDialer replaces the connection factory. Used by tests.
func (e *Exporter) WithDialer(d Dialer) *Exporter {
	e.dial = d
	return e
}

// TableResult is the outcome for one written table.
type TableResult struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Rows  int    `json:"rows"`
	Files int    `json:"files"` // 1 plus any chunk files
}

// Result summarizes a run. Tables lists only tables whose files were written.
type Result struct {
	Tables   []TableResult `json:"tables"`
	Duration time.Duration `json:"duration"`
}

// Count returns the row count written for a dataset, or 0.
func (r *Result) Count(name string) int {
	if r == nil {
		return 0
	}
	for _, t := range r.Tables {
		if t.Name == name {
			return t.Rows
		}
	}
	return 0
}

// Summary is the one-line report printed on success.
func (r *Result) Summary() string {
	return fmt.Sprintf("Wrote %d regions, %d industries, %d dateposted rows",
		r.Count(DatasetRegions), r.Count(DatasetIndustries), r.Count(DatasetDatePosted))
}

// dataset is one fully fetched table.
type dataset struct {
	spec    TableSpec
	records []domain.Record
}

// Run executes the export end-to-end. The returned Result is non-nil
// whenever the connection was established, including on failure, and
// lists the tables that were written.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	specs := Tables(e.opts.Schema)

	conn, err := e.dial(ctx, e.opts.Driver, e.opts.DSN)
	if err != nil {
		kind := ErrConnection
		if errors.Is(err, context.Canceled) {
			kind = ErrCanceled
		}
		return nil, &Error{Kind: kind, Phase: PhaseConnect, Err: err}
	}
	e.logger.Debug("connected", "driver", e.opts.Driver)

	datasets, fetchErr := e.fetchAll(ctx, conn, specs)

	if err := conn.Close(); err != nil {
		e.logger.Warn("close connection", "err", err)
	}

	result := &Result{}
	for _, ds := range datasets {
		tr, err := e.writeDataset(ds)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.Tables = append(result.Tables, tr)
	}
	result.Duration = time.Since(start)

	if fetchErr != nil {
		return result, fetchErr
	}
	return result, nil
}

// fetchAll fetches specs in order and stops at the first failure,
// returning the datasets completed before it.
func (e *Exporter) fetchAll(ctx context.Context, conn dbclient.Connector, specs []TableSpec) ([]dataset, error) {
	datasets := make([]dataset, 0, len(specs))
	for _, spec := range specs {
		records, err := FetchTable(ctx, conn, spec, e.opts.OrderByID)
		if err != nil {
			e.logger.Error("fetch failed", "table", spec.Table, "err", err)
			return datasets, err
		}
		e.logger.Info("fetched", "table", spec.Table, "rows", len(records))
		datasets = append(datasets, dataset{spec: spec, records: records})
	}
	return datasets, nil
}

// FetchTable reads every row of spec's table into typed records. Errors
// are *Error values of kind ErrQuery, ErrConnectionLost or ErrCanceled.
// A run timeout counts as a lost connection; cancellation does not.
func FetchTable(ctx context.Context, conn dbclient.Connector, spec TableSpec, orderByID bool) ([]domain.Record, error) {
	fail := func(err error) error {
		kind := ErrQuery
		switch {
		case errors.Is(err, context.Canceled):
			kind = ErrCanceled
		case dbclient.IsConnectionLost(err), errors.Is(err, context.DeadlineExceeded):
			kind = ErrConnectionLost
		}
		return &Error{Kind: kind, Phase: PhaseFetch, Table: spec.Table, Err: err}
	}

	rows, err := conn.Query(ctx, spec.Query(orderByID))
	if err != nil {
		return nil, fail(err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec := spec.New()
		if err := rows.Scan(rec.ScanTargets()...); err != nil {
			return nil, fail(fmt.Errorf("scan row %d: %w", len(records)+1, err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(fmt.Errorf("iterate: %w", err))
	}
	return records, nil
}

// writeDataset writes the table file and, for regions, any chunk files.
func (e *Exporter) writeDataset(ds dataset) (TableResult, error) {
	path := filepath.Join(e.opts.OutputDir, ds.spec.File)
	tr := TableResult{Name: ds.spec.Name, File: path, Rows: len(ds.records)}

	if err := WriteJSONFile(path, ds.records); err != nil {
		return tr, &Error{Kind: ErrIO, Phase: PhaseWrite, Table: ds.spec.Table, Err: fmt.Errorf("%s: %w", path, err)}
	}
	tr.Files = 1
	e.logger.Info("wrote file", "path", path, "rows", len(ds.records))

	if ds.spec.Name != DatasetRegions {
		return tr, nil
	}
	removed, err := RemoveStaleChunks(filepath.Dir(path), ds.spec.File, e.opts.RegionChunks)
	if err != nil {
		return tr, &Error{Kind: ErrIO, Phase: PhaseWrite, Table: ds.spec.Table, Err: err}
	}
	if removed > 0 {
		e.logger.Info("removed stale chunks", "table", ds.spec.Table, "files", removed)
	}
	for i, chunk := range ChunkRecords(ds.records, e.opts.RegionChunks) {
		chunkPath := filepath.Join(e.opts.OutputDir, chunkFileName(ds.spec.File, i+1))
		if err := WriteJSONFile(chunkPath, chunk); err != nil {
			return tr, &Error{Kind: ErrIO, Phase: PhaseWrite, Table: ds.spec.Table, Err: fmt.Errorf("%s: %w", chunkPath, err)}
		}
		tr.Files++
	}
	if e.opts.RegionChunks > 0 {
		e.logger.Debug("wrote chunks", "table", ds.spec.Table, "chunks", e.opts.RegionChunks)
	}
	return tr, nil
}
