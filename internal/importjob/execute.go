package importjob

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/logging"
	"github.com/JonMunkholm/solarimport/internal/parser"
	"github.com/JonMunkholm/solarimport/internal/store"
)

// DefaultBatchSize applies when a schema does not set one.
const DefaultBatchSize = 100

// headerOffset converts 1-based data row numbers to spreadsheet rows.
const headerOffset = 1

// Messages reported on rows that were valid but could not be written.
const (
	msgDuplicateExisting = "El registro ya existe"
	msgDuplicateInFile   = "Registro duplicado en el archivo (fila %d)"
	msgBeforeInsert      = "Error preparando el registro: %v"
	msgPersist           = "No se pudo guardar el registro"
	msgSkippedInFile     = "%d filas duplicadas en el archivo se omitieron"
)

// Request describes one import run.
type Request struct {
	SchemaID string
	TenantID string
	Upload   Upload
	Mapping  importer.Mapping

	// Strategy overrides the schema default when set.
	Strategy importer.DuplicateStrategy

	// DryRun resolves every row against the store without writing, and
	// does not count against the hourly quota.
	DryRun bool
}

// PendingDuplicate is a row held back under the "ask" strategy. It repeats
// either a stored record (ExistingID) or an earlier row of the same file
// (DuplicateOfRow).
type PendingDuplicate struct {
	Row            int             `json:"row"`
	IdentityKey    string          `json:"identityKey"`
	ExistingID     string          `json:"existingId,omitempty"`
	DuplicateOfRow int             `json:"duplicateOfRow,omitempty"`
	Data           importer.Record `json:"data"`
}

// Summary is the outcome of Execute.
type Summary struct {
	Job      store.Job             `json:"job"`
	Headers  []string              `json:"headers"`
	Result   *importer.Result      `json:"result"`
	Failures []importer.InvalidRow `json:"failures"`
	Pending  []PendingDuplicate    `json:"pending"`
	Warnings []string              `json:"warnings"`
}

// Execute runs a full import. Errors are returned only when the job could
// not run at all; row-level problems are reported in the Summary.
func (s *Service) Execute(ctx context.Context, req Request) (*Summary, error) {
	schema, err := s.registry.Lookup(req.SchemaID)
	if err != nil {
		return nil, err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = schema.Strategy()
	}
	if _, err := importer.ParseDuplicateStrategy(string(strategy)); err != nil {
		return nil, err
	}

	charged := false
	if !req.DryRun {
		if wait, err := s.quota.Allow(req.TenantID); err != nil {
			return nil, &RateLimitError{Wait: wait}
		}
		charged = true
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if charged {
			s.quota.Refund(req.TenantID)
		}
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	job := store.Job{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		SchemaID:  schema.ID,
		FileName:  req.Upload.FileName,
		Strategy:  strategy,
		StartedAt: s.now().UTC(),
	}
	log := logging.WithFields(ctx, "job_id", job.ID, "schema", schema.ID, "tenant", req.TenantID)
	log.Info("import started", "file", job.FileName, "strategy", strategy, "dry_run", req.DryRun)

	var sum *Summary
	table, res, err := s.check(schema, req.Upload, req.Mapping)
	if err == nil {
		sum, err = s.run(ctx, schema, strategy, req, &job, table, res)
	} else if charged {
		// a rejected file never became a job
		s.quota.Refund(req.TenantID)
	}
	if err != nil {
		job.Status = store.JobFailed
		job.Error = err.Error()
	}
	job.FinishedAt = s.now().UTC()

	if saveErr := s.repo.SaveJob(context.WithoutCancel(ctx), &job); saveErr != nil {
		log.Error("failed to record import job", "error", saveErr)
	}
	if err != nil {
		log.Warn("import failed", "error", err)
		return nil, err
	}

	sum.Job = job
	log.Info("import finished",
		"status", job.Status,
		"rows", job.TotalRows,
		"inserted", job.Inserted,
		"updated", job.Updated,
		"skipped", job.Skipped,
		"pending", job.Pending,
		"failed", job.Failed,
		"duration", job.FinishedAt.Sub(job.StartedAt),
	)
	return sum, nil
}

func (s *Service) run(ctx context.Context, schema *importer.Schema, strategy importer.DuplicateStrategy, req Request, job *store.Job, table *parser.Table, res *importer.Result) (*Summary, error) {
	sum := &Summary{
		Headers:  table.Headers,
		Result:   res,
		Failures: []importer.InvalidRow{},
		Pending:  []PendingDuplicate{},
		Warnings: append(append([]string{}, table.Warnings...), res.Warnings...),
	}
	job.TotalRows = res.ProcessedRows
	job.ValidRows = res.ValidRows
	job.InvalidRows = res.InvalidRows

	rows := validRows(res, table.Lines)
	for _, r := range rows {
		if note := s.limits.LimitCustomFields(r.rec); note != "" {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("Fila %d: %s", r.num, note))
		}
		if extra, ok := r.rec[importer.UnmappedKey].(map[string]any); ok {
			importer.SanitizeValues(extra)
		}
	}

	w := &writer{
		repo:     s.repo,
		schema:   schema,
		strategy: strategy,
		dryRun:   req.DryRun,
		job:      job,
		sum:      sum,
	}
	if err := w.write(ctx, rows); err != nil {
		return nil, err
	}
	sort.SliceStable(sum.Pending, func(i, j int) bool { return sum.Pending[i].Row < sum.Pending[j].Row })

	job.Failed += res.InvalidRows
	switch {
	case req.DryRun:
		job.Status = store.JobDryRun
	case job.TotalRows > 0 && job.Failed == job.TotalRows:
		job.Status = store.JobFailed
	default:
		job.Status = store.JobCompleted
	}
	return sum, nil
}

// numberedRecord is a valid record with its spreadsheet row number.
type numberedRecord struct {
	num int
	rec importer.Record
	key string
}

// validRows pairs ValidData with spreadsheet row numbers. Both partitions
// of a Result keep input order, so valid rows are the table rows not taken
// by an invalid row, ascending. lines holds the spreadsheet row of each
// table row.
func validRows(res *importer.Result, lines []int) []numberedRecord {
	invalid := make(map[int]bool, len(res.InvalidData))
	for _, inv := range res.InvalidData {
		invalid[inv.Row] = true
	}
	out := make([]numberedRecord, 0, len(res.ValidData))
	i := 0
	for _, rec := range res.ValidData {
		for invalid[spreadsheetRow(lines, i)] {
			i++
		}
		out = append(out, numberedRecord{num: spreadsheetRow(lines, i), rec: rec})
		i++
	}
	return out
}

// spreadsheetRow returns the spreadsheet row of table row i (0-based),
// falling back to the header-plus-one layout when lines does not cover it.
func spreadsheetRow(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1 + headerOffset
}

// writer applies the duplicate strategy to valid rows.
type writer struct {
	repo     store.Repository
	schema   *importer.Schema
	strategy importer.DuplicateStrategy
	dryRun   bool
	job      *store.Job
	sum      *Summary
}

func (w *writer) fail(r numberedRecord, msg string) {
	w.job.Failed++
	w.sum.Failures = append(w.sum.Failures, importer.InvalidRow{
		Row:          r.num,
		OriginalData: r.rec,
		Errors:       []importer.FieldError{{Field: importer.GeneralField, Message: msg}},
	})
}

func (w *writer) write(ctx context.Context, rows []numberedRecord) error {
	prepared := make([]numberedRecord, 0, len(rows))
	for _, r := range rows {
		if w.schema.BeforeInsert != nil {
			rec, err := w.schema.BeforeInsert(ctx, r.rec)
			if err != nil {
				w.fail(r, fmt.Sprintf(msgBeforeInsert, err))
				continue
			}
			r.rec = rec
		}
		r.key = w.schema.IdentityKey(r.rec)
		prepared = append(prepared, r)
	}

	rows = w.dedupeInFile(prepared)

	size := w.schema.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	for _, batch := range importer.Batches(rows, size) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// dedupeInFile keeps one row per identity key. The first occurrence wins,
// except under update where the last one does; append keeps every row,
// error fails the repeats and ask holds them for the caller.
func (w *writer) dedupeInFile(rows []numberedRecord) []numberedRecord {
	if w.strategy == importer.StrategyAppend {
		return rows
	}

	winner := make(map[string]int)
	for i, r := range rows {
		if r.key == "" {
			continue
		}
		if _, seen := winner[r.key]; !seen || w.strategy == importer.StrategyUpdate {
			winner[r.key] = i
		}
	}

	kept := make([]numberedRecord, 0, len(rows))
	skipped := 0
	for i, r := range rows {
		if r.key == "" || winner[r.key] == i {
			kept = append(kept, r)
			continue
		}
		keptRow := rows[winner[r.key]].num
		switch w.strategy {
		case importer.StrategyError:
			w.fail(r, fmt.Sprintf(msgDuplicateInFile, keptRow))
			continue
		case importer.StrategyAsk:
			w.job.Pending++
			w.sum.Pending = append(w.sum.Pending, PendingDuplicate{
				Row:            r.num,
				IdentityKey:    r.key,
				DuplicateOfRow: keptRow,
				Data:           r.rec,
			})
			continue
		}
		w.job.Skipped++
		skipped++
	}
	if skipped > 0 {
		w.sum.Warnings = append(w.sum.Warnings, fmt.Sprintf(msgSkippedInFile, skipped))
	}
	// the update winner may come after rows it replaced; restore file order
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].num < kept[j].num })
	return kept
}

func (w *writer) writeBatch(ctx context.Context, batch []numberedRecord) error {
	keys := make([]string, 0, len(batch))
	for _, r := range batch {
		if r.key != "" {
			keys = append(keys, r.key)
		}
	}
	existing, err := w.repo.FindExisting(ctx, w.schema.TargetModel, keys)
	if err != nil {
		return fmt.Errorf("resolve duplicates: %w", err)
	}

	for _, r := range batch {
		id, found := existing[r.key]
		if r.key == "" || !found {
			w.insert(ctx, r, r.key)
			continue
		}

		switch w.strategy {
		case importer.StrategySkip:
			w.job.Skipped++
		case importer.StrategyError:
			w.fail(r, msgDuplicateExisting)
		case importer.StrategyAsk:
			w.job.Pending++
			w.sum.Pending = append(w.sum.Pending, PendingDuplicate{
				Row:         r.num,
				IdentityKey: r.key,
				ExistingID:  id,
				Data:        r.rec,
			})
		case importer.StrategyAppend:
			// the identity key stays with the existing record
			w.insert(ctx, r, "")
		case importer.StrategyUpdate:
			w.update(ctx, r, id)
		}
	}
	return nil
}

func (w *writer) insert(ctx context.Context, r numberedRecord, key string) {
	if w.dryRun {
		w.job.Inserted++
		return
	}
	err := w.repo.Insert(ctx, &store.Record{
		TargetModel: w.schema.TargetModel,
		IdentityKey: key,
		Data:        r.rec,
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		w.fail(r, msgDuplicateExisting)
	case err != nil:
		logging.FromContext(ctx).Warn("insert failed", "job_id", w.job.ID, "row", r.num, "error", err)
		w.fail(r, msgPersist)
	default:
		w.job.Inserted++
	}
}

func (w *writer) update(ctx context.Context, r numberedRecord, id string) {
	if w.dryRun {
		w.job.Updated++
		return
	}
	if err := w.repo.Update(ctx, w.schema.TargetModel, id, r.rec); err != nil {
		logging.FromContext(ctx).Warn("update failed", "job_id", w.job.ID, "row", r.num, "error", err)
		w.fail(r, msgPersist)
		return
	}
	w.job.Updated++
}
