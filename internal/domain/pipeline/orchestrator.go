// Package pipeline orchestrates a batch run: file discovery, per-file
// extraction through a bank adapter, normalization into canonical
// records, validation, deduplication and artifact writing. One failing
// file never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abenov/bankstmt/internal/domain/bank"
	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/export"
	"github.com/abenov/bankstmt/internal/domain/metacache"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/fingerprint"
	"github.com/abenov/bankstmt/pkg/money"
)

// Input types a batch can consume. Pages input reads pre-extracted page
// dumps (one RawPage JSON per line) instead of PDFs.
const (
	InputPDF   = "pdf"
	InputPages = "pages"
)

// BatchRequest describes one batch run. InputPath may be a directory
// (walked recursively, Pattern-filtered, lexicographic order) or a single
// file. Bank selects the adapter; there is no content sniffing. InputType
// defaults to PDF.
type BatchRequest struct {
	InputPath  string
	Bank       string
	InputType  string // InputPDF (default) or InputPages
	Pattern    string // default "*.pdf", or "*_pages.jsonl" for pages input
	MonthsBack int    // 0 disables the retention window
	MaxFiles   int    // 0 means no limit
}

// Options tune orchestrator behavior.
type Options struct {
	// Workers bounds cross-file parallelism; values below 1 mean
	// sequential processing.
	Workers int
	// StrictBalance turns a closing balance mismatch from a flag into a
	// per-file failure.
	StrictBalance bool
	// ReportPath enables the XLSX batch summary.
	ReportPath string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Loader opens a statement file. *document.Loader is the production
// implementation.
type Loader interface {
	Load(path string) (*document.Document, error)
}

// Orchestrator runs the statement pipeline. The metadata cache and the
// run-level dedup set are the only shared mutable state; both are
// serialized internally, so files can be processed in parallel.
type Orchestrator struct {
	loader      Loader
	pagesLoader Loader
	cache       *metacache.Store
	writer      *export.Writer
	log         *slog.Logger
	opts        Options
	now         func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

func New(loader Loader, cache *metacache.Store, writer *export.Writer, log *slog.Logger, opts Options) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		loader:      loader,
		pagesLoader: document.NewPagesLoader(),
		cache:       cache,
		writer:      writer,
		log:         log,
		opts:        opts,
		now:         now,
		seen:        make(map[string]struct{}),
	}
}

// resolveInput maps the request's input-type hint to a loader and the
// default discovery pattern.
func (o *Orchestrator) resolveInput(req BatchRequest) (Loader, string, error) {
	pattern := req.Pattern
	switch req.InputType {
	case "", InputPDF:
		if pattern == "" {
			pattern = "*.pdf"
		}
		return o.loader, pattern, nil
	case InputPages:
		if pattern == "" {
			pattern = "*_pages.jsonl"
		}
		return o.pagesLoader, pattern, nil
	default:
		return nil, "", fmt.Errorf("unknown input type %q (supported: %s, %s)", req.InputType, InputPDF, InputPages)
	}
}

// RunBatch processes every discovered file and returns the batch report.
// Per-file failures are recorded in the report; only setup problems
// (unknown adapter, unreadable input path, empty input) return an error.
// Cancelling ctx stops scheduling new files and lets in-flight ones
// finish.
func (o *Orchestrator) RunBatch(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	adapter, err := bank.Resolve(req.Bank)
	if err != nil {
		return nil, err
	}
	loader, pattern, err := o.resolveInput(req)
	if err != nil {
		return nil, err
	}

	files, err := discover(req.InputPath, pattern, req.MaxFiles)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no statement files under %s (pattern %q)", req.InputPath, pattern)
	}

	report := &BatchReport{
		RunID:     uuid.NewString(),
		InputPath: req.InputPath,
		Bank:      req.Bank,
		Started:   o.now(),
	}
	window := Window{MonthsBack: req.MonthsBack, Now: report.Started}

	o.log.Info("batch started",
		slog.String("run_id", report.RunID),
		slog.String("bank", req.Bank),
		slog.Int("files", len(files)),
		slog.Int("months_back", req.MonthsBack))

	o.mu.Lock()
	o.seen = make(map[string]struct{})
	o.mu.Unlock()

	workers := o.opts.Workers
	if workers < 1 {
		workers = 1
	}

	type job struct {
		idx  int
		path string
	}
	outcomes := make([]FileOutcome, len(files))
	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes[j.idx] = o.processFile(loader, adapter, j.path, window)
			}
		}()
	}

dispatch:
	for i, path := range files {
		select {
		case <-ctx.Done():
			o.log.Warn("batch aborted, in-flight files will finish",
				slog.Int("unscheduled", len(files)-i))
			break dispatch
		case jobs <- job{idx: i, path: path}:
		}
	}
	close(jobs)
	wg.Wait()

	for _, oc := range outcomes {
		if oc.Status != "" {
			report.Outcomes = append(report.Outcomes, oc)
		}
	}
	report.Finished = o.now()

	processed, cached, skippedWindow, failed := report.Counts()
	o.log.Info("batch finished",
		slog.String("run_id", report.RunID),
		slog.Int("processed", processed),
		slog.Int("skipped_cached", cached),
		slog.Int("skipped_window", skippedWindow),
		slog.Int("failed", failed))

	if o.opts.ReportPath != "" {
		if err := o.writeReport(report); err != nil {
			o.log.Warn("xlsx report failed", slog.Any("error", err))
		}
	}
	return report, nil
}

// RunFile processes one file outside any batch. The retention window
// does not apply in single-file mode.
func (o *Orchestrator) RunFile(ctx context.Context, bankID, path string) (*FileOutcome, error) {
	adapter, err := bank.Resolve(bankID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := o.processFile(o.loader, adapter, path, Window{})
	return &out, nil
}

// processFile is the per-file state machine. Every exit path yields a
// terminal FileOutcome; errors are captured, never propagated.
func (o *Orchestrator) processFile(loader Loader, adapter bank.Adapter, path string, window Window) FileOutcome {
	failed := FileOutcome{Path: path, Bank: adapter.Bank(), Status: StatusFailed}
	log := o.log.With(slog.String("file", filepath.Base(path)))

	fp, err := fingerprint.File(path)
	if err != nil {
		failed.Err = err
		log.Warn("fingerprint failed", slog.Any("error", err))
		return failed
	}

	if entry, ok := o.cache.Lookup(fp); ok {
		log.Info("already processed, skipping", slog.String("fingerprint", fp[:12]))
		return FileOutcome{
			Path:       path,
			Bank:       entry.Bank,
			Status:     StatusSkippedCached,
			Records:    entry.RecordCount,
			Flags:      entry.ValidationFlags,
			OutputPath: entry.OutputPath,
		}
	}

	doc, err := loader.Load(path)
	if err != nil {
		failed.Err = err
		log.Warn("load failed", slog.Any("error", err))
		return failed
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := o.writer.DumpPages(doc, stem); err != nil {
		// debug artifact only
		log.Warn("pages dump failed", slog.Any("error", err))
	}

	hdr, raws, err := adapter.Extract(doc.Pages)
	if err != nil {
		failed.Err = err
		log.Warn("extraction failed", slog.Any("error", err))
		return failed
	}

	if !window.Contains(hdr.PeriodStart, hdr.PeriodEnd) {
		log.Info("outside retention window",
			slog.Time("period_start", hdr.PeriodStart),
			slog.Time("period_end", hdr.PeriodEnd))
		return FileOutcome{Path: path, Bank: adapter.Bank(), Status: StatusSkippedWindow}
	}

	stmt := normalize(hdr, raws, fp)

	flags, balErr := statement.Validate(stmt)
	flags = append(flags, statement.ValidateDocInfo(doc.Info, hdr.PeriodEnd)...)
	if balErr != nil {
		if o.opts.StrictBalance {
			failed.Err = balErr
			log.Warn("balance mismatch, strict mode fails the file", slog.Any("error", balErr))
			return failed
		}
		log.Warn("balance mismatch", slog.Any("error", balErr))
	}

	outPath, err := o.writer.WriteStatement(stmt, stem)
	if err != nil {
		failed.Err = err
		return failed
	}
	if err := o.writer.WriteCSVArtifacts(stmt, stem); err != nil {
		failed.Err = err
		return failed
	}
	if err := o.writer.AppendRecords(o.dedup(stmt.Records)); err != nil {
		failed.Err = err
		return failed
	}

	if err := o.cache.Record(metacache.Entry{
		Fingerprint:     fp,
		Bank:            adapter.Bank(),
		SourcePath:      path,
		ProcessedAt:     o.now(),
		OutputPath:      outPath,
		RecordCount:     len(stmt.Records),
		ValidationFlags: flags,
	}); err != nil {
		failed.Err = err
		return failed
	}

	log.Info("processed",
		slog.Int("records", len(stmt.Records)),
		slog.Int("flags", len(flags)))
	return FileOutcome{
		Path:       path,
		Bank:       adapter.Bank(),
		Status:     StatusDone,
		Records:    len(stmt.Records),
		Flags:      flags,
		OutputPath: outPath,
	}
}

// normalize turns extracted rows into canonical records: per-currency
// rounding, stable record IDs with a sequence index separating legitimate
// in-statement duplicates.
func normalize(hdr *statement.Header, raws []bank.RawTransaction, fp string) *statement.Statement {
	seq := make(map[string]int)
	records := make([]statement.Record, 0, len(raws))
	for _, raw := range raws {
		amount := money.Round(raw.Amount, hdr.Currency)
		key := fmt.Sprintf("%s|%s|%s|%s",
			hdr.AccountID, raw.Date.Format("2006-01-02"), amount.String(), raw.Description)
		n := seq[key]
		seq[key]++

		records = append(records, statement.Record{
			Bank:              hdr.Bank,
			AccountID:         hdr.AccountID,
			TransactionDate:   statement.Date(raw.Date),
			PostingDate:       statement.DatePtr(raw.PostingDate),
			Amount:            amount,
			Currency:          hdr.Currency,
			Description:       raw.Description,
			RecordID:          statement.DeriveRecordID(hdr.AccountID, raw.Date, amount, raw.Description, n),
			SourceFingerprint: fp,
			SourcePage:        raw.Page,
		})
	}
	return &statement.Statement{Header: *hdr, Records: records}
}

// dedup returns the records not yet seen this run. Overlapping statement
// periods produce identical record IDs, so only the first occurrence
// reaches the shared JSONL stream.
func (o *Orchestrator) dedup(records []statement.Record) []statement.Record {
	o.mu.Lock()
	defer o.mu.Unlock()

	fresh := make([]statement.Record, 0, len(records))
	for _, r := range records {
		if _, dup := o.seen[r.RecordID]; dup {
			continue
		}
		o.seen[r.RecordID] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh
}

func (o *Orchestrator) writeReport(report *BatchReport) error {
	processed, cached, skippedWindow, failed := report.Counts()
	sum := export.ReportSummary{
		RunID:         report.RunID,
		InputPath:     report.InputPath,
		Started:       report.Started,
		Finished:      report.Finished,
		Processed:     processed,
		SkippedCached: cached,
		SkippedWindow: skippedWindow,
		Failed:        failed,
	}
	rows := make([]export.ReportRow, len(report.Outcomes))
	for i, oc := range report.Outcomes {
		row := export.ReportRow{
			File:    filepath.Base(oc.Path),
			Bank:    oc.Bank,
			Status:  string(oc.Status),
			Records: oc.Records,
			Flags:   oc.Flags,
		}
		if oc.Err != nil {
			row.Error = oc.Err.Error()
		}
		rows[i] = row
	}
	return export.WriteXLSXReport(o.opts.ReportPath, sum, rows)
}

// discover lists the input files in deterministic lexicographic order.
func discover(input, pattern string, maxFiles int) ([]string, error) {
	if pattern == "" {
		pattern = "*.pdf"
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var files []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}
	return files, nil
}
