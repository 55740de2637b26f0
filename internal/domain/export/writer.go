// Package export writes the pipeline's output artifacts: the canonical
// per-statement JSON, the append-only JSONL record stream, per-statement
// CSV files, the raw pages debug dump, and the XLSX batch report.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/statement"
)

const dateLayout = "2006-01-02"

// Writer persists statement artifacts. JSONLPath, CSVDir and PagesDumpDir
// are optional; empty values disable the corresponding artifact.
type Writer struct {
	OutDir       string
	JSONLPath    string
	CSVDir       string
	PagesDumpDir string

	log *slog.Logger
}

// NewWriter returns a Writer rooted at outDir.
func NewWriter(outDir string, log *slog.Logger) *Writer {
	return &Writer{OutDir: outDir, log: log}
}

// statementDoc is the canonical per-statement JSON artifact.
type statementDoc struct {
	Header  statement.Header   `json:"header"`
	Records []statement.Record `json:"records"`
}

// WriteStatement writes <stem>.json atomically and returns its path.
// A crash mid-write leaves no partial artifact behind: the temp file is
// renamed into place only after a full write.
func (w *Writer) WriteStatement(stmt *statement.Statement, stem string) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	doc := statementDoc{Header: stmt.Header, Records: stmt.Records}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode statement %s: %w", stem, err)
	}

	path := filepath.Join(w.OutDir, stem+".json")
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	w.log.Info("statement written",
		slog.String("path", path),
		slog.Int("records", len(stmt.Records)))
	return path, nil
}

// AppendRecords appends each record as one JSON line to the shared JSONL
// stream. No-op when the stream is not configured.
func (w *Writer) AppendRecords(records []statement.Record) error {
	if w.JSONLPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.JSONLPath), 0o755); err != nil {
		return fmt.Errorf("create jsonl dir: %w", err)
	}

	f, err := os.OpenFile(w.JSONLPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open jsonl stream: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("append record %s: %w", r.RecordID, err)
		}
	}
	return nil
}

// csvTxRow flattens a record for the per-statement transaction CSV.
type csvTxRow struct {
	Date        string `csv:"date"`
	PostingDate string `csv:"posting_date"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Description string `csv:"description"`
	RecordID    string `csv:"record_id"`
	Page        int    `csv:"page"`
}

type csvHeaderRow struct {
	Bank           string `csv:"bank"`
	AccountID      string `csv:"account_id"`
	Currency       string `csv:"currency"`
	PeriodStart    string `csv:"period_start"`
	PeriodEnd      string `csv:"period_end"`
	OpeningBalance string `csv:"opening_balance"`
	ClosingBalance string `csv:"closing_balance"`
}

// WriteCSVArtifacts writes <stem>_tx.csv and <stem>_header.csv. No-op
// when the CSV dir is not configured.
func (w *Writer) WriteCSVArtifacts(stmt *statement.Statement, stem string) error {
	if w.CSVDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.CSVDir, 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}

	txRows := make([]csvTxRow, len(stmt.Records))
	for i, r := range stmt.Records {
		row := csvTxRow{
			Date:        r.TransactionDate.Format(dateLayout),
			Amount:      r.Amount.String(),
			Currency:    r.Currency,
			Description: r.Description,
			RecordID:    r.RecordID,
			Page:        r.SourcePage,
		}
		if r.PostingDate != nil {
			row.PostingDate = r.PostingDate.Format(dateLayout)
		}
		txRows[i] = row
	}

	hdrRows := []csvHeaderRow{{
		Bank:           stmt.Header.Bank,
		AccountID:      stmt.Header.AccountID,
		Currency:       stmt.Header.Currency,
		PeriodStart:    stmt.Header.PeriodStart.Format(dateLayout),
		PeriodEnd:      stmt.Header.PeriodEnd.Format(dateLayout),
		OpeningBalance: stmt.Header.OpeningBalance.String(),
		ClosingBalance: stmt.Header.ClosingBalance.String(),
	}}

	if err := marshalCSV(filepath.Join(w.CSVDir, stem+"_tx.csv"), &txRows); err != nil {
		return err
	}
	return marshalCSV(filepath.Join(w.CSVDir, stem+"_header.csv"), &hdrRows)
}

func marshalCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DumpPages writes <stem>_pages.jsonl, one raw page per line, for layout
// debugging. No-op when the dump dir is not configured.
func (w *Writer) DumpPages(doc *document.Document, stem string) error {
	if w.PagesDumpDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.PagesDumpDir, 0o755); err != nil {
		return fmt.Errorf("create pages dump dir: %w", err)
	}

	f, err := os.Create(filepath.Join(w.PagesDumpDir, stem+"_pages.jsonl"))
	if err != nil {
		return fmt.Errorf("create pages dump: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, p := range doc.Pages {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("dump page %d: %w", p.Number, err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}
