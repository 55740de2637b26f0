// Command bankstmt converts directories of bank statement PDFs into
// canonical transaction records. Flags override the BANKSTMT_* environment
// configuration; the exit code reports batch health (0 success, 1 partial
// failure, 2 total failure).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/abenov/bankstmt/internal/domain/bank"
	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/export"
	"github.com/abenov/bankstmt/internal/domain/metacache"
	"github.com/abenov/bankstmt/internal/domain/pipeline"
	"github.com/abenov/bankstmt/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	flag.StringVar(&cfg.Input.Path, "input", cfg.Input.Path, "statement PDF file or directory")
	flag.StringVar(&cfg.Input.Bank, "bank", cfg.Input.Bank,
		"bank adapter: "+strings.Join(bank.IDs(), ", "))
	flag.StringVar(&cfg.Input.Type, "input-type", cfg.Input.Type,
		"input type: "+pipeline.InputPDF+" or "+pipeline.InputPages+" (pre-extracted page dumps)")
	flag.StringVar(&cfg.Input.Pattern, "pattern", cfg.Input.Pattern, "file glob inside the input directory")
	flag.IntVar(&cfg.Input.MonthsBack, "months-back", cfg.Input.MonthsBack, "retention window in months, 0 disables")
	flag.IntVar(&cfg.Input.MaxFiles, "max-files", cfg.Input.MaxFiles, "limit the number of files, 0 means all")
	flag.StringVar(&cfg.Output.OutDir, "out-dir", cfg.Output.OutDir, "output directory (default <input>_out)")
	flag.StringVar(&cfg.Output.JSONLDir, "jsonl-dir", cfg.Output.JSONLDir, "enable the append-only JSONL record stream in this directory")
	flag.StringVar(&cfg.Output.MetaDir, "meta-dir", cfg.Output.MetaDir, "metadata cache directory (default <out-dir>/meta)")
	flag.StringVar(&cfg.Output.CSVDir, "csv-dir", cfg.Output.CSVDir, "enable per-statement CSV artifacts in this directory")
	flag.StringVar(&cfg.Output.PagesDumpDir, "pages-dir", cfg.Output.PagesDumpDir, "enable raw page dumps in this directory")
	flag.StringVar(&cfg.Output.ReportPath, "report", cfg.Output.ReportPath, "enable the XLSX batch report at this path")
	flag.IntVar(&cfg.Run.Workers, "workers", cfg.Run.Workers, "cross-file parallelism")
	flag.BoolVar(&cfg.Run.StrictBalance, "strict-balance", cfg.Run.StrictBalance, "fail files whose ledger does not close")
	flag.BoolVar(&cfg.Logging.Verbose, "v", cfg.Logging.Verbose, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.Logging.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.Input.Path == "" || cfg.Input.Bank == "" {
		fmt.Fprintln(os.Stderr, "usage: bankstmt -bank <id> -input <path> [flags]")
		flag.PrintDefaults()
		return 2
	}
	if cfg.Output.OutDir == "" {
		cfg.Output.OutDir = config.DefaultOutDir(cfg.Input.Path)
	}
	if cfg.Output.MetaDir == "" {
		cfg.Output.MetaDir = filepath.Join(cfg.Output.OutDir, "meta")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := metacache.Load(cfg.Output.MetaDir, log)
	if err != nil {
		log.Error("metadata cache unusable", slog.Any("error", err))
		return 2
	}

	writer := export.NewWriter(cfg.Output.OutDir, log)
	if cfg.Output.JSONLDir != "" {
		writer.JSONLPath = filepath.Join(cfg.Output.JSONLDir, "records.jsonl")
	}
	writer.CSVDir = cfg.Output.CSVDir
	writer.PagesDumpDir = cfg.Output.PagesDumpDir

	orch := pipeline.New(document.NewLoader(), cache, writer, log, pipeline.Options{
		Workers:       cfg.Run.Workers,
		StrictBalance: cfg.Run.StrictBalance,
		ReportPath:    cfg.Output.ReportPath,
	})

	report, err := orch.RunBatch(ctx, pipeline.BatchRequest{
		InputPath:  cfg.Input.Path,
		Bank:       cfg.Input.Bank,
		InputType:  cfg.Input.Type,
		Pattern:    cfg.Input.Pattern,
		MonthsBack: cfg.Input.MonthsBack,
		MaxFiles:   cfg.Input.MaxFiles,
	})
	if err != nil {
		log.Error("batch run failed", slog.Any("error", err))
		return 2
	}

	for _, oc := range report.Outcomes {
		if oc.Status == pipeline.StatusFailed {
			log.Warn("failed file",
				slog.String("file", filepath.Base(oc.Path)),
				slog.Any("error", oc.Err))
		}
	}
	return report.ExitCode()
}
