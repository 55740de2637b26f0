package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all pipeline configuration.
type Config struct {
	Input   InputConfig
	Output  OutputConfig
	Run     RunConfig
	Logging LoggingConfig
}

// InputConfig selects the statements to process.
type InputConfig struct {
	Path       string // directory or single file
	Bank       string // adapter identifier, e.g. kaspi_gold
	Type       string // "pdf" or "pages" (pre-extracted page dumps)
	Pattern    string // glob applied to file names inside a directory
	MonthsBack int    // look-back window; 0 disables period filtering
	MaxFiles   int    // 0 = no limit
}

// OutputConfig sets the output locations. OutDir is required; the others
// enable optional artifacts when non-empty.
type OutputConfig struct {
	OutDir       string // canonical per-statement JSON artifacts
	JSONLDir     string // append-only transaction stream
	MetaDir      string // statement metadata cache
	CSVDir       string // per-statement CSV artifacts
	PagesDumpDir string // raw page dumps for layout debugging
	ReportPath   string // XLSX batch summary
}

// RunConfig tunes batch execution.
type RunConfig struct {
	Workers       int  // cross-file parallelism; <=1 means sequential
	StrictBalance bool // treat a balance mismatch as a per-file failure
}

type LoggingConfig struct {
	Verbose bool
}

// Load reads configuration from environment variables. Input path and bank
// may also come from command line flags, so they are not validated here;
// output defaults derive from the input path the way the original batch
// tooling did (<input>_out next to the input directory).
func Load() (*Config, error) {
	// a .env file is optional; real environment variables win
	_ = godotenv.Load()

	input := getEnv("BANKSTMT_INPUT", "")

	cfg := &Config{
		Input: InputConfig{
			Path:       input,
			Bank:       getEnv("BANKSTMT_BANK", ""),
			Type:       getEnv("BANKSTMT_INPUT_TYPE", "pdf"),
			Pattern:    getEnv("BANKSTMT_PATTERN", ""),
			MonthsBack: getEnvAsInt("BANKSTMT_MONTHS_BACK", 12),
			MaxFiles:   getEnvAsInt("BANKSTMT_MAX_FILES", 0),
		},
		Output: OutputConfig{
			OutDir:       getEnv("BANKSTMT_OUT_DIR", ""),
			JSONLDir:     getEnv("BANKSTMT_JSONL_DIR", ""),
			MetaDir:      getEnv("BANKSTMT_META_DIR", ""),
			CSVDir:       getEnv("BANKSTMT_CSV_DIR", ""),
			PagesDumpDir: getEnv("BANKSTMT_PAGES_DIR", ""),
			ReportPath:   getEnv("BANKSTMT_REPORT", ""),
		},
		Run: RunConfig{
			Workers:       getEnvAsInt("BANKSTMT_WORKERS", 1),
			StrictBalance: getEnvAsBool("BANKSTMT_STRICT_BALANCE", false),
		},
		Logging: LoggingConfig{
			Verbose: getEnvAsBool("BANKSTMT_VERBOSE", false),
		},
	}

	if cfg.Input.MonthsBack < 0 {
		return nil, fmt.Errorf("BANKSTMT_MONTHS_BACK must not be negative")
	}

	return cfg, nil
}

// DefaultOutDir is <base>_out next to the input directory, matching the
// layout the batch tooling has always produced.
func DefaultOutDir(input string) string {
	base := filepath.Base(filepath.Clean(input))
	return filepath.Join(filepath.Dir(filepath.Clean(input)), base+"_out")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
