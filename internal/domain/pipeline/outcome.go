package pipeline

import "time"

// Status is the terminal state of one file's processing.
type Status string

const (
	StatusDone          Status = "done"
	StatusSkippedCached Status = "skipped_cached"
	StatusSkippedWindow Status = "skipped_window"
	StatusFailed        Status = "failed"
)

// FileOutcome is the per-file result collected by the batch run. Err is
// set only for StatusFailed.
type FileOutcome struct {
	Path       string
	Bank       string
	Status     Status
	Records    int
	Flags      []string
	OutputPath string
	Err        error
}

// Exit codes for the batch as a whole.
const (
	ExitSuccess        = 0
	ExitPartialFailure = 1
	ExitTotalFailure   = 2
)

// BatchReport summarizes one batch run.
type BatchReport struct {
	RunID     string
	InputPath string
	Bank      string
	Started   time.Time
	Finished  time.Time
	Outcomes  []FileOutcome
}

// Counts tallies outcomes by status.
func (r *BatchReport) Counts() (processed, cached, window, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusDone:
			processed++
		case StatusSkippedCached:
			cached++
		case StatusSkippedWindow:
			window++
		case StatusFailed:
			failed++
		}
	}
	return
}

// ExitCode maps the run to a process exit code: every file failed means
// total failure, any failure among successes means partial failure.
func (r *BatchReport) ExitCode() int {
	_, _, _, failed := r.Counts()
	switch {
	case failed == 0:
		return ExitSuccess
	case failed == len(r.Outcomes):
		return ExitTotalFailure
	default:
		return ExitPartialFailure
	}
}
