// Package normalizer turns raw statement field strings into canonical types.
// Every function here is pure: same input, same output, no I/O.
package normalizer

import (
	"fmt"
	"strings"
	"time"
)

// DateParseError reports a raw date that matched none of the configured
// formats. The pipeline never guesses a date.
type DateParseError struct {
	Raw     string
	Formats []string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("date %q matches none of %v", e.Raw, e.Formats)
}

// Date format sets used by the supported banks. Kaspi prints two-digit
// years; Halyk and Forte print four.
var (
	KaspiDateFormats = []string{"02.01.06"}
	HalykDateFormats = []string{"02.01.2006"}
	ForteDateFormats = []string{"02.01.2006", "02.01.06"}
)

// ParseDate parses a raw date against an ordered list of Go layouts and
// returns the first match. Formats must be configured per bank; an empty
// list always fails.
func ParseDate(raw string, formats []string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &DateParseError{Raw: raw, Formats: formats}
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateParseError{Raw: raw, Formats: formats}
}
