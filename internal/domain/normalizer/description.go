package normalizer

import "strings"

// CleanDescription trims a description cell and collapses internal runs of
// whitespace to single spaces.
func CleanDescription(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// JoinWrapped merges the fragments of a description that a narrow table
// cell wrapped across several physical lines, preserving fragment order.
func JoinWrapped(fragments []string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if cleaned := CleanDescription(f); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}
