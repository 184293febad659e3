// Package syncrun records the audit trail for ingestion runs. Every sync
// opens a data_sync_runs row before the first fetch and closes it exactly
// once with final status, counters, and a bounded error sample. The closed
// row is the single source of truth for what a run did.
package syncrun

import "fmt"

// maxSampledErrors bounds the per-record error sample persisted in the run's
// metadata. The full error stream still goes to the log.
const maxSampledErrors = 10

// Stats tracks counters for one sync run. Inserted + Failed never exceeds
// Fetched: a record is tallied once, as success or failure.
type Stats struct {
	Fetched  int
	Inserted int
	Updated  int
	Failed   int
	Errors   []string
}

// AddError counts a failed record and keeps its message while the sample has
// room.
func (s *Stats) AddError(msg string) {
	s.Failed++
	if len(s.Errors) < maxSampledErrors {
		s.Errors = append(s.Errors, msg)
	}
}

// AddErrorf is AddError with formatting.
func (s *Stats) AddErrorf(format string, args ...any) {
	s.AddError(fmt.Sprintf(format, args...))
}

// Summary returns a one-line human-readable summary.
func (s *Stats) Summary() string {
	return fmt.Sprintf("fetched=%d inserted=%d updated=%d failed=%d",
		s.Fetched, s.Inserted, s.Updated, s.Failed)
}
