package ingestion

import (
	"fmt"
	"time"
)

// Outcome is the result of processing one folder.
type Outcome int

const (
	// OutcomeProcessed means the row was inserted and the marker written.
	OutcomeProcessed Outcome = iota
	// OutcomeAlreadyProcessed means the folder carried a marker; nothing was inserted.
	OutcomeAlreadyProcessed
	// OutcomeMissingArtifact means a required artifact was absent; the folder stays eligible.
	OutcomeMissingArtifact
	// OutcomeFailed means loading or inserting failed; the folder stays eligible.
	OutcomeFailed
	// OutcomeWithdrawnSkipped means the complaint was withdrawn and the policy skips it.
	OutcomeWithdrawnSkipped
	// OutcomeClaimed means another run holds the folder's claim.
	OutcomeClaimed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeAlreadyProcessed:
		return "already_processed"
	case OutcomeMissingArtifact:
		return "missing_artifact"
	case OutcomeFailed:
		return "failed"
	case OutcomeWithdrawnSkipped:
		return "withdrawn_skipped"
	case OutcomeClaimed:
		return "claimed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// WithdrawnPolicy decides whether withdrawn complaints are published.
type WithdrawnPolicy int

const (
	// PublishWithdrawn publishes withdrawn complaints like any other and logs a warning.
	PublishWithdrawn WithdrawnPolicy = iota
	// SkipWithdrawn leaves withdrawn complaints unpublished and unmarked.
	SkipWithdrawn
)

// Summary counts the outcomes of a run.
type Summary struct {
	Discovered       int
	Processed        int
	AlreadyProcessed int
	MissingArtifacts int
	Failed           int
	Skipped          int // withdrawn or claimed by another run
	Elapsed          time.Duration
}

func (s *Summary) record(o Outcome) {
	switch o {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeAlreadyProcessed:
		s.AlreadyProcessed++
	case OutcomeMissingArtifact:
		s.MissingArtifacts++
	case OutcomeFailed:
		s.Failed++
	case OutcomeWithdrawnSkipped, OutcomeClaimed:
		s.Skipped++
	}
}
