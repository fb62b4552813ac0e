package domain

// Mode is the research policy selector controlling filter admission and
// Critic audit emphasis.
type Mode string

const (
	ModeStrict    Mode = "strict"
	ModeDiscovery Mode = "discovery"
	ModeMonitor   Mode = "monitor"
)

// TemporalHint carries an optional, pre-resolved time constraint for the
// session, typically produced by the upstream time-range extractor or by a
// clarification round-trip.
type TemporalHint struct {
	Start      string
	End        string
	Confidence float64
}

// ResearchSession is transient per-query state. It is created when a
// request starts and discarded when the session completes or errors; no
// session holds a reference that outlives its own lifetime, and no state is
// shared across sessions.
type ResearchSession struct {
	TraceID            string
	QueryID            string
	Query              string
	Mode               Mode
	TemporalHint       *TemporalHint
	SourceMap          *SourceMap
	FormattedContext   string
	Iteration          int
	RejectCount        int
	LastDraft          *AnalystOutput
	LastReview         *CriticOutput
	SkipClarification  bool
	Warnings           []string

	// lastNewQueries/lastGapAdmittedCount track consecutive SEARCH_REQUIRED
	// rounds with identical queries and zero new admissions, to satisfy the
	// "no new data" system hint invariant.
	lastNewQueries        []string
	lastGapAdmittedCount  int
}

// AddWarning appends a warning if it is not already present.
func (s *ResearchSession) AddWarning(w string) {
	for _, existing := range s.Warnings {
		if existing == w {
			return
		}
	}
	s.Warnings = append(s.Warnings, w)
}

// RepeatedEmptySearch reports whether the Analyst has twice requested the
// same new_queries with no new sources admitted in between, the trigger for
// the "no new data" system hint nudging it toward DRAFT_READY.
func (s *ResearchSession) RepeatedEmptySearch(newQueries []string, admittedThisRound int) bool {
	repeated := admittedThisRound == 0 && s.lastGapAdmittedCount == 0 && sameStrings(s.lastNewQueries, newQueries) && len(newQueries) > 0
	s.lastNewQueries = newQueries
	s.lastGapAdmittedCount = admittedThisRound
	return repeated
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
