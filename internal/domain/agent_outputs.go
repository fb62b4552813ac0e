package domain

import "fmt"

// AnalystStatus is the Analyst's verdict on whether a draft is ready.
type AnalystStatus string

const (
	AnalystDraftReady     AnalystStatus = "DRAFT_READY"
	AnalystSearchRequired AnalystStatus = "SEARCH_REQUIRED"
)

// ReasoningMode labels which inference style the Analyst used for a draft.
type ReasoningMode string

const (
	ReasoningDeductive  ReasoningMode = "deductive"
	ReasoningInductive  ReasoningMode = "inductive"
	ReasoningAbductive  ReasoningMode = "abductive"
)

// AnalystOutput is the structured, schema-validated result of an Analyst call.
type AnalystOutput struct {
	Status             AnalystStatus   `json:"status"`
	Draft              string          `json:"draft"`
	ReasoningChain      string          `json:"reasoning_chain"`
	ReasoningMode      ReasoningMode   `json:"reasoning_mode"`
	CitationsUsed      []int           `json:"citations_used"`
	MissingInformation []string        `json:"missing_information"`
	NewQueries         []string        `json:"new_queries"`
	GapResolutions     []GapResolution `json:"gap_resolutions,omitempty"`
}

// Validate enforces the AnalystOutput schema contract beyond field types:
// status must be one of the two known values, and SEARCH_REQUIRED drafts
// must name at least one missing-information item.
func (o AnalystOutput) Validate() error {
	switch o.Status {
	case AnalystDraftReady, AnalystSearchRequired:
	default:
		return fmt.Errorf("analyst output: unknown status %q", o.Status)
	}
	if o.Status == AnalystSearchRequired && len(o.MissingInformation) == 0 {
		return fmt.Errorf("analyst output: SEARCH_REQUIRED with no missing_information")
	}
	return nil
}

// CriticStatus is the Critic's verdict on an Analyst draft.
type CriticStatus string

const (
	CriticPass   CriticStatus = "PASS"
	CriticWarn   CriticStatus = "WARN"
	CriticReject CriticStatus = "REJECT"
)

// ModeCompliance records whether the draft respected the mode's admission
// rules.
type ModeCompliance string

const (
	ModeCompliant    ModeCompliance = "符合"
	ModeNonCompliant ModeCompliance = "違反"
)

// CriticOutput is the structured result of a Critic review.
type CriticOutput struct {
	Status         CriticStatus   `json:"status"`
	Critique       string         `json:"critique"`
	Suggestions    []string       `json:"suggestions"`
	ModeCompliance ModeCompliance `json:"mode_compliance"`
	LogicalGaps    []string       `json:"logical_gaps"`
	SourceIssues   []string       `json:"source_issues"`
}

// Validate enforces the CriticOutput schema contract: status and
// mode_compliance must be known enum members.
func (o CriticOutput) Validate() error {
	switch o.Status {
	case CriticPass, CriticWarn, CriticReject:
	default:
		return fmt.Errorf("critic output: unknown status %q", o.Status)
	}
	switch o.ModeCompliance {
	case ModeCompliant, ModeNonCompliant, "":
	default:
		return fmt.Errorf("critic output: unknown mode_compliance %q", o.ModeCompliance)
	}
	return nil
}

// ConfidenceLevel is the Writer's self-assessed confidence in the report.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// WriterOutput is the structured result of a Writer composition.
type WriterOutput struct {
	FinalReport      string          `json:"final_report"`
	SourcesUsed      []int           `json:"sources_used"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level"`
	MethodologyNote  string          `json:"methodology_note"`
}

// Validate enforces the WriterOutput schema contract: a report body and at
// least a provisional confidence level are both required. The subset
// invariant against the Analyst's citations_used (the hallucination guard)
// is checked by the orchestrator, which has access to both outputs.
func (o WriterOutput) Validate() error {
	if o.FinalReport == "" {
		return fmt.Errorf("writer output: empty final_report")
	}
	switch o.ConfidenceLevel {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return fmt.Errorf("writer output: unknown confidence_level %q", o.ConfidenceLevel)
	}
	return nil
}
