package domain

import "fmt"

// GapResolutionChannel enumerates the channels a GapResolution may select.
// Adding a channel requires: (a) a new constant here, (b) a matching entry
// in the gap resolver's adapter registry, (c) optional Analyst prompt
// guidance — see internal/gapresolve.
type GapResolutionChannel string

const (
	ChannelLLMKnowledge   GapResolutionChannel = "LLM_KNOWLEDGE"
	ChannelWebSearch      GapResolutionChannel = "WEB_SEARCH"
	ChannelInternalSearch GapResolutionChannel = "INTERNAL_SEARCH"
	ChannelWikipedia      GapResolutionChannel = "WIKIPEDIA"
	ChannelStockTW        GapResolutionChannel = "STOCK_TW"
	ChannelStockGlobal    GapResolutionChannel = "STOCK_GLOBAL"
	ChannelWeatherTW      GapResolutionChannel = "WEATHER_TW"
	ChannelWeatherGlobal  GapResolutionChannel = "WEATHER_GLOBAL"
	ChannelCompanyTW      GapResolutionChannel = "COMPANY_TW"
	ChannelCompanyGlobal  GapResolutionChannel = "COMPANY_GLOBAL"
)

// GapResolution is a single Analyst-declared information gap paired with a
// channel selected to fill it.
type GapResolution struct {
	GapType      string                `json:"gap_type"`
	Resolution   GapResolutionChannel  `json:"resolution"`
	Reason       string                `json:"reason"`
	SearchQuery  string                `json:"search_query,omitempty"`
	LLMAnswer    string                `json:"llm_answer,omitempty"`
	APIParams    map[string]string     `json:"api_params,omitempty"`
}

// ClarificationType classifies the kind of ambiguity a question addresses.
type ClarificationType string

const (
	ClarifyTime   ClarificationType = "time"
	ClarifyScope  ClarificationType = "scope"
	ClarifyEntity ClarificationType = "entity"
)

// TimeRange binds a clarification option to a concrete temporal scope.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ClarificationOption is one of the 2-5 choices offered for a question.
type ClarificationOption struct {
	ID               string     `json:"id"`
	Label            string     `json:"label"`
	QueryModifier    string     `json:"query_modifier"`
	IsComprehensive  bool       `json:"is_comprehensive"`
	TimeRange        *TimeRange `json:"time_range,omitempty"`
}

// ClarificationQuestion is one of the 1-3 questions in a ClarificationRequest.
type ClarificationQuestion struct {
	QuestionID         string                 `json:"question_id"`
	Question           string                 `json:"question"`
	ClarificationType  ClarificationType       `json:"clarification_type"`
	Required           bool                   `json:"required"`
	Options            []ClarificationOption  `json:"options"`
}

// ClarificationRequest is offered to the caller before research begins when
// the query is ambiguous enough to warrant disambiguation.
type ClarificationRequest struct {
	Instruction string                   `json:"instruction"`
	SubmitLabel string                   `json:"submit_label"`
	Questions   []ClarificationQuestion  `json:"questions"`
}

// ResolvedSource pairs a gap-adapter's CandidateSource with the category it
// already knows (the filter only needs to force its tier to 6, not
// reclassify it from the publisher table).
type ResolvedSource struct {
	CandidateSource CandidateSource
	Category        SourceCategory
}

// Validate enforces the 1-3 questions / 2-5 options-per-question bounds the
// spec places on a ClarificationRequest.
func (r ClarificationRequest) Validate() error {
	if len(r.Questions) < 1 || len(r.Questions) > 3 {
		return fmt.Errorf("clarification request: must have 1-3 questions, got %d", len(r.Questions))
	}
	for _, q := range r.Questions {
		if len(q.Options) < 2 || len(q.Options) > 5 {
			return fmt.Errorf("clarification request: question %q must have 2-5 options, got %d", q.QuestionID, len(q.Options))
		}
	}
	return nil
}
