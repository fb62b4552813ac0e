// Package orchestrator implements the reasoning core's control loop: mode
// detection, optional clarification, source-tier filtering, context
// building, the bounded Actor-Critic (Analyst/Critic) loop with gap
// resolution, Writer composition, and the Hallucination Guard.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperifyio/reasoncore/internal/agents"
	"github.com/hyperifyio/reasoncore/internal/budget"
	"github.com/hyperifyio/reasoncore/internal/citecheck"
	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/contextbuilder"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
	"github.com/hyperifyio/reasoncore/internal/modedetect"
	"github.com/hyperifyio/reasoncore/internal/ports"
	"github.com/hyperifyio/reasoncore/internal/tierfilter"
	"github.com/hyperifyio/reasoncore/internal/tracer"
)

// lowConfidenceThreshold is the upstream temporal-extraction confidence
// below which the orchestrator treats a query as ambiguous enough to offer
// clarification.
const lowConfidenceThreshold = 0.5

// Deps bundles every collaborator the Orchestrator needs. The upstream
// Retriever is not a field here: the core reaches it only through the
// INTERNAL_SEARCH adapter inside Dispatcher.
type Deps struct {
	Analyst       agents.Analyst
	Critic        agents.Critic
	Writer        agents.Writer
	Clarifier     agents.Clarification
	Dispatcher    *gapresolve.Dispatcher
	TimeExtractor ports.TimeRangeExtractor
	Progress      ports.ProgressSink
	Analytics     ports.AnalyticsSink
	Logger        *tracer.IterationLogger
	Models        llmclient.ModelSelector
}

// Orchestrator runs one or more research sessions against a shared,
// read-only Config and a fixed set of collaborators.
type Orchestrator struct {
	cfg  config.Config
	deps Deps
}

// New constructs an Orchestrator. A nil Progress defaults to a no-op sink so
// callers never need a nil check of their own.
func New(cfg config.Config, deps Deps) *Orchestrator {
	if deps.Progress == nil {
		deps.Progress = tracer.NoopProgressSink{}
	}
	return &Orchestrator{cfg: cfg, deps: deps}
}

// RunRequest is one invocation of the control loop.
type RunRequest struct {
	TraceID           string
	QueryID           string
	Query             string
	Mode              domain.Mode // empty triggers mode-detection
	Candidates        []domain.CandidateSource
	TemporalHint      *domain.TemporalHint
	SkipClarification bool
}

// Outcome is exactly one of Clarification (research paused, awaiting a
// client answer) or Report (research completed, possibly degraded).
type Outcome struct {
	Clarification *domain.ClarificationRequest
	Report        *domain.ResearchReport
}

var stageFractions = map[string]float64{
	"clarification_required": 0.0,
	"analyst_analyzing":      0.10,
	"analyst_complete":       0.30,
	"gap_search_started":     0.35,
	"critic_reviewing":       0.50,
	"critic_complete":        0.65,
	"writer_planning":        0.80,
	"writer_composing":       0.90,
	"writer_complete":        1.00,
}

// RunResearch drives one session end to end through the Analyst/Critic/
// Writer state machine. iteration is the session's 1-based counter across Analyst
// invocations, including SEARCH_REQUIRED retries and Critic-driven
// revisions; it never exceeds cfg.Reasoning.MaxIterations.
func (o *Orchestrator) RunResearch(ctx context.Context, req RunRequest) (Outcome, error) {
	mode := modedetect.Resolve(o.cfg, req.Mode, req.Query)
	sess := &domain.ResearchSession{
		TraceID:           req.TraceID,
		QueryID:           req.QueryID,
		Query:             req.Query,
		Mode:              mode,
		TemporalHint:      req.TemporalHint,
		SourceMap:         domain.NewSourceMap(),
		SkipClarification: req.SkipClarification,
	}

	if !sess.SkipClarification {
		if hint, needs := o.needsClarification(ctx, req); needs {
			creq, err := o.deps.Clarifier.Ask(ctx, req.Query, hint)
			if err == nil {
				o.emit(sess, "clarification_required", "請提供釐清選項以縮小研究範圍")
				return Outcome{Clarification: &creq}, nil
			}
			sess.AddWarning("clarification step failed after retries; proceeding without disambiguation")
		}
	}

	filtered, err := tierfilter.Filter(o.cfg, req.Candidates, mode)
	if err != nil {
		o.logSummary(sess, nil)
		return Outcome{}, err
	}
	sess.SourceMap.AppendAll(filtered.Admitted)
	for _, w := range filtered.Warnings {
		sess.AddWarning(w)
	}

	sess.FormattedContext = o.buildContext(sess)

	outcome, err := o.runLoop(ctx, sess)
	o.logSummary(sess, outcome.Report)
	return outcome, err
}

func (o *Orchestrator) needsClarification(ctx context.Context, req RunRequest) (ports.TimeRangeExtraction, bool) {
	var hint ports.TimeRangeExtraction
	ambiguous := modedetect.IsAmbiguous(o.cfg, req.Query)
	lowConfidence := false
	if o.deps.TimeExtractor != nil {
		h, err := o.deps.TimeExtractor.ExtractTimeRange(ctx, req.Query)
		if err != nil {
			lowConfidence = true
		} else {
			hint = h
			lowConfidence = h.Confidence < lowConfidenceThreshold
		}
	}
	return hint, ambiguous || lowConfidence
}

// runLoop is the Actor-Critic convergence loop plus the Writer/Guard tail.
func (o *Orchestrator) runLoop(ctx context.Context, sess *domain.ResearchSession) (Outcome, error) {
	maxIter := o.cfg.Reasoning.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}
	maxRejects := o.cfg.Reasoning.MaxRejects
	if maxRejects <= 0 {
		maxRejects = maxIter
	}

	degrade := false
	review := domain.CriticOutput{Status: domain.CriticWarn}

iterationLoop:
	for iteration := 1; iteration <= maxIter; iteration++ {
		sess.Iteration = iteration

		o.emit(sess, "analyst_analyzing", "分析師正在研究可用來源")
		start := time.Now()
		draft, err := o.deps.Analyst.Draft(ctx, sess)
		o.logAnalytics("analyst", time.Since(start), nil)
		o.logIteration(sess, "analyst", draft)
		if err != nil {
			return o.bestEffortOutcome(sess, err)
		}
		sess.LastDraft = &draft
		o.emit(sess, "analyst_complete", "分析師已完成本輪分析")

		if draft.Status == domain.AnalystSearchRequired {
			if iteration == maxIter {
				degrade = true
				sess.AddWarning("iteration cap reached while the analyst still required additional search")
				break iterationLoop
			}
			o.emit(sess, "gap_search_started", "正在透過補充管道搜尋缺口資訊")
			resolved, admittedCount := o.deps.Dispatcher.Resolve(ctx, draft.GapResolutions)
			sess.SourceMap.AppendAll(tierfilter.AdmitResolved(resolved))
			if admittedCount == 0 {
				sess.AddWarning("補充搜尋未發現有效結果 — 基於現有資訊推論")
			}
			if sess.RepeatedEmptySearch(draft.NewQueries, admittedCount) {
				sess.AddWarning("系統提示：重複的搜尋請求未取得新資料，請直接根據現有來源產出 DRAFT_READY。")
			}
			sess.FormattedContext = o.buildContext(sess)
			continue iterationLoop
		}

		o.emit(sess, "critic_reviewing", "審查員正在稽核草稿")
		start = time.Now()
		criticOut, err := o.deps.Critic.Review(ctx, sess, draft)
		o.logAnalytics("critic", time.Since(start), nil)
		o.logIteration(sess, "critic", criticOut)
		if err != nil {
			sess.AddWarning("critic review failed after retries; proceeding to writer without a fresh audit")
			break iterationLoop
		}
		sess.LastReview = &criticOut
		review = criticOut
		o.emit(sess, "critic_complete", "審查員已完成稽核")

		switch criticOut.Status {
		case domain.CriticPass, domain.CriticWarn:
			break iterationLoop
		case domain.CriticReject:
			sess.RejectCount++
			if sess.RejectCount >= maxRejects || iteration == maxIter {
				degrade = true
				break iterationLoop
			}
			// else: loop again, Analyst.Draft reads sess.LastReview to revise.
		}
	}

	if degrade {
		review.Critique = "（已達迭代上限，仍有未解決的審查意見）" + review.Critique
		sess.AddWarning("Max iterations reached with unresolved critiques")
	}

	if sess.LastDraft == nil {
		return Outcome{}, domain.NewSessionError(domain.ErrLLMTransport, "no analyst draft was ever produced", nil)
	}

	o.emit(sess, "writer_planning", "撰寫者正在規劃最終報告結構")
	o.emit(sess, "writer_composing", "撰寫者正在撰寫最終報告")
	start := time.Now()
	writerOut, err := o.deps.Writer.Compose(ctx, sess, *sess.LastDraft, review)
	o.logAnalytics("writer", time.Since(start), nil)
	o.logIteration(sess, "writer", writerOut)
	if err != nil {
		return o.bestEffortOutcome(sess, err)
	}

	if citecheck.ReconcileSourcesUsed(&writerOut, sess.LastDraft.CitationsUsed) {
		sess.AddWarning("writer introduced citation indices outside the analyst's citations_used; corrected automatically")
	}
	scan := citecheck.ScanMarkdown(writerOut.FinalReport, sess.SourceMap.Len())
	if len(scan.OutOfRange) > 0 {
		sess.AddWarning(fmt.Sprintf("final report references out-of-range citation indices: %v", scan.OutOfRange))
	}
	for _, v := range citecheck.EnforceTierCompliance(writerOut.SourcesUsed, sess.SourceMap, sess.Mode, o.cfg.ModeConfigs[sess.Mode].MaxTier) {
		sess.AddWarning(v)
	}
	if degrade && writerOut.ConfidenceLevel == domain.ConfidenceHigh {
		writerOut.ConfidenceLevel = domain.ConfidenceMedium
	}

	o.emit(sess, "writer_complete", "最終報告已完成")

	report := o.buildReport(sess, writerOut)
	return Outcome{Report: &report}, nil
}

// bestEffortOutcome handles safe-LLM-call exhaustion: the session fails with
// a structured error, but if a draft already exists it is still returned as
// a best-effort, low-confidence report.
func (o *Orchestrator) bestEffortOutcome(sess *domain.ResearchSession, cause error) (Outcome, error) {
	if sess.LastDraft == nil {
		return Outcome{}, cause
	}
	sess.AddWarning("a model call exhausted its retries; returning the last successful draft as a best-effort report")
	writerOut := domain.WriterOutput{
		FinalReport:     sess.LastDraft.Draft,
		SourcesUsed:     sess.LastDraft.CitationsUsed,
		ConfidenceLevel: domain.ConfidenceLow,
		MethodologyNote: "因模型呼叫失敗，本報告直接採用分析師最後一次成功的草稿，未經審查員與撰寫者加工。",
	}
	citecheck.ReconcileSourcesUsed(&writerOut, sess.LastDraft.CitationsUsed)
	report := o.buildReport(sess, writerOut)
	return Outcome{Report: &report}, cause
}

func (o *Orchestrator) buildReport(sess *domain.ResearchSession, writerOut domain.WriterOutput) domain.ResearchReport {
	report := domain.NewResearchReport()
	report.Title = sess.Query
	report.BodyMarkdown = writerOut.FinalReport
	report.Sources = reportSources(sess.SourceMap)
	report.Mode = sess.Mode
	report.IterationsUsed = sess.Iteration
	report.Confidence = writerOut.ConfidenceLevel
	report.MethodologyNote = writerOut.MethodologyNote
	report.Warnings = sess.Warnings
	report.GeneratedAt = time.Now()
	report.Model = o.deps.Models.Model(llmclient.QualityHigh)
	return report
}

func reportSources(sourceMap *domain.SourceMap) []domain.ReportSource {
	all := sourceMap.All()
	out := make([]domain.ReportSource, 0, len(all))
	for _, e := range all {
		out = append(out, domain.ReportSource{
			Index:     e.Index,
			URLOrURN:  e.Source.URL,
			Publisher: e.Source.Publisher,
			Tier:      e.Source.Tier,
		})
	}
	return out
}

// buildContext wraps contextbuilder.Build with a context-overflow recovery
// path: if even the minimum snippet length can't bring the rendered text
// under budget, drop the lowest-ranked (last-appended) sources from the
// rendered view until it fits. The SourceMap itself is never mutated, so
// indices remain stable.
func (o *Orchestrator) buildContext(sess *domain.ResearchSession) string {
	now := time.Now()
	text := contextbuilder.Build(o.cfg, sess.Mode, sess.SourceMap, now)
	if len(text) <= o.cfg.Context.MaxTotalChars {
		o.checkTokenBudget(sess, text)
		return text
	}

	entries := sess.SourceMap.All()
	dropped := 0
	for len(entries) > 1 {
		entries = entries[:len(entries)-1]
		dropped++
		text = contextbuilder.BuildFromEntries(o.cfg, sess.Mode, entries, now)
		if len(text) <= o.cfg.Context.MaxTotalChars {
			break
		}
	}
	if dropped > 0 {
		sess.AddWarning(fmt.Sprintf("context overflow: dropped %d lowest-ranked source(s) to fit the character budget", dropped))
	}
	o.checkTokenBudget(sess, text)
	return text
}

// checkTokenBudget is a secondary, warning-only guard beyond MAX_TOTAL_CHARS:
// the char budget is the authoritative bound, but a model with a small
// context window can still be overrun by token-dense text (e.g. CJK) that
// passes the char check. It never truncates anything itself.
func (o *Orchestrator) checkTokenBudget(sess *domain.ResearchSession, contextText string) {
	model := o.deps.Models.Model(llmclient.QualityHigh)
	promptTokens := budget.EstimatePromptTokens("", contextText, nil)
	if budget.FitsInContext(model, o.cfg.Reasoning.ReservedOutputTokens, promptTokens) {
		return
	}
	remaining := budget.RemainingContextWithHeadroom(model, o.cfg.Reasoning.ReservedOutputTokens, promptTokens)
	sess.AddWarning(fmt.Sprintf(
		"context may exceed %s's token budget: estimated %d prompt tokens against a %d token window (%d remaining after output reservation and headroom)",
		model, promptTokens, budget.ModelContextTokens(model), remaining,
	))
}

// emit is best-effort: a panicking or failing sink must never interrupt the
// reasoning loop.
func (o *Orchestrator) emit(sess *domain.ResearchSession, messageType, userMessage string) {
	defer func() { _ = recover() }()
	maxIter := o.cfg.Reasoning.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}
	base := sess.Iteration - 1
	if base < 0 {
		base = 0
	}
	percent := (float64(base) + stageFractions[messageType]) / float64(maxIter)
	if percent > 1 {
		percent = 1
	}
	o.deps.Progress.EmitProgress(ports.ProgressEvent{
		MessageType:     messageType,
		Stage:           messageType,
		Iteration:       sess.Iteration,
		TotalIterations: maxIter,
		UserMessage:     userMessage,
		ProgressPercent: percent,
	})
}

func (o *Orchestrator) logAnalytics(name string, dur time.Duration, fields map[string]any) {
	if o.deps.Analytics == nil {
		return
	}
	defer func() { _ = recover() }()
	o.deps.Analytics.LogAnalytics(ports.AnalyticsEvent{Name: name, DurationMS: dur.Milliseconds(), Fields: fields})
}

func (o *Orchestrator) logIteration(sess *domain.ResearchSession, agent string, payload interface{}) {
	if o.deps.Logger == nil {
		return
	}
	_ = o.deps.Logger.LogIteration(sess.Iteration, agent, payload, time.Now())
}

func (o *Orchestrator) logSummary(sess *domain.ResearchSession, report *domain.ResearchReport) {
	if o.deps.Logger == nil {
		return
	}
	var confidence domain.ConfidenceLevel
	if report != nil {
		confidence = report.Confidence
	}
	_ = o.deps.Logger.LogSessionSummary(map[string]interface{}{
		"mode":             sess.Mode,
		"iterations":       sess.Iteration,
		"reject_count":     sess.RejectCount,
		"warnings":         sess.Warnings,
		"final_confidence": confidence,
	})
}
