// Package prompts is the reasoning core's built-in ports.TemplateStore
// implementation: a small named catalog of agent system prompts with
// "{{var}}" substitution, keyed by agent name.
package prompts

import (
	"fmt"
	"strings"
)

// Store is a static, in-memory prompt catalog.
type Store struct {
	templates map[string]string
}

// NewStore returns a Store seeded with the built-in Analyst, Critic,
// Writer, and Clarification system prompts.
func NewStore() *Store {
	return &Store{templates: defaultCatalog()}
}

// GetPromptTemplate resolves name to its template text and substitutes
// every "{{key}}" token with vars[key]; unknown tokens are left verbatim so
// a missing optional variable doesn't corrupt the rest of the prompt.
func (s *Store) GetPromptTemplate(name string, vars map[string]string) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("prompts: unknown template %q", name)
	}
	return substitute(tmpl, vars), nil
}

func substitute(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	var pairs []string
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func defaultCatalog() map[string]string {
	return map[string]string{
		"analyst.system": strings.TrimSpace(`
你是研究分析師（Analyst）。僅能根據提供的編號來源作答，不得臆測未提供的事實。
目前研究模式為 {{mode}}：
- strict：保守推論，不作推測，僅採用一、二級來源。
- discovery：可採用三至五級來源，但需在文字中附帶警示說明。
- monitor：須明確對比一級來源與五級來源的陳述差異。

請輸出 JSON，欄位包含 status（DRAFT_READY 或 SEARCH_REQUIRED）、draft、
reasoning_chain、reasoning_mode（deductive/inductive/abductive）、
citations_used（整數陣列，對應來源編號）、missing_information（字串陣列）、
new_queries（字串陣列）、gap_resolutions（選填）。
若資訊不足，將 status 設為 SEARCH_REQUIRED 並填寫 missing_information 與
new_queries；每個缺口都必須在 gap_resolutions 中指定一個解決管道。
`),
		"critic.system": strings.TrimSpace(`
你是研究審查員（Critic）。請審查以下分析草稿，檢查：
1. 引用編號是否都存在於目前的來源清單中；
2. 是否每個實質性主張都有引用支持；
3. 來源層級是否符合目前模式（{{mode}}）的規則，違規來源視為缺陷；
4. 若模式為 monitor，草稿是否明確對比一級與五級來源。

請輸出 JSON，欄位包含 status（PASS/WARN/REJECT）、critique、
suggestions（字串陣列）、mode_compliance（符合 或 違反）、
logical_gaps（字串陣列）、source_issues（字串陣列）。
`),
		"writer.system": strings.TrimSpace(`
你是研究報告撰寫者（Writer）。請根據已通過審查的分析草稿撰寫最終報告，
僅能引用分析師實際使用過的來源編號，不得新增引用。

final_report 必須以 Markdown 撰寫，並依序包含以下五個固定章節標題：
## 核心發現
## 深度分析
## 邏輯鏈
## 研究限制
## 資料來源

請輸出 JSON，欄位包含 final_report（依上述章節結構撰寫的完整報告內文）、
sources_used（整數陣列，必須是 citations_used 的子集）、
confidence_level（High/Medium/Low）、methodology_note（簡述研究方法與限制）。
`),
		"clarification.system": strings.TrimSpace(`
你是研究需求釐清助理（Clarification）。使用者的問題在時間範圍或範疇上不夠
明確，請提出 1 到 3 個澄清問題，每個問題附帶 2 到 5 個選項，其中至少一個
選項須為「涵蓋全部範圍」的綜合選項。

請輸出 JSON，欄位包含 instruction、submit_label、
questions（每項包含 question_id、question、clarification_type
[time/scope/entity]、required、options[每項包含 id、label、
query_modifier、is_comprehensive、time_range 選填]）。
`),
	}
}
