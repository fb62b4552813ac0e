// Package domain holds the typed data contracts shared by every component of
// the reasoning core: sources, the citation map, agent outputs, and the
// final report. Nothing in this package performs I/O.
package domain

import "time"

// OriginType classifies where a CandidateSource came from upstream.
type OriginType string

const (
	OriginPublicNews      OriginType = "public_news"
	OriginPrivateDocument OriginType = "private_document"
)

// CandidateSource is an item handed to the core by the upstream retrieval
// subsystem. It is read-only to the core.
type CandidateSource struct {
	ID          string
	URL         string
	Title       string
	BodyText    string
	Publisher   string
	PublishedAt *time.Time
	OriginType  OriginType

	// RetrievalScore is an optional upstream ranking signal, preserved for
	// logging but never relied on for ordering decisions inside the core
	// (ordering is inherited from input order, per the Context Builder).
	RetrievalScore float64
}

// Tier is a coarse credibility rank: 1 official ... 5 social, 6 enrichment.
type Tier int

const (
	TierOfficial    Tier = 1
	TierGovernment  Tier = 2
	TierNews        Tier = 3
	TierDigital     Tier = 4
	TierSocial      Tier = 5
	TierEnrichment  Tier = 6
	TierUnclassified Tier = 0
)

// SourceCategory is the human-facing label carried alongside Tier.
type SourceCategory string

const (
	CategoryOfficial     SourceCategory = "official"
	CategoryGovernment   SourceCategory = "government"
	CategoryNews         SourceCategory = "news"
	CategoryDigital      SourceCategory = "digital"
	CategorySocial       SourceCategory = "social"
	CategoryEncyclopedia SourceCategory = "encyclopedia"
	CategoryWebReference SourceCategory = "web_reference"
	CategoryLLMKnowledge SourceCategory = "llm_knowledge"
)

// TieredSource is a CandidateSource enriched with tier classification. The
// tier-prefixed body carries the tier marker implicitly into downstream
// prompts so agents do not need a separate tier channel.
type TieredSource struct {
	CandidateSource
	Tier            Tier
	SourceCategory  SourceCategory
	TierPrefixedBody string
	// FallbackWarning is set when this source was admitted only because the
	// filter fell back from strict to discovery mode.
	FallbackWarning string
}

// TierPrefix returns the "[Tier T | category]" marker used to prefix bodies.
func TierPrefix(tier Tier, category SourceCategory) string {
	return "[Tier " + tierLabel(tier) + " | " + string(category) + "]"
}

func tierLabel(t Tier) string {
	switch t {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	case 5:
		return "5"
	case 6:
		return "6"
	default:
		return "0"
	}
}
