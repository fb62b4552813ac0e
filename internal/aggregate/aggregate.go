// Package aggregate merges and de-duplicates sources gathered across a
// round of gap resolutions, so re-admitting the same page twice under two
// different tracking-parameter variants doesn't inflate the context with
// near-duplicate evidence.
package aggregate

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// MergeAndNormalize merges resolved sources from multiple gap resolutions,
// canonicalizes URLs, trims common tracking parameters, and de-duplicates
// exact URL matches, keeping the first occurrence across groups.
func MergeAndNormalize(groups [][]domain.ResolvedSource) []domain.ResolvedSource {
	seen := map[string]struct{}{}
	out := make([]domain.ResolvedSource, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			if r.CandidateSource.URL == "" {
				out = append(out, r)
				continue
			}
			u, err := url.Parse(r.CandidateSource.URL)
			if err != nil {
				out = append(out, r)
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.CandidateSource.URL = key
			out = append(out, r)
		}
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
