// internal/matching/ranker.go
package matching

import "sort"

// Rank scores every active partner in the catalog, keeps those strictly above
// the threshold and orders them by score, then available capacity, then
// partner ID. The result is truncated to limit after sorting; limit <= 0
// keeps everything. The intent is accepted for parity with the recommendation
// step and does not change the order.
func (s *Scorer) Rank(e RequestEntities, _ IntentResult, catalog []PartnerRecord, limit int) []RankedPartner {
	ranked := make([]RankedPartner, 0, len(catalog))
	for _, p := range catalog {
		if !p.IsActive {
			continue
		}
		m := s.Score(p, e)
		if m.MatchScore <= s.threshold {
			continue
		}
		ranked = append(ranked, RankedPartner{Partner: p, Match: m})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankedLess(ranked[i], ranked[j])
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankedLess(a, b RankedPartner) bool {
	if a.Match.MatchScore != b.Match.MatchScore {
		return a.Match.MatchScore > b.Match.MatchScore
	}
	if ca, cb := a.Partner.capacity(), b.Partner.capacity(); ca != cb {
		return ca > cb
	}
	return a.Partner.PartnerID < b.Partner.PartnerID
}
