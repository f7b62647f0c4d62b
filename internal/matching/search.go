// internal/matching/search.go
package matching

import (
	"math"
	"sort"
)

// Sort orders for SearchPartners.
const (
	SortByRelevance = "relevance"
	SortByUrgency   = "urgency"
	SortByCapacity  = "capacity"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 10

// SearchCriteria is a structured partner search. Empty lists do not filter.
type SearchCriteria struct {
	Regions              []string `json:"regions"`
	Specializations      []string `json:"specializations"`
	Services             []string `json:"services"`
	MinAvailableCapacity int      `json:"min_available_capacity"`
	MaxUrgencyLevel      *int     `json:"max_urgency_level,omitempty"`
}

func (c SearchCriteria) maxUrgency() int {
	if c.MaxUrgencyLevel == nil {
		return 10
	}
	return *c.MaxUrgencyLevel
}

// SearchHit is a partner that passed the criteria with its relevance.
type SearchHit struct {
	Partner        PartnerRecord `json:"partner"`
	RelevanceScore float64       `json:"relevance_score"`
}

// MatchesCriteria applies the hard filters of a structured search.
func MatchesCriteria(p PartnerRecord, c SearchCriteria) bool {
	if !p.IsActive {
		return false
	}
	if len(c.Regions) > 0 && !anyExact(c.Regions, p.Regions) {
		return false
	}
	if len(c.Specializations) > 0 && !anyExact(c.Specializations, p.Specializations) {
		return false
	}
	if len(c.Services) > 0 && !anyExact(c.Services, p.Services) {
		return false
	}
	if p.capacity() < c.MinAvailableCapacity {
		return false
	}
	return p.urgency() <= c.maxUrgency()
}

// RelevanceScore rates a partner against search criteria in [0,1]. Only the
// criteria that were supplied contribute to the normalizer, except capacity
// and urgency which always do.
func RelevanceScore(p PartnerRecord, c SearchCriteria) float64 {
	var score, max float64

	if len(c.Regions) > 0 {
		max += 30
		if anyExact(c.Regions, p.Regions) {
			score += 30
		} else if len(p.Regions) > 0 {
			score += 10
		}
	}

	if len(c.Specializations) > 0 {
		max += 25
		score += overlapRatio(c.Specializations, p.Specializations) * 25
	}

	if len(c.Services) > 0 {
		max += 20
		score += overlapRatio(c.Services, p.Services) * 20
	}

	max += 15
	capacity := p.capacity()
	switch {
	case capacity >= c.MinAvailableCapacity:
		score += 15
	case capacity > 0:
		score += float64(capacity) / float64(c.MinAvailableCapacity) * 15
	}

	max += 10
	if u, limit := p.urgency(), c.maxUrgency(); u <= limit {
		score += 10
	} else {
		score += math.Max(0, 10-float64(u-limit)*2)
	}

	return round2(math.Min(1.0, score/max))
}

// SearchPartners filters the catalog, scores relevance and sorts by the
// requested order. It returns the total number of hits before truncation.
func SearchPartners(catalog []PartnerRecord, c SearchCriteria, sortBy string, limit int) ([]SearchHit, int) {
	hits := make([]SearchHit, 0)
	for _, p := range catalog {
		if !MatchesCriteria(p, c) {
			continue
		}
		hits = append(hits, SearchHit{Partner: p, RelevanceScore: RelevanceScore(p, c)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch sortBy {
		case SortByUrgency:
			if a.Partner.urgency() != b.Partner.urgency() {
				return a.Partner.urgency() > b.Partner.urgency()
			}
		case SortByCapacity:
			if a.Partner.capacity() != b.Partner.capacity() {
				return a.Partner.capacity() > b.Partner.capacity()
			}
		default:
			if a.RelevanceScore != b.RelevanceScore {
				return a.RelevanceScore > b.RelevanceScore
			}
		}
		return a.Partner.PartnerID < b.Partner.PartnerID
	})

	total := len(hits)
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, total
}

func anyExact(wanted, have []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

func overlapRatio(wanted, have []string) float64 {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	common := 0
	seen := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(seen))
}
