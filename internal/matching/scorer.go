// internal/matching/scorer.go
package matching

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultThreshold is the minimum match score (exclusive) for a partner to be
// considered relevant.
const DefaultThreshold = 0.3

var ErrInvalidWeights = errors.New("INVALID_WEIGHTS")

// Weights are the factor weights of the match score. They must sum to 1.
type Weights struct {
	Specialization float64 `json:"specialization" mapstructure:"specialization"`
	Region         float64 `json:"region" mapstructure:"region"`
	Budget         float64 `json:"budget" mapstructure:"budget"`
	Timeline       float64 `json:"timeline" mapstructure:"timeline"`
	Urgency        float64 `json:"urgency" mapstructure:"urgency"`
	Capacity       float64 `json:"capacity" mapstructure:"capacity"`
}

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		Specialization: 0.25,
		Region:         0.20,
		Budget:         0.15,
		Timeline:       0.10,
		Urgency:        0.15,
		Capacity:       0.15,
	}
}

func (w Weights) sum() float64 {
	return w.Specialization + w.Region + w.Budget + w.Timeline + w.Urgency + w.Capacity
}

// Validate checks that no weight is negative and the weights sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Specialization, w.Region, w.Budget, w.Timeline, w.Urgency, w.Capacity} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if s := w.sum(); math.Abs(s-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, s)
	}
	return nil
}

// Factor values.
const (
	factorFull    = 1.0
	factorNeutral = 0.5
	factorNone    = 0.0

	regionTravel  = 0.7
	budgetPresent = 0.8

	timelineRelaxed    = 0.8
	timelineUrgentHigh = 1.0
	timelineUrgentMid  = 0.7
	timelineUrgentLow  = 0.3
)

// Crisis boost components.
const (
	boostHighUrgency     = 0.3
	boostHighCapacity    = 0.2
	boostFlexiblePricing = 0.1
	maxCrisisBoost       = 0.5
)

// Scorer computes match scores under a fixed weight set and ranks catalogs.
type Scorer struct {
	weights   Weights
	threshold float64
}

// NewScorer builds a Scorer. A zero threshold falls back to DefaultThreshold.
func NewScorer(weights Weights, threshold float64) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{weights: weights, threshold: threshold}, nil
}

// DefaultScorer returns a Scorer with DefaultWeights and DefaultThreshold.
func DefaultScorer() *Scorer {
	return &Scorer{weights: DefaultWeights(), threshold: DefaultThreshold}
}

// Weights returns the weight set in use.
func (s *Scorer) Weights() Weights { return s.weights }

// Threshold returns the inclusion threshold in use.
func (s *Scorer) Threshold() float64 { return s.threshold }

// Score computes the weighted match score and the crisis boost of a partner
// against the request entities.
func (s *Scorer) Score(p PartnerRecord, e RequestEntities) MatchResult {
	f := FactorBreakdown{
		Specialization: SpecializationFactor(p, e.Specialization),
		Region:         RegionFactor(p, e.Region),
		Budget:         BudgetFactor(p, e.BudgetRange),
		Timeline:       TimelineFactor(p, e.Timeline),
		Urgency:        UrgencyFactor(p, e.UrgencyLevel),
		Capacity:       CapacityFactor(p),
	}

	w := s.weights
	score := f.Specialization*w.Specialization +
		f.Region*w.Region +
		f.Budget*w.Budget +
		f.Timeline*w.Timeline +
		f.Urgency*w.Urgency +
		f.Capacity*w.Capacity

	return MatchResult{
		MatchScore:  round2(clampFloat(score, 0, 1)),
		CrisisBoost: round2(CrisisBoost(p)),
		Factors:     f,
	}
}

// SpecializationFactor is 1 when the requested specialization is a
// case-insensitive substring of any partner tag, 0.5 when none was requested.
func SpecializationFactor(p PartnerRecord, requested string) float64 {
	if requested == "" {
		return factorNeutral
	}
	if containsFold(p.Specializations, requested) {
		return factorFull
	}
	return factorNone
}

// RegionFactor scores geographic fit; partners willing to travel get partial
// credit outside their regions.
func RegionFactor(p PartnerRecord, requested string) float64 {
	if requested == "" {
		return factorNeutral
	}
	if containsFold(p.Regions, requested) {
		return factorFull
	}
	if p.WillingToTravel {
		return regionTravel
	}
	return factorNone
}

// BudgetFactor only checks whether a budget was mentioned.
// TODO: compare the parsed budget range against PartnerRecord.MinOrderSize.
func BudgetFactor(_ PartnerRecord, budget string) float64 {
	if budget == "" {
		return factorNeutral
	}
	return budgetPresent
}

// TimelineFactor rewards spare capacity for urgent timelines.
func TimelineFactor(p PartnerRecord, timeline string) float64 {
	if timeline == "" {
		return factorNeutral
	}
	if !IsUrgentTimeline(timeline) {
		return timelineRelaxed
	}
	switch c := p.capacity(); {
	case c >= 70:
		return timelineUrgentHigh
	case c >= 40:
		return timelineUrgentMid
	default:
		return timelineUrgentLow
	}
}

// IsUrgentTimeline reports whether the timeline text denotes urgency.
func IsUrgentTimeline(timeline string) bool {
	t := strings.ToLower(timeline)
	return strings.Contains(t, "срочн") || strings.Contains(t, "urgent")
}

// UrgencyFactor is the symmetric closeness of request and partner urgency.
func UrgencyFactor(p PartnerRecord, requested int) float64 {
	diff := math.Abs(float64(clampInt(requested, 0, 10) - p.urgency()))
	return math.Max(0, 1-diff/10)
}

// CapacityFactor is the available capacity as a fraction.
func CapacityFactor(p PartnerRecord) float64 {
	return float64(p.capacity()) / 100
}

// CrisisBoost is the bonus for partners that urgently want work and have
// spare capacity. It is reported next to the match score, never inside it.
func CrisisBoost(p PartnerRecord) float64 {
	boost := 0.0
	if p.urgency() >= 8 {
		boost += boostHighUrgency
	}
	if p.capacity() >= 80 {
		boost += boostHighCapacity
	}
	if p.FlexiblePricing {
		boost += boostFlexiblePricing
	}
	return math.Min(boost, maxCrisisBoost)
}

func containsFold(tags []string, needle string) bool {
	n := strings.ToLower(strings.TrimSpace(needle))
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), n) {
			return true
		}
	}
	return false
}
