// Package match turns the matching collaborator's continuous affinity
// signal into the discrete presentation tier shown to test-takers. The
// classifier is pure: no state, total over every percentage in [0,100]
// and over absent or present ratings.
package match

import (
	"sort"

	"github.com/orientavida/assess-cli/internal/model"
)

// Tier is the discrete recommendation classification.
type Tier string

const (
	TierExcellent Tier = "EXCELLENT"
	TierGood      Tier = "GOOD"
	TierModerate  Tier = "MODERATE"
	TierLow       Tier = "LOW"
)

// Tier thresholds, inclusive at each boundary.
const (
	excellentMin = 80
	goodMin      = 60
	moderateMin  = 40
)

// ratingFloor is the exclusive bound above which a counselor's average
// rating marks them highly recommended, on the 0-5 scale.
const ratingFloor = 4

// Classify maps a match percentage to its tier.
func Classify(matchPercentage float64) Tier {
	switch {
	case matchPercentage >= excellentMin:
		return TierExcellent
	case matchPercentage >= goodMin:
		return TierGood
	case matchPercentage >= moderateMin:
		return TierModerate
	default:
		return TierLow
	}
}

// HighlyRecommended reports whether the candidate's average rating is
// present and strictly greater than 4. The signal is independent of tier:
// a LOW-tier candidate with great ratings still carries the flag.
func HighlyRecommended(c model.Candidate) bool {
	return c.AverageRating != nil && *c.AverageRating > ratingFloor
}

// Recommendation pairs a candidate with both derived signals.
type Recommendation struct {
	Candidate         model.Candidate `json:"candidate"`
	Tier              Tier            `json:"tier"`
	HighlyRecommended bool            `json:"highly_recommended"`
}

// Rank classifies every candidate and orders the result by match
// percentage descending. The sort is stable so equal percentages keep the
// collaborator's order.
func Rank(candidates []model.Candidate) []Recommendation {
	out := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		out[i] = Recommendation{
			Candidate:         c,
			Tier:              Classify(c.MatchPercentage),
			HighlyRecommended: HighlyRecommended(c),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Candidate.MatchPercentage > out[j].Candidate.MatchPercentage
	})
	return out
}
