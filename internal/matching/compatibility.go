// internal/matching/compatibility.go

package matching

import (
	"math"
	"strings"
	"time"

	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

const (
	interestsWeight = 0.7
	ageWeight       = 0.3

	// ageScale controls how fast the age score decays with the age gap
	ageScale = 8.0
)

// Factors is the breakdown behind a compatibility score, each in [0, 1]
type Factors struct {
	Interests float64 `json:"interests"`
	Age       float64 `json:"age"`
}

// Compatibility scores two profiles on a 0-100 scale
func Compatibility(a, b *profile.Info, now time.Time) (float64, Factors) {
	f := Factors{
		Interests: interestsScore(a.Interests, b.Interests),
		Age:       ageScore(a.Age(now), b.Age(now)),
	}
	total := f.Interests*interestsWeight + f.Age*ageWeight
	return math.Round(total*10000) / 100, f
}

// interestsScore is the Jaccard index of the two interest sets
func interestsScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}

	set := make(map[string]bool, len(a))
	for _, i := range a {
		set[strings.ToLower(i)] = true
	}

	shared := 0
	seen := make(map[string]bool, len(b))
	for _, i := range b {
		k := strings.ToLower(i)
		if seen[k] {
			continue
		}
		seen[k] = true
		if set[k] {
			shared++
		}
	}

	union := len(set) + len(seen) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func ageScore(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0.5
	}
	gap := math.Abs(float64(a - b))
	return math.Exp(-gap / ageScale)
}
