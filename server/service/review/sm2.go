// Package review implements the spaced-repetition engine: an SM-2-derived
// interval calculated per rating, a lazily created per-problem review ledger,
// and the daily session built from due reviews plus one new problem.
package review

import (
	"math"
)

// Rating is the user's difficulty assessment after a passing submission.
type Rating string

const (
	// RatingAgain is a full lapse: the interval resets to one day.
	RatingAgain Rating = "again"
	// RatingHard grows the interval slowly and decays ease.
	RatingHard Rating = "hard"
	// RatingGood grows the interval by the ease multiplier.
	RatingGood Rating = "good"
	// RatingMastered takes the problem out of rotation immediately.
	RatingMastered Rating = "mastered"
)

// IsValid returns true if the rating is one of the four recognized variants.
func (r Rating) IsValid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingMastered:
		return true
	}
	return false
}

const (
	// DefaultEaseFactor is the starting ease for a fresh ledger entry.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor below which ease never drops.
	MinEaseFactor = 1.3
	// MasteryIntervalDays auto-promotes an entry to mastered when a good
	// rating pushes its interval this far out.
	MasteryIntervalDays = 30

	firstIntervalHard = 1
	firstIntervalGood = 3

	hardGrowthFactor = 1.2
	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
)

// CalculateNextReview maps the current schedule state and a rating onto the
// next one. It is a pure function: no I/O, fully deterministic.
//
// The max(interval+1, ...) growth floor prevents stagnation when ease has
// decayed near its floor with a small interval (interval=1, ease=1.3 would
// otherwise multiply back to 1).
func CalculateNextReview(currentInterval int32, easeFactor float64, rating Rating) (newInterval int32, newEase float64, mastered bool) {
	switch rating {
	case RatingMastered:
		return 0, easeFactor, true
	case RatingAgain:
		return 1, math.Max(MinEaseFactor, easeFactor-againEasePenalty), false
	}

	// First-ever rating uses fixed initial intervals.
	if currentInterval == 0 {
		if rating == RatingHard {
			return firstIntervalHard, easeFactor, false
		}
		return firstIntervalGood, easeFactor, false
	}

	if rating == RatingHard {
		newInterval = maxInterval(currentInterval+1, int32(math.Floor(float64(currentInterval)*hardGrowthFactor)))
		return newInterval, math.Max(MinEaseFactor, easeFactor-hardEasePenalty), false
	}

	newInterval = maxInterval(currentInterval+1, int32(math.Floor(float64(currentInterval)*easeFactor)))
	return newInterval, easeFactor, newInterval >= MasteryIntervalDays
}

func maxInterval(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
