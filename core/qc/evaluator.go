// Package qc holds the quality-control rules applied to every episode.
// All four rules are pure and kept as separate named predicates because
// callers apply different subsets: job creation uses IsEdgeCase, fix
// finalization uses IsFixAccepted rather than IsAccepted.
package qc

import "motion-curator/core/models"

const (
	baseScore            = 50
	successBonus         = 30
	slowPenaltyThreshold = 15.0
	slowPenalty          = 20
	failureReasonPenalty = 10

	acceptMaxDurationSec    = 20.0
	fixAcceptMaxDurationSec = 10.0
	edgeCaseDurationSec     = 20.0
)

// Score computes the quality score for an episode, clamped to [0,100].
// All adjustments are additive so their order does not matter.
func Score(e *models.Episode) int {
	score := baseScore
	if e.Success {
		score += successBonus
	}
	if e.DurationSec > slowPenaltyThreshold {
		score -= slowPenalty
	}
	if hasFailureReason(e) {
		score -= failureReasonPenalty
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// IsEdgeCase reports whether the episode needs human review. A long
// successful run with no failure reason still counts once it exceeds
// the duration bound.
func IsEdgeCase(e *models.Episode) bool {
	if !e.Success {
		return true
	}
	if e.DurationSec > edgeCaseDurationSec {
		return true
	}
	return hasFailureReason(e)
}

// IsAccepted reports whether the episode enters the dataset directly.
func IsAccepted(e *models.Episode) bool {
	return e.Success && e.DurationSec <= acceptMaxDurationSec
}

// IsFixAccepted applies the stricter duration bound used for fix
// episodes: a fix must demonstrate a clearly improved, fast trajectory.
func IsFixAccepted(e *models.Episode) bool {
	return e.Success && e.DurationSec <= fixAcceptMaxDurationSec
}

func hasFailureReason(e *models.Episode) bool {
	return e.FailureReason != nil && *e.FailureReason != ""
}
