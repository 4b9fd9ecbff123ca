package rubric

import (
	"math"

	"github.com/abhisek/rubrix/internal/vectormath"
)

// BlendedScore computes a corrected overall score as a weighted blend of
// the judge's claimed score and the rubric-derived percentage. Blending
// only happens when the divergence exceeds cfg.BlendThreshold; smaller
// drift is flagged by Reconcile but left untouched, so noise never
// silently moves a grade.
func BlendedScore(claimedScore, rubricPercentage float64, cfg Config) float64 {
	if math.Abs(claimedScore-rubricPercentage) <= cfg.BlendThreshold {
		return vectormath.Clamp(claimedScore, 0, 100)
	}
	blended := (1-cfg.BlendWeight)*claimedScore + cfg.BlendWeight*rubricPercentage
	return vectormath.Clamp(blended, 0, 100)
}
