/*
NAME
  ratefactor.go

DESCRIPTION
  ratefactor.go re-derives AV1's rate-correction factor after each frame.
  Structurally the same log10-damped adjustment rc.State.UpdateRateCorrectionFactors
  implements for VP9, but AV1's own av1_rc_update_rate_correction_factors has
  no "skip damping on the engine's first update" exception, so this
  is kept as its own local copy rather than sharing VP9's method (see
  DESIGN.md).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1

import (
	"math"

	"github.com/ausocean/brc/rc"
)

// updateRateCorrectionFactor re-derives the correction factor for the
// frame's rate-factor level from how far off target the projected frame
// size was against estimatedBitsAtQ. resize_rate_factor's width*height
// size-change multiplier is not applied: the factor is stored without any
// frame-size normalization, also after UpdateConfig changes Width/Height
// (see DESIGN.md).
func updateRateCorrectionFactor(s *rc.State, projectedFrameSize, estimatedBitsAtQ int64, minBpb, maxBpb float64) {
	rateCorrectionFactor := rc.GetRateCorrectionFactor(s, s.FrameType, minBpb, maxBpb)

	correctionFactor := 100
	if estimatedBitsAtQ > rc.FrameOverheadBits {
		correctionFactor = int((100 * projectedFrameSize) / estimatedBitsAtQ)
	}

	adjustmentLimit := 0.25 + 0.5*math.Min(1, math.Abs(math.Log10(0.01*float64(correctionFactor))))

	s.Q2Frame = s.Q1Frame
	s.Q1Frame = s.BaseQindex
	s.RC2Frame = s.RC1Frame
	switch {
	case correctionFactor > 110:
		s.RC1Frame = -1
	case correctionFactor < 90:
		s.RC1Frame = 1
	default:
		s.RC1Frame = 0
	}
	if s.RC1Frame == -1 && s.RC2Frame == 1 && correctionFactor > 1000 {
		s.RC2Frame = 0
	}

	switch {
	case correctionFactor > 102:
		correctionFactor = int(100 + (float64(correctionFactor-100) * adjustmentLimit))
		rateCorrectionFactor = (rateCorrectionFactor * float64(correctionFactor)) / 100
		if rateCorrectionFactor > maxBpb {
			rateCorrectionFactor = maxBpb
		}
	case correctionFactor < 99:
		correctionFactor = int(100 - (float64(100-correctionFactor) * adjustmentLimit))
		rateCorrectionFactor = (rateCorrectionFactor * float64(correctionFactor)) / 100
		if rateCorrectionFactor < minBpb {
			rateCorrectionFactor = minBpb
		}
	}

	rc.SetRateCorrectionFactor(s, s.FrameType, rateCorrectionFactor, minBpb, maxBpb)
}
