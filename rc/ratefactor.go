/*
NAME
  ratefactor.go

DESCRIPTION
  ratefactor.go implements component F: the rate-correction-factor update
  that nudges the qindex<->bitrate mapping towards reality after every
  frame, damped against oscillation and clamped to a codec-specific range.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rc

import "math"

// RateFactorLevels is the size of the RateCorrectionFactors slice on VP9 and
// AV1 engines. Only KFStd and InterNormal are ever written by this package;
// the remaining three slots exist for shape parity with the reference
// rate-control struct (they belong to the golden/altref boost search this
// module does not implement, see DESIGN.md).
const RateFactorLevels = 5

const (
	KFStd       = 0
	GFArfStd    = 1
	GFArfLow    = 2
	InterNormal = 3
	InterLow    = 4
)

// FrameOverheadBits is the floor below which a projected frame size is
// treated as too small to usefully derive a correction-factor scale.
const FrameOverheadBits = 200

// RateFactorLevel selects the RateCorrectionFactors slot for a frame. VP8's
// own backend keeps its own, distinct three-slot selection; this one serves
// VP9 and AV1. The slot is chosen by frame type alone: no frame-size
// (resize) divisor is applied to the stored factor.
func RateFactorLevel(ft FrameType) int {
	if ft == KeyFrame {
		return KFStd
	}
	return InterNormal
}

// GetRateCorrectionFactor returns the clamped correction factor for the
// given frame type, reading the slot RateFactorLevel selects.
func GetRateCorrectionFactor(s *State, ft FrameType, minBpb, maxBpb float64) float64 {
	return clampFloat(s.RateCorrectionFactors[RateFactorLevel(ft)], minBpb, maxBpb)
}

// SetRateCorrectionFactor writes a clamped correction factor into the slot
// RateFactorLevel selects.
func SetRateCorrectionFactor(s *State, ft FrameType, factor, minBpb, maxBpb float64) {
	s.RateCorrectionFactors[RateFactorLevel(ft)] = clampFloat(factor, minBpb, maxBpb)
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// UpdateRateCorrectionFactors re-derives the correction factor for this
// frame's rate-factor level from how far off target the encoded (or
// estimated-by-q) frame size was, damping the adjustment when the last two
// frames of this type have been oscillating either side of target.
//
// estimatedBitsAtQ is the caller's bits-per-mb-derived estimate of the
// frame size that would result from the current correction factor at the
// frame's chosen qindex (computed via the codec's own bits-per-mb model);
// projectedFrameSize is the size the encoder actually produced.
func (s *State) UpdateRateCorrectionFactors(ft FrameType, projectedFrameSize, estimatedBitsAtQ int64, minBpb, maxBpb float64) {
	rateCorrectionFactor := GetRateCorrectionFactor(s, ft, minBpb, maxBpb)

	correctionFactor := 100
	if estimatedBitsAtQ > FrameOverheadBits {
		correctionFactor = int((100 * projectedFrameSize) / estimatedBitsAtQ)
	}

	var adjustmentLimit float64
	if !s.dampedAdjustment() {
		adjustmentLimit = 1.0
		s.markDamped()
	} else {
		adjustmentLimit = 0.25 + 0.5*math.Min(1, math.Abs(math.Log10(0.01*float64(correctionFactor))))
	}

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

	// Turn off oscillation detection on a massive overshoot.
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

	SetRateCorrectionFactor(s, ft, rateCorrectionFactor, minBpb, maxBpb)
}

// dampedAdjustment and markDamped track whether this engine has gone
// through its first correction-factor update at all; the reference
// controller (rf_lvl hardcoded to 0 in libvpx_vp9_ratectrl.c) skips damping
// only on the very first frame it ever encodes, of either type, not
// independently per rate-factor level. Backed by a single fixed bit so
// State's zero value behaves correctly without a constructor.
func (s *State) dampedAdjustment() bool {
	return s.dampedLevels&1 != 0
}

func (s *State) markDamped() {
	s.dampedLevels |= 1
}
