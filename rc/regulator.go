/*
NAME
  regulator.go

DESCRIPTION
  regulator.go implements the shared half of component E: the linear
  bits-per-mb search VP8 and VP9 both use to turn a target frame size into a
  qindex, and the CBR oscillation clamp applied to its result. AV1 searches
  the same space with a binary search instead (rc/av1), so it is not here.

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

// BitsPerMBFunc estimates the bits-per-macroblock a given qindex would
// produce at the given correction factor; each codec backend supplies its
// own (VP9/AV1 formulaic, VP8 table-driven).
type BitsPerMBFunc func(ft FrameType, qindex int, correctionFactor float64, bitDepth int) int64

// BPerMBNormBits is the fixed-point shift target-bits-per-mb is carried in.
const BPerMBNormBits = 9

// RegulateLinear walks qindex from activeBestQuality up to
// activeWorstQuality, returning the smallest qindex whose estimated
// bits-per-mb is at or below the per-mb target, tie-breaking towards
// whichever of i or i-1 is numerically closer to that target. This is the
// libvpx VP8/VP9 "regulate_q" search.
func RegulateLinear(targetBitsPerFrame int64, mbs, activeBestQuality, activeWorstQuality int, ft FrameType, correctionFactor float64, bitDepth int, bitsPerMB BitsPerMBFunc) int {
	q := activeWorstQuality
	lastError := int64(math.MaxInt64)
	targetBitsPerMB := (targetBitsPerFrame << BPerMBNormBits) / int64(mbs)

	for i := activeBestQuality; i <= activeWorstQuality; i++ {
		bitsPerMBAtQ := bitsPerMB(ft, i, correctionFactor, bitDepth)
		if bitsPerMBAtQ <= targetBitsPerMB {
			if targetBitsPerMB-bitsPerMBAtQ <= lastError {
				q = i
			} else {
				q = i - 1
			}
			break
		}
		lastError = bitsPerMBAtQ - targetBitsPerMB
	}
	return q
}

// AdjustQCBR clamps q between the last two frames' qindex whenever they
// straddled target on opposite sides (rc_1_frame * rc_2_frame == -1) and
// those two qindexes differ, then clamps the result to
// [bestQuality, worstQuality]. This is the libvpx/libaom "adjust_q_cbr" step,
// applied after RegulateLinear or a binary-search regulator in CBR mode.
// Scene-change resets (reset_high_source_sad) are not modelled here; see
// DESIGN.md.
func AdjustQCBR(s *State, q, bestQuality, worstQuality int) int {
	if s.RC1Frame*s.RC2Frame == -1 && s.Q1Frame != s.Q2Frame {
		lo, hi := s.Q1Frame, s.Q2Frame
		if lo > hi {
			lo, hi = hi, lo
		}
		q = clampInt(q, lo, hi)
	}
	return clampInt(q, bestQuality, worstQuality)
}
