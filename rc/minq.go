/*
NAME
  minq.go

DESCRIPTION
  minq.go builds the six min-Q lookup tables (kf_low, kf_high, arfgf_low,
  arfgf_high, inter, rtc) used by the active-Q range selector (component D),
  one set per bit depth, from the cubic-polynomial fit the reference rate
  controllers use in place of a second set of hand-tuned tables.

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

// MinqLUTs holds the six min-Q lookup tables for one bit depth.
type MinqLUTs struct {
	KfLow     [QIndexRange]int
	KfHigh    [QIndexRange]int
	ArfgfLow  [QIndexRange]int
	ArfgfHigh [QIndexRange]int
	Inter     [QIndexRange]int
	Rtc       [QIndexRange]int
}

// getMinqIndex fits a 3rd-order polynomial (x3*maxq^3 + x2*maxq^2 +
// x1*maxq, capped at maxq) to a target minq value, then returns the
// smallest qindex whose q value is at or above that target. This is the
// libvpx/libaom "formulaic" minq derivation, used in place of the original
// hand plotted lookup tables.
func getMinqIndex(maxq, x3, x2, x1 float64, bitDepth int) int {
	minqTarget := ((x3*maxq+x2)*maxq + x1) * maxq
	if minqTarget > maxq {
		minqTarget = maxq
	}
	if minqTarget <= 2.0 {
		return 0
	}
	for i := 0; i < QIndexRange; i++ {
		if minqTarget <= ConvertQindexToQ(i, bitDepth) {
			return i
		}
	}
	return QIndexRange - 1
}

// BuildMinqLUTs constructs the six min-Q tables for bitDepth. interCoeff is
// the cubic's x1 coefficient for both the inter and rtc tables: VP9 uses
// 0.70, AV1 uses 0.90 (see DESIGN.md) — every other coefficient is shared
// between the two codecs.
func BuildMinqLUTs(bitDepth int, interCoeff float64) *MinqLUTs {
	luts := &MinqLUTs{}
	for i := 0; i < QIndexRange; i++ {
		maxq := ConvertQindexToQ(i, bitDepth)
		luts.KfLow[i] = getMinqIndex(maxq, 0.000001, -0.0004, 0.150, bitDepth)
		luts.KfHigh[i] = getMinqIndex(maxq, 0.0000021, -0.00125, 0.45, bitDepth)
		luts.ArfgfLow[i] = getMinqIndex(maxq, 0.0000015, -0.0009, 0.30, bitDepth)
		luts.ArfgfHigh[i] = getMinqIndex(maxq, 0.0000021, -0.00125, 0.55, bitDepth)
		luts.Inter[i] = getMinqIndex(maxq, 0.00000271, -0.00113, interCoeff, bitDepth)
		luts.Rtc[i] = getMinqIndex(maxq, 0.00000271, -0.00113, interCoeff, bitDepth)
	}
	return luts
}

// GetActiveQuality blends between a low-motion and high-motion minq table
// entry according to where gfuBoost falls in [low, high], used by both the
// key-frame and golden-frame active-quality lookups.
func GetActiveQuality(q, gfuBoost, low, high int, lowMotionMinq, highMotionMinq *[QIndexRange]int) int {
	if gfuBoost > high {
		return lowMotionMinq[q]
	}
	if gfuBoost < low {
		return highMotionMinq[q]
	}
	gap := high - low
	offset := high - gfuBoost
	qdiff := highMotionMinq[q] - lowMotionMinq[q]
	adjustment := (offset*qdiff + gap/2) / gap
	return lowMotionMinq[q] + adjustment
}

// KF boost bounds used by GetActiveQuality for the key-frame active-quality
// lookup; the original hardcodes these alongside the LUTs.
const (
	KfLowBoost  = 300
	KfHighBoost = 4800
)
