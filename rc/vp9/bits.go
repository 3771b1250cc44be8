/*
NAME
  bits.go

DESCRIPTION
  bits.go implements VP9's bits-per-macroblock model: a formula driven by
  the AC-quant step at a qindex, not a lookup table (contrast rc/vp8's
  table-driven model).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp9

import "github.com/ausocean/brc/rc"

// bitsPerMB estimates bits-per-macroblock for qindex at correctionFactor,
// keyed off frame type via separate key/inter baseline enumerators.
func bitsPerMB(ft rc.FrameType, qindex int, correctionFactor float64, bitDepth int) int64 {
	q := rc.ConvertQindexToQ(qindex, bitDepth)
	enumerator := 1800000
	if ft == rc.KeyFrame {
		enumerator = 2700000
	}
	enumerator += int(float64(enumerator)*q) >> 12
	return int64(float64(enumerator) * correctionFactor / q)
}

// estimateBitsAtQ converts a per-mb bit estimate into a whole-frame bit
// estimate, floored at FrameOverheadBits.
func estimateBitsAtQ(ft rc.FrameType, qindex, mbs int, correctionFactor float64, bitDepth int) int64 {
	bpm := bitsPerMB(ft, qindex, correctionFactor, bitDepth)
	frameBits := (bpm * int64(mbs)) >> rc.BPerMBNormBits
	if frameBits < rc.FrameOverheadBits {
		return rc.FrameOverheadBits
	}
	return frameBits
}
