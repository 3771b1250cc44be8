/*
NAME
  bits.go

DESCRIPTION
  bits.go implements AV1's bits-per-macroblock model: the same AC-quant-step
  formula VP9 uses, with AV1's own baseline enumerators and a screen-content
  variant VP9 does not have.

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

import "github.com/ausocean/brc/rc"

// bitsPerMB estimates bits-per-macroblock for qindex at correctionFactor.
// screenContent selects the lower screen-content baseline enumerators
// (av1_rc_bits_per_mb's is_screen_content_type branch), a distinction VP9's
// own bitsPerMB does not make.
func bitsPerMB(ft rc.FrameType, qindex int, correctionFactor float64, bitDepth int, screenContent bool) int64 {
	q := rc.ConvertQindexToQ(qindex, bitDepth)
	var enumerator int
	switch {
	case ft == rc.KeyFrame && screenContent:
		enumerator = 1000000
	case ft == rc.KeyFrame:
		enumerator = 2000000
	case screenContent:
		enumerator = 750000
	default:
		enumerator = 1500000
	}
	enumerator += int(float64(enumerator)*q) >> 12
	return int64(float64(enumerator) * correctionFactor / q)
}

// estimateBitsAtQ converts a per-mb bit estimate into a whole-frame bit
// estimate, floored at FrameOverheadBits.
func estimateBitsAtQ(ft rc.FrameType, qindex, mbs int, correctionFactor float64, bitDepth int, screenContent bool) int64 {
	bpm := bitsPerMB(ft, qindex, correctionFactor, bitDepth, screenContent)
	frameBits := (bpm * int64(mbs)) >> rc.BPerMBNormBits
	if frameBits < rc.FrameOverheadBits {
		return rc.FrameOverheadBits
	}
	return frameBits
}
