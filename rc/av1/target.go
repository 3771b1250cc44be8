/*
NAME
  target.go

DESCRIPTION
  target.go implements AV1's one-pass CBR target-size allocator, its
  key-frame-aware active-Q range selector, and the binary-search qindex
  regulator, grounded on av1_calc_pframe/iframe_target_size_one_pass_cbr,
  rc_pick_q_and_bounds_no_stats_cbr and
  calc_active_worst/best_quality_no_stats_cbr.

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

func (e *Engine) setFrameTarget(target int64) {
	e.state.ThisFrameTarget = target
}

// clampIFrameTargetSize implements av1_rc_clamp_iframe_target_size.
func (e *Engine) clampIFrameTargetSize(target int64) int64 {
	s := &e.state
	if e.cfg.MaxIntraBitratePct > 0 {
		maxIntraTarget := s.AvgFrameBandwidth * int64(e.cfg.MaxIntraBitratePct) / 100
		if target > maxIntraTarget {
			target = maxIntraTarget
		}
	}
	if target > s.MaxFrameBandwidth {
		target = s.MaxFrameBandwidth
	}
	return target
}

// calcIFrameTargetSize implements av1_calc_iframe_target_size_one_pass_cbr:
// the same dynamic kf_boost target-size formula VP9 uses (distinct from the
// fixed State.KFBoost constant ComputeQP assigns for the active-quality
// lookup, see engine.go).
func (e *Engine) calcIFrameTargetSize() int64 {
	s := &e.state
	if s.CurrentVideoFrame == 0 {
		return e.clampIFrameTargetSize(s.StartingBufferLevel / 2)
	}

	framerate := e.cfg.Framerate
	if len(e.layers) > 0 {
		framerate = e.layers[rc.LayerIndex(e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers)].Framerate
	}

	kfBoost := 32.0
	if v := 2*framerate - 16; v > kfBoost {
		kfBoost = v
	}
	if float64(s.FramesSinceKey) < framerate/2 {
		kfBoost = kfBoost * float64(s.FramesSinceKey) / (framerate / 2)
	}
	target := int64((16.0 + kfBoost) * float64(s.AvgFrameBandwidth) / 16.0)
	return e.clampIFrameTargetSize(target)
}

// calcPFrameTargetSize implements av1_calc_pframe_target_size_one_pass_cbr,
// SVC-aware via the per-layer AvgFrameSize the same way VP9's own
// calcPFrameTargetSize is.
func (e *Engine) calcPFrameTargetSize() int64 {
	s := &e.state
	diff := s.OptimalBufferLevel - s.BufferLevel
	onePctBits := int64(1) + s.OptimalBufferLevel/100

	target := s.AvgFrameBandwidth
	minFrameTarget := s.AvgFrameBandwidth >> 4
	if minFrameTarget < rc.FrameOverheadBits {
		minFrameTarget = rc.FrameOverheadBits
	}

	if len(e.layers) > 0 {
		lc := &e.layers[rc.LayerIndex(e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers)]
		target = lc.AvgFrameSize
		minFrameTarget = lc.AvgFrameSize >> 4
		if minFrameTarget < rc.FrameOverheadBits {
			minFrameTarget = rc.FrameOverheadBits
		}
	}

	switch {
	case diff > 0:
		pctLow := diff / onePctBits
		if pctLow > int64(e.cfg.UndershootPct) {
			pctLow = int64(e.cfg.UndershootPct)
		}
		target -= (target * pctLow) / 200
	case diff < 0:
		pctHigh := -diff / onePctBits
		if pctHigh > int64(e.cfg.OvershootPct) {
			pctHigh = int64(e.cfg.OvershootPct)
		}
		target += (target * pctHigh) / 200
	}

	if target > s.MaxFrameBandwidth {
		target = s.MaxFrameBandwidth
	}
	if e.cfg.MaxInterBitratePct > 0 {
		maxRate := s.AvgFrameBandwidth * int64(e.cfg.MaxInterBitratePct) / 100
		if target > maxRate {
			target = maxRate
		}
	}
	if target < minFrameTarget {
		return minFrameTarget
	}
	return target
}

// computeQDelta implements av1_compute_qdelta: a linear scan over qindex
// for the Q-value ratio between qstart and qtarget, used by the key-frame
// small-image adjustment in calcActiveBestQuality.
func (e *Engine) computeQDelta(qstart, qtarget float64) int {
	s := &e.state
	startIndex := s.WorstQuality
	targetIndex := s.WorstQuality
	for i := s.BestQuality; i < s.WorstQuality; i++ {
		startIndex = i
		if rc.ConvertQindexToQ(i, s.BitDepth) >= qstart {
			break
		}
	}
	for i := s.BestQuality; i < s.WorstQuality; i++ {
		targetIndex = i
		if rc.ConvertQindexToQ(i, s.BitDepth) >= qtarget {
			break
		}
	}
	return targetIndex - startIndex
}

// computeQDeltaByRate implements av1_compute_qdelta_by_rate: a
// bits-per-mb-ratio delta from qindex, found by a linear scan upward from
// BestQuality for the first qindex whose bits-per-mb is at or below the
// scaled target. Used by activeQualityRange's key-frame top_index step, a
// step VP9's own target.go does not have.
func (e *Engine) computeQDeltaByRate(ft rc.FrameType, qindex int, rateTargetRatio float64, screenContent bool) int {
	s := &e.state
	correctionFactor := rc.GetRateCorrectionFactor(s, ft, minBpbFactor, maxBpbFactor)
	bitsAtQ := bitsPerMB(ft, qindex, correctionFactor, s.BitDepth, screenContent)
	targetBitsPerMB := int64(float64(bitsAtQ) * rateTargetRatio)

	target := s.WorstQuality
	for i := s.BestQuality; i < s.WorstQuality; i++ {
		target = i
		if bitsPerMB(ft, i, correctionFactor, s.BitDepth, screenContent) <= targetBitsPerMB {
			break
		}
	}
	return target - qindex
}

func (e *Engine) getKFActiveQuality(q int) int {
	return rc.GetActiveQuality(q, e.state.KFBoost, kfLowBoost, kfHighBoost, &e.minq.KfLow, &e.minq.KfHigh)
}

// calcActiveWorstQuality implements calc_active_worst_quality_no_stats_cbr:
// the same ambient-QP-weighted buffer-fullness selection VP9 uses, except
// AV1 returns WorstQuality immediately for a key frame rather than running
// the buffer-fullness adjustment at all.
func (e *Engine) calcActiveWorstQuality() int {
	s := &e.state
	if s.FrameType == rc.KeyFrame {
		return s.WorstQuality
	}

	criticalLevel := s.OptimalBufferLevel >> 3

	const numFramesWeightKey = 5
	var ambientQP int
	if s.CurrentVideoFrame < numFramesWeightKey {
		ambientQP = s.AvgFrameQindex[rc.IdxInter]
		if s.AvgFrameQindex[rc.IdxKey] < ambientQP {
			ambientQP = s.AvgFrameQindex[rc.IdxKey]
		}
	} else {
		ambientQP = s.AvgFrameQindex[rc.IdxInter]
	}
	activeWorstQuality := s.WorstQuality
	if v := (ambientQP * 5) >> 2; v < activeWorstQuality {
		activeWorstQuality = v
	}

	switch {
	case s.BufferLevel > s.OptimalBufferLevel:
		maxAdjustmentDown := activeWorstQuality / 3
		if maxAdjustmentDown > 0 {
			buffLvlStep := (s.MaximumBufferSize - s.OptimalBufferLevel) / int64(maxAdjustmentDown)
			if buffLvlStep > 0 {
				adjustment := int((s.BufferLevel - s.OptimalBufferLevel) / buffLvlStep)
				activeWorstQuality -= adjustment
			}
		}
	case s.BufferLevel > criticalLevel:
		if criticalLevel > 0 {
			buffLvlStep := s.OptimalBufferLevel - criticalLevel
			adjustment := 0
			if buffLvlStep > 0 {
				adjustment = int(int64(activeWorstQuality-ambientQP) * (s.OptimalBufferLevel - s.BufferLevel) / buffLvlStep)
			}
			activeWorstQuality = ambientQP + adjustment
		}
	default:
		activeWorstQuality = s.WorstQuality
	}
	return activeWorstQuality
}

// calcActiveBestQuality implements calc_active_best_quality_no_stats_cbr's
// ordinary (non-forced-key-frame) branches.
func (e *Engine) calcActiveBestQuality(activeWorstQuality int) int {
	s := &e.state
	if s.FrameType == rc.KeyFrame {
		activeBestQuality := e.getKFActiveQuality(s.AvgFrameQindex[rc.IdxKey])
		qAdjFactor := 1.0
		if s.Width*s.Height <= 352*288 {
			qAdjFactor -= 0.25
		}
		qVal := rc.ConvertQindexToQ(activeBestQuality, s.BitDepth)
		activeBestQuality += e.computeQDelta(qVal, qVal*qAdjFactor)
		return activeBestQuality
	}

	rtcMinq := &e.minq.Rtc
	avgQIdx := s.AvgFrameQindex[rc.IdxKey]
	if s.CurrentVideoFrame > 1 {
		avgQIdx = s.AvgFrameQindex[rc.IdxInter]
	}
	if avgQIdx < activeWorstQuality {
		return rtcMinq[avgQIdx]
	}
	return rtcMinq[activeWorstQuality]
}

// activeQualityRange implements rc_pick_q_and_bounds_no_stats_cbr (minus the
// forced-key-frame-interval special case, out of scope without a periodic
// key-frame scheduler, consistent with VP9's own omission). AV1 additionally
// moves active_worst_quality on every key frame after the first by
// av1_compute_qdelta_by_rate at a rate ratio of 2.0, which never raises it
// (twice the bits needs a qindex no higher), a step VP9's activeQualityRange
// does not run.
func (e *Engine) activeQualityRange() (bottom, top int) {
	s := &e.state
	activeWorstQuality := e.calcActiveWorstQuality()
	activeBestQuality := e.calcActiveBestQuality(activeWorstQuality)

	activeBestQuality = clampInt(activeBestQuality, s.BestQuality, s.WorstQuality)
	activeWorstQuality = clampInt(activeWorstQuality, activeBestQuality, s.WorstQuality)

	if s.FrameType == rc.KeyFrame && s.CurrentVideoFrame != 0 {
		delta := e.computeQDeltaByRate(rc.KeyFrame, activeWorstQuality, 2.0, e.screenContent)
		activeWorstQuality += delta
		activeWorstQuality = clampInt(activeWorstQuality, activeBestQuality, s.WorstQuality)
	}

	return activeBestQuality, activeWorstQuality
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// findQindexByRate returns the smallest qindex in [bestQuality, worstQuality]
// whose estimated bits-per-mb is at or below targetBitsPerMB, using binary
// search since bits-per-mb is monotonically non-increasing in qindex. This
// is find_qindex_by_rate; VP8/VP9's RegulateLinear does the equivalent
// search linearly since AV1's is the only backend with a large enough
// qindex space (256) to make the binary search worthwhile.
func findQindexByRate(ft rc.FrameType, targetBitsPerMB int64, bestQuality, worstQuality int, correctionFactor float64, bitDepth int, screenContent bool) int {
	low, high := bestQuality, worstQuality
	for low < high {
		mid := (low + high) / 2
		if bitsPerMB(ft, mid, correctionFactor, bitDepth, screenContent) <= targetBitsPerMB {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return low
}

// findClosestQindexByRate implements find_closest_qindex_by_rate: the
// binary search above, tie-broken against qindex-1 by whichever is
// numerically closer to the target, mirroring RegulateLinear's tie-break
// rule without its linear scan.
func findClosestQindexByRate(targetBitsPerFrame int64, mbs, bestQuality, worstQuality int, ft rc.FrameType, correctionFactor float64, bitDepth int, screenContent bool) int {
	targetBitsPerMB := (targetBitsPerFrame << rc.BPerMBNormBits) / int64(mbs)
	q := findQindexByRate(ft, targetBitsPerMB, bestQuality, worstQuality, correctionFactor, bitDepth, screenContent)
	if q > bestQuality {
		errAtQ := targetBitsPerMB - bitsPerMB(ft, q, correctionFactor, bitDepth, screenContent)
		errAtQMinus1 := bitsPerMB(ft, q-1, correctionFactor, bitDepth, screenContent) - targetBitsPerMB
		if errAtQMinus1 >= 0 && errAtQMinus1 < errAtQ {
			q--
		}
	}
	return q
}

// adjustQCBR wraps rc.AdjustQCBR with two genuinely AV1-specific steps from
// adjust_q_cbr: a push towards active_worst_quality on a large resolution
// increase, and a hard cap on how far q may drop below the previous frame's
// qindex in one step. The scene-detection Q nudge in the same source
// function is omitted (see DESIGN.md).
func (e *Engine) adjustQCBR(q, activeWorstQuality int) int {
	s := &e.state
	q = rc.AdjustQCBR(s, q, s.BestQuality, s.WorstQuality)

	if s.LastWidth > 0 && s.LastHeight > 0 && s.Width*s.Height > (3*s.LastWidth*s.LastHeight)/2 {
		q = (q + activeWorstQuality) >> 1
	}

	if s.Q1Frame-q > maxQDelta {
		q = s.Q1Frame - maxQDelta
	}

	return clampInt(q, s.BestQuality, s.WorstQuality)
}

// regulate runs the binary bits-per-mb search and AV1's extended CBR
// oscillation clamp, implementing av1_rc_regulate_q followed by
// adjust_q_cbr.
func (e *Engine) regulate(bottom, top int) int {
	s := &e.state
	correctionFactor := rc.GetRateCorrectionFactor(s, s.FrameType, minBpbFactor, maxBpbFactor)
	q := findClosestQindexByRate(s.ThisFrameTarget, s.MBs, bottom, top, s.FrameType, correctionFactor, s.BitDepth, e.screenContent)
	if q > top {
		if s.ThisFrameTarget >= s.MaxFrameBandwidth {
			top = q
		} else {
			q = top
		}
	}
	return e.adjustQCBR(q, top)
}
