/*
NAME
  target.go

DESCRIPTION
  target.go implements the one-pass CBR target-size allocator, the
  active-Q range selector, and the qindex regulator, grounded on
  calc_pframe/iframe_target_size_one_pass_cbr, rc_pick_q_and_bounds_one_pass_cbr
  and calc_active_worst_quality_one_pass_cbr.

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

func (e *Engine) setFrameTarget(target int64) {
	e.state.ThisFrameTarget = target
}

// clampIFrameTargetSize implements vp9_rc_clamp_iframe_target_size.
func (e *Engine) clampIFrameTargetSize(target int64) int64 {
	if e.cfg.MaxIntraBitratePct > 0 {
		maxRate := e.state.AvgFrameBandwidth * int64(e.cfg.MaxIntraBitratePct) / 100
		if target > maxRate {
			target = maxRate
		}
	}
	if target > e.state.MaxFrameBandwidth {
		target = e.state.MaxFrameBandwidth
	}
	return target
}

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

func (e *Engine) getKFActiveQuality(q int) int {
	return rc.GetActiveQuality(q, e.state.KFBoost, rc.KfLowBoost, rc.KfHighBoost, &e.minq.KfLow, &e.minq.KfHigh)
}

// calcActiveWorstQuality implements calc_active_worst_quality_one_pass_cbr:
// buffer-fullness-driven active-worst-quality selection around an ambient Q.
func (e *Engine) calcActiveWorstQuality() int {
	s := &e.state
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

// activeQualityRange implements rc_pick_q_and_bounds_one_pass_cbr's bound
// selection (minus the forced-key-frame-interval special case, which is out
// of scope without a periodic key-frame scheduler driving
// ThisKeyFrameForced).
func (e *Engine) activeQualityRange() (bottom, top int) {
	s := &e.state
	activeWorstQuality := e.calcActiveWorstQuality()
	var activeBestQuality int

	if s.FrameType == rc.KeyFrame {
		if s.CurrentVideoFrame > 0 {
			activeBestQuality = e.getKFActiveQuality(s.AvgFrameQindex[rc.IdxKey])
			qAdjFactor := 1.0
			if s.Width*s.Height <= 352*288 {
				qAdjFactor -= 0.25
			}
			qVal := rc.ConvertQindexToQ(activeBestQuality, s.BitDepth)
			activeBestQuality += e.computeQDelta(qVal, qVal*qAdjFactor)
		} else {
			activeBestQuality = s.BestQuality
		}
	} else {
		rtcMinq := &e.minq.Rtc
		avgQIdx := s.AvgFrameQindex[rc.IdxInter]
		if s.CurrentVideoFrame <= 1 {
			avgQIdx = s.AvgFrameQindex[rc.IdxKey]
		}
		if avgQIdx < activeWorstQuality {
			activeBestQuality = rtcMinq[avgQIdx]
		} else {
			activeBestQuality = rtcMinq[activeWorstQuality]
		}
	}

	activeBestQuality = clamp(activeBestQuality, s.BestQuality, s.WorstQuality)
	activeWorstQuality = clamp(activeWorstQuality, activeBestQuality, s.WorstQuality)
	return activeBestQuality, activeWorstQuality
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// regulate runs the linear bits-per-mb search and the CBR oscillation
// clamp, implementing vp9_rc_regulate_q followed by adjust_q_cbr.
func (e *Engine) regulate(bottom, top int) int {
	s := &e.state
	correctionFactor := rc.GetRateCorrectionFactor(s, s.FrameType, minBpbFactor, maxBpbFactor)
	q := rc.RegulateLinear(s.ThisFrameTarget, s.MBs, bottom, top, s.FrameType, correctionFactor, s.BitDepth, bitsPerMB)
	if q > top {
		if s.ThisFrameTarget >= s.MaxFrameBandwidth {
			top = q
		} else {
			q = top
		}
	}
	return rc.AdjustQCBR(s, q, s.BestQuality, s.WorstQuality)
}
