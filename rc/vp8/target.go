/*
NAME
  target.go

DESCRIPTION
  target.go implements VP8's one-pass CBR target-size allocator
  (calc_iframe_target_size/calc_pframe_target_size), the buffered-mode
  active-worst-quality adjustment, the full-buffer active-worst-quality
  relief step from compute_qp, and the linear Q-regulator.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp8

import "github.com/ausocean/brc/rc"

// minGFIntervalDoubled gates the GF-boost rate-adjustment step to groups
// wide enough for it to make sense, matching MIN_GF_INTERVAL<<1.
const minGFIntervalDoubled = 4 << 1

func (e *Engine) calcIFrameTargetSize() {
	s := &e.state
	var target int64

	if s.CurrentVideoFrame == 0 {
		target = s.StartingBufferLevel / 2
		if cap := int64(float64(e.cfg.TargetBitrate) * 1.5); target > cap {
			target = cap
		}
	} else {
		q := s.AvgFrameQindex[rc.IdxInter]
		kfBoost := 32.0
		if v := 2*e.cfg.Framerate - 16; v > kfBoost {
			kfBoost = v
		}
		kfBoost = kfBoost * float64(kfBoostQAdjustment[q]) / 100
		if float64(s.FramesSinceKey) < e.cfg.Framerate/2 {
			kfBoost = kfBoost * float64(s.FramesSinceKey) / (e.cfg.Framerate / 2)
		}
		if kfBoost < 16 {
			kfBoost = 16
		}
		target = int64((16.0 + kfBoost) * float64(s.AvgFrameBandwidth) / 16.0)
	}

	if e.cfg.MaxIntraBitratePct > 0 {
		maxRate := s.AvgFrameBandwidth * int64(e.cfg.MaxIntraBitratePct) / 100
		if target > maxRate {
			target = maxRate
		}
	}

	s.ThisFrameTarget = target
	s.ActiveWorstQuality = s.WorstQuality
}

func (e *Engine) calcPFrameTargetSize() {
	s := &e.state
	minFrameTarget := s.AvgFrameBandwidth / 4

	var target int64
	if s.KFOverspendBits > 0 {
		adjustment := e.kfBitrateAdjustment
		if adjustment > s.KFOverspendBits {
			adjustment = s.KFOverspendBits
		}
		if cap := s.AvgFrameBandwidth - minFrameTarget; adjustment > cap {
			adjustment = cap
		}
		s.KFOverspendBits -= adjustment
		target = s.AvgFrameBandwidth - adjustment
		if target < minFrameTarget {
			target = minFrameTarget
		}
	} else {
		target = s.AvgFrameBandwidth
	}

	// non_gf_bitrate_adjustment is never assigned in this one-pass CBR path
	// (it belongs to the lookahead/second-pass code this module does not
	// carry), so this recovery step is always a no-op; kept for fidelity
	// with the source's control flow.
	if s.GFOverspendBits > 0 && target > minFrameTarget {
		const nonGFBitrateAdjustment = 0
		adjustment := int64(nonGFBitrateAdjustment)
		if adjustment > s.GFOverspendBits {
			adjustment = s.GFOverspendBits
		}
		if cap := target - minFrameTarget; adjustment > cap {
			adjustment = cap
		}
		s.GFOverspendBits -= adjustment
		target -= adjustment
	}

	if s.LastBoostedQindex > 150 && s.FramesTillGFUpdateDue > 0 &&
		s.BaselineGFInterval >= minGFIntervalDoubled {
		// last_boost isn't otherwise tracked on State; the boost-sizing search
		// this reads from (calc_gf_params) is out of scope, so this step never
		// actually fires in this backend. Field kept at its zero value.
	}

	if target < minFrameTarget {
		target = minFrameTarget
	}
	s.ThisFrameTarget = target

	if e.buffered {
		e.applyBufferedModeAdjustment()
	} else {
		s.ActiveWorstQuality = s.WorstQuality
	}

	if s.FramesTillGFUpdateDue == 0 {
		e.refreshGolden = true
		s.ThisFrameTarget = s.AvgFrameBandwidth
		s.FramesTillGFUpdateDue = s.BaselineGFInterval
	}
}

// applyBufferedModeAdjustment implements the buffered_mode branch of
// calc_pframe_target_size: an undershoot/overshoot percentage adjustment to
// this_frame_target driven by buffer fullness, followed by an
// auto-worst-quality derivation once enough inter frames have been seen.
func (e *Engine) applyBufferedModeAdjustment() {
	s := &e.state
	onePercentBits := int64(1) + s.OptimalBufferLevel/100

	if s.BufferLevel < s.OptimalBufferLevel || s.BitsOffTarget < s.OptimalBufferLevel {
		var percentLow int64
		if s.BufferLevel < s.OptimalBufferLevel {
			percentLow = (s.OptimalBufferLevel - s.BufferLevel) / onePercentBits
		} else if s.BitsOffTarget < 0 {
			if s.TotalActualBits > 0 {
				percentLow = 100 * -s.BitsOffTarget / s.TotalActualBits
			}
		}
		if percentLow > int64(e.cfg.UndershootPct) {
			percentLow = int64(e.cfg.UndershootPct)
		} else if percentLow < 0 {
			percentLow = 0
		}
		s.ThisFrameTarget -= (s.ThisFrameTarget * percentLow) / 200

		if s.NIFrames > 150 {
			criticalBufferLevel := s.BufferLevel
			if s.BitsOffTarget < criticalBufferLevel {
				criticalBufferLevel = s.BitsOffTarget
			}
			if criticalBufferLevel < s.OptimalBufferLevel {
				if criticalBufferLevel > s.OptimalBufferLevel>>2 {
					qAdjustmentRange := int64(s.WorstQuality - s.NIAvQI)
					aboveBase := criticalBufferLevel - (s.OptimalBufferLevel >> 2)
					s.ActiveWorstQuality = s.WorstQuality - int(qAdjustmentRange*aboveBase/((s.OptimalBufferLevel*3)>>2))
				} else {
					s.ActiveWorstQuality = s.WorstQuality
				}
			} else {
				s.ActiveWorstQuality = s.NIAvQI
			}
		} else {
			s.ActiveWorstQuality = s.WorstQuality
		}
	} else {
		var percentHigh int64
		if s.BufferLevel > s.OptimalBufferLevel {
			percentHigh = (s.BufferLevel - s.OptimalBufferLevel) / onePercentBits
		} else if s.BitsOffTarget > s.OptimalBufferLevel && s.TotalActualBits > 0 {
			percentHigh = 100 * s.BitsOffTarget / s.TotalActualBits
		}
		if percentHigh > int64(e.cfg.OvershootPct) {
			percentHigh = int64(e.cfg.OvershootPct)
		} else if percentHigh < 0 {
			percentHigh = 0
		}
		s.ThisFrameTarget += (s.ThisFrameTarget * percentHigh) / 200

		if s.NIFrames > 150 {
			s.ActiveWorstQuality = s.NIAvQI
		} else {
			s.ActiveWorstQuality = s.WorstQuality
		}
	}

	s.ActiveBestQuality = s.BestQuality
	if s.ActiveWorstQuality <= s.ActiveBestQuality {
		s.ActiveWorstQuality = s.ActiveBestQuality + 1
	}
	if s.ActiveWorstQuality > s.WorstQuality {
		s.ActiveWorstQuality = s.WorstQuality
	}
}

// reduceActiveWorstQualityForFullBuffer implements compute_qp's pre-Q-pick
// relief step: when the buffer is already at or above optimal and buffered
// mode is on, relax active_worst_quality so spare buffer headroom gets used
// instead of wasted.
func (e *Engine) reduceActiveWorstQualityForFullBuffer() {
	s := &e.state
	if !(s.BufferLevel >= s.OptimalBufferLevel && e.buffered) {
		return
	}
	adjustment := s.ActiveWorstQuality / 4
	if adjustment == 0 {
		return
	}
	if s.BufferLevel < s.MaximumBufferSize {
		buffLvlStep := int64(0)
		if adjustment > 0 {
			buffLvlStep = (s.MaximumBufferSize - s.OptimalBufferLevel) / int64(adjustment)
		}
		if buffLvlStep > 0 {
			adjustment = int((s.BufferLevel - s.OptimalBufferLevel) / buffLvlStep)
		} else {
			adjustment = 0
		}
	}
	s.ActiveWorstQuality -= adjustment
	if s.ActiveWorstQuality < s.ActiveBestQuality {
		s.ActiveWorstQuality = s.ActiveBestQuality
	}
}

// setActiveBestQuality implements compute_qp's active_best_quality
// selection once ni_frames is past the damping threshold: a min-Q lookup
// keyed by frame type, relaxed further when the buffer is comfortably full.
func (e *Engine) setActiveBestQuality() {
	s := &e.state
	if s.NIFrames <= 150 {
		return
	}
	q := s.ActiveWorstQuality
	if s.FrameType == rc.KeyFrame {
		s.ActiveBestQuality = kfHighMotionMinq[q]
	} else {
		s.ActiveBestQuality = interMinq[q]
	}

	switch {
	case s.BufferLevel >= s.MaximumBufferSize:
		s.ActiveBestQuality = s.BestQuality
	case s.BufferLevel > s.OptimalBufferLevel:
		fraction := (s.BufferLevel - s.OptimalBufferLevel) * 128 / (s.MaximumBufferSize - s.OptimalBufferLevel)
		minQAdjustment := (s.ActiveBestQuality - s.BestQuality) * int(fraction) / 128
		s.ActiveBestQuality -= minQAdjustment
	}
}

// relaxActiveWorstQualityOnOvershoot mirrors compute_qp's post-pick check:
// if the chosen Q pegged active_worst_quality and the previous frame's
// projected size already overshot its bound, ease active_worst_quality up.
// The next frame's calcIFrameTargetSize/calcPFrameTargetSize overwrites
// active_worst_quality before that frame's regulate, so the raised value is
// not used by any Q search.
func (e *Engine) relaxActiveWorstQualityOnOvershoot(q int) {
	s := &e.state
	overShootLimit, _ := e.frameSizeBounds()
	if overShootLimit == 0 {
		overShootLimit = 1
	}
	if q == s.ActiveWorstQuality && s.ActiveWorstQuality < s.WorstQuality && s.ProjectedFrameSize > overShootLimit {
		overSizePercent := float64(s.ProjectedFrameSize-overShootLimit) * 100 / float64(overShootLimit)
		for s.ActiveWorstQuality < s.WorstQuality && overSizePercent > 0 {
			s.ActiveWorstQuality++
			overSizePercent *= 0.96
		}
	}
}

// frameSizeBounds implements compute_frame_size_bounds: the under/overshoot
// limits used only by relaxActiveWorstQualityOnOvershoot in this backend (no
// frame-drop or recode loop consumes them otherwise).
func (e *Engine) frameSizeBounds() (overShoot, underShoot int64) {
	s := &e.state
	target := s.ThisFrameTarget

	switch {
	case s.FrameType == rc.KeyFrame:
		overShoot = target * 9 / 8
		underShoot = target * 7 / 8
	case e.refreshGolden:
		overShoot = target * 9 / 8
		underShoot = target * 7 / 8
	case s.BufferLevel >= (s.OptimalBufferLevel+s.MaximumBufferSize)>>1:
		overShoot = target * 12 / 8
		underShoot = target * 6 / 8
	case s.BufferLevel <= s.OptimalBufferLevel>>1:
		overShoot = target * 10 / 8
		underShoot = target * 4 / 8
	default:
		overShoot = target * 11 / 8
		underShoot = target * 5 / 8
	}

	overShoot += 200
	underShoot -= 200
	if underShoot < 0 {
		underShoot = 0
	}
	return overShoot, underShoot
}

// regulate runs the linear bits-per-mb search, selecting the
// rate-correction-factor slot (key/golden/inter) the way
// libvpx_vp8_regulate_q does.
func (e *Engine) regulate() int {
	s := &e.state
	correctionFactor := e.rateCorrectionFactor()
	return rc.RegulateLinear(s.ThisFrameTarget, s.MBs, s.ActiveBestQuality, s.ActiveWorstQuality, s.FrameType, correctionFactor, 8, bitsPerMB)
}

// rateCorrectionFactor selects the key/golden/inter slot the way both
// update_rate_correction_factors and regulate_q do.
func (e *Engine) rateCorrectionFactor() float64 {
	s := &e.state
	switch {
	case s.FrameType == rc.KeyFrame:
		return s.RateCorrectionFactors[rcfKey]
	case !s.GFNoBoostOnePassCBR && e.refreshGolden:
		return s.RateCorrectionFactors[rcfGF]
	default:
		return s.RateCorrectionFactors[rcfInter]
	}
}

// updateRateCorrectionFactor implements libvpx_vp8_update_rate_correction_factors:
// a fixed-damping adjustment (damp_var selects 0.75/0.375/0.25), distinct
// from VP9/AV1's log10-scaled damping in rc.State.UpdateRateCorrectionFactors.
func (e *Engine) updateRateCorrectionFactor(dampVar int) {
	s := &e.state
	q := s.BaseQindex
	factor := e.rateCorrectionFactor()

	projected := int64(0.5 + factor*float64(bitsPerMBTable[rc.FTIndex(s.FrameType)][q])*float64(s.MBs)) >> rc.BPerMBNormBits

	correctionPct := 100
	if projected > 0 {
		correctionPct = int((100 * s.ProjectedFrameSize) / projected)
	}

	var adjustmentLimit float64
	switch dampVar {
	case 0:
		adjustmentLimit = 0.75
	case 1:
		adjustmentLimit = 0.375
	default:
		adjustmentLimit = 0.25
	}

	switch {
	case correctionPct > 102:
		correctionPct = int(100.5 + float64(correctionPct-100)*adjustmentLimit)
		factor = factor * float64(correctionPct) / 100
		if factor > maxBpbFactor {
			factor = maxBpbFactor
		}
	case correctionPct < 99:
		correctionPct = int(100.5 - float64(100-correctionPct)*adjustmentLimit)
		factor = factor * float64(correctionPct) / 100
		if factor < minBpbFactor {
			factor = minBpbFactor
		}
	}

	switch {
	case s.FrameType == rc.KeyFrame:
		s.RateCorrectionFactors[rcfKey] = factor
	case !s.GFNoBoostOnePassCBR && e.refreshGolden:
		s.RateCorrectionFactors[rcfGF] = factor
	default:
		s.RateCorrectionFactors[rcfInter] = factor
	}
}

// adjustKeyFrameContext implements vp8_adjust_key_frame_context: rolls a
// key frame's overspend into kf/gf recovery budgets (7/8 to key, 1/8 to
// golden, matching the single-layer case) and resets frames_since_key.
func (e *Engine) adjustKeyFrameContext() {
	s := &e.state
	if s.ProjectedFrameSize > s.AvgFrameBandwidth {
		overspend := s.ProjectedFrameSize - s.AvgFrameBandwidth
		s.KFOverspendBits += overspend * 7 / 8
		s.GFOverspendBits += overspend * 1 / 8
		e.kfBitrateAdjustment = s.KFOverspendBits / e.estimateKeyframeFrequency()
	}
	s.FramesSinceKey = 0
}

// estimateKeyframeFrequency is a simplified stand-in for
// estimate_keyframe_frequency's weighted history of recent key-frame
// intervals: this backend does not keep that rolling history (only
// spec.md's data model fields), so it falls back to the configured nominal
// key-frame interval, or two seconds of frames if none was configured.
func (e *Engine) estimateKeyframeFrequency() int64 {
	if e.cfg.KeyFrameIntervalFrames > 0 {
		return int64(e.cfg.KeyFrameIntervalFrames)
	}
	freq := int64(e.cfg.Framerate * 2)
	if freq < 1 {
		freq = 1
	}
	return freq
}
