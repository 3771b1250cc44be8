/*
NAME
  engine.go

DESCRIPTION
  engine.go implements rc.Engine for VP9: one-pass CBR target sizing,
  active-Q range selection, the linear bits-per-mb Q search, the CBR
  oscillation clamp, and the post-encode rate-correction-factor update, all
  grounded on libvpx's one-pass CBR real-time rate controller.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vp9 implements the VP9 backend of rc.Engine.
package vp9

import (
	"github.com/ausocean/brc/rc"
)

const (
	minBpbFactor = 0.005
	maxBpbFactor = 50.0

	minGFInterval           = 4
	maxGFInterval           = 16
	maxStaticGFGroupLength  = 250
	maxMBRate               = 250
	maxRate1080p            = 4000000

	loopFilterMaxLevel = 63
)

func init() {
	rc.Register(rc.VP9, rc.AlgoLibvpxVP9, func() rc.Engine { return &Engine{} })
	rc.Register(rc.VP9, rc.AlgoDefault, func() rc.Engine { return &Engine{} })
}

// Engine is VP9's rc.Engine backend.
type Engine struct {
	cfg   *rc.Config
	state rc.State
	minq  *rc.MinqLUTs

	layers              []rc.LayerContext
	numSpatialLayers    int
	numTemporalLayers   int
	spatialLayerID      int
	temporalLayerID     int

	qpSet  bool
	qindex int
}

// Codec implements rc.Engine.
func (e *Engine) Codec() rc.CodecKind { return rc.VP9 }

func mbCount(width, height int) int {
	cols := (width + 15) / 16
	rows := (height + 15) / 16
	return cols * rows
}

func defaultMinGFInterval(width, height int, framerate float64) int {
	const factorSafe = 3840 * 2160 * 20.0
	factor := float64(width) * float64(height) * framerate
	interval := int(framerate * 0.125)
	if interval < minGFInterval {
		interval = minGFInterval
	}
	if interval > maxGFInterval {
		interval = maxGFInterval
	}
	if factor <= factorSafe {
		return interval
	}
	scaled := int(float64(minGFInterval)*factor/factorSafe + 0.5)
	if scaled > interval {
		return scaled
	}
	return interval
}

func defaultMaxGFInterval(framerate float64, minInterval int) int {
	interval := int(framerate * 0.75)
	if interval > maxGFInterval {
		interval = maxGFInterval
	}
	interval += interval & 0x01
	if interval < minInterval {
		return minInterval
	}
	return interval
}

// Init implements rc.Engine.
func (e *Engine) Init(cfg *rc.Config) error {
	if cfg.Codec != rc.VP9 {
		return rc.NewUnsupportedCodec(cfg.Codec)
	}
	e.cfg = cfg
	s := &e.state

	s.Width, s.Height = cfg.Width, cfg.Height
	s.BitDepth = cfg.BitDepth
	s.MBs = mbCount(cfg.Width, cfg.Height)

	s.BestQuality = rc.QuantizerToQindex(cfg.MinQuantizer)
	s.WorstQuality = rc.QuantizerToQindex(cfg.MaxQuantizer)

	s.RateCorrectionFactors = make([]float64, rc.RateFactorLevels)
	for i := range s.RateCorrectionFactors {
		s.RateCorrectionFactors[i] = 1.0
	}

	e.updateFramerate()
	s.SetBufferSizes(cfg.TargetBitrate, cfg.BufferStartingMs, cfg.BufferOptimalMs, cfg.BufferMaxMs)
	s.BufferLevel = s.StartingBufferLevel
	s.BitsOffTarget = s.StartingBufferLevel

	s.RollingTargetBits = s.AvgFrameBandwidth
	s.RollingActualBits = s.AvgFrameBandwidth

	s.AvgFrameQindex[rc.IdxKey] = s.WorstQuality
	s.AvgFrameQindex[rc.IdxInter] = s.WorstQuality
	s.LastQ[rc.IdxKey] = s.BestQuality
	s.LastQ[rc.IdxInter] = s.WorstQuality

	s.FramesSinceKey = 8
	s.FramesToKey = cfg.KeyFrameIntervalFrames

	s.NIAvQI = s.WorstQuality
	s.AvgQ = rc.ConvertQindexToQ(s.WorstQuality, s.BitDepth)

	minGF := defaultMinGFInterval(cfg.Width, cfg.Height, cfg.Framerate)
	maxGF := defaultMaxGFInterval(cfg.Framerate, minGF)
	s.BaselineGFInterval = (minGF + maxGF) / 2
	s.FramesTillGFUpdateDue = 0
	// gf_noboost_onepass_cbr is unconditionally true: this backend never runs
	// the two-pass/ARF boost search libvpx's golden-frame group planner does.
	s.GFNoBoostOnePassCBR = true

	// kf_boost is left at its libvpx one-pass-CBR default of 0 (the boost
	// search that would otherwise raise it belongs to VBR/two-pass mode,
	// which this backend does not implement), so get_kf_active_quality always
	// resolves to the high-motion kf minq table.
	s.KFBoost = 0

	e.minq = rc.BuildMinqLUTs(cfg.BitDepth, 0.70)

	e.numSpatialLayers = cfg.SpatialLayers
	if e.numSpatialLayers < 1 {
		e.numSpatialLayers = 1
	}
	e.numTemporalLayers = cfg.TemporalLayers
	if e.numTemporalLayers < 1 {
		e.numTemporalLayers = 1
	}
	if e.numSpatialLayers > 1 || e.numTemporalLayers > 1 {
		e.initLayers()
	}

	return nil
}

// twoPassVBRMaxSectionPct mirrors the fixed two_pass_vbrmax_section value
// the reference RTC wrapper sets (2000, i.e. 20x); this module runs one-pass
// CBR only, but the max-frame-bandwidth ceiling formula keeps using it.
const twoPassVBRMaxSectionPct = 2000

func (e *Engine) updateFramerate() {
	s := &e.state
	s.AvgFrameBandwidth = int64(float64(e.cfg.TargetBitrate) / e.cfg.Framerate)
	s.MinFrameBandwidth = rc.FrameOverheadBits

	vbrMaxBits := s.AvgFrameBandwidth * twoPassVBRMaxSectionPct / 100
	s.MaxFrameBandwidth = int64(s.MBs) * maxMBRate
	if maxRate1080p > s.MaxFrameBandwidth {
		s.MaxFrameBandwidth = maxRate1080p
	}
	if vbrMaxBits > s.MaxFrameBandwidth {
		s.MaxFrameBandwidth = vbrMaxBits
	}
}

// UpdateConfig implements rc.Engine.
func (e *Engine) UpdateConfig(cfg *rc.Config) error {
	if cfg.Codec != rc.VP9 {
		return rc.NewUnsupportedCodec(cfg.Codec)
	}
	e.cfg = cfg
	s := &e.state
	s.Width, s.Height = cfg.Width, cfg.Height
	s.MBs = mbCount(cfg.Width, cfg.Height)
	s.BestQuality = rc.QuantizerToQindex(cfg.MinQuantizer)
	s.WorstQuality = rc.QuantizerToQindex(cfg.MaxQuantizer)
	e.updateFramerate()
	s.SetBufferSizes(cfg.TargetBitrate, cfg.BufferStartingMs, cfg.BufferOptimalMs, cfg.BufferMaxMs)
	for i := range e.layers {
		rc.ResizeLayerBuffers(&e.layers[i], s, cfg.TargetBitrate)
	}
	return nil
}

// ComputeQP implements rc.Engine.
func (e *Engine) ComputeQP(params rc.FrameParams) error {
	s := &e.state
	s.FrameType = params.FrameType
	e.spatialLayerID = int(params.SpatialLayerID)
	e.temporalLayerID = int(params.TemporalLayerID)

	if len(e.layers) > 0 {
		e.restoreLayer()
	}

	var target int64
	if params.FrameType == rc.KeyFrame {
		target = e.calcIFrameTargetSize()
	} else {
		target = e.calcPFrameTargetSize()
	}
	e.setFrameTarget(target)

	if len(e.layers) > 0 {
		bufferLevel, bitsOffTarget := rc.UpdateHigherTemporalLayersPreEncode(e.layers, e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers)
		s.BufferLevel = bufferLevel
		s.BitsOffTarget = bitsOffTarget
	} else {
		s.PreEncodeUpdate()
	}

	bottom, top := e.activeQualityRange()
	q := e.regulate(bottom, top)

	s.BaseQindex = q
	s.ActiveBestQuality = bottom
	s.ActiveWorstQuality = top
	e.qindex = q
	e.qpSet = true
	return nil
}

// GetQP implements rc.Engine, returning the internal qindex chosen by the
// most recent ComputeQP call.
func (e *Engine) GetQP() (int, error) {
	if !e.qpSet {
		return 0, rc.NewError(rc.StatusInvalidParam, "vp9: GetQP called before ComputeQP")
	}
	return e.qindex, nil
}

// GetLoopFilterLevel implements rc.Engine's analytic VP9 loop-filter
// derivation: a linear fit of filter level against the AC-quant step at the
// current qindex, the formula libvpx's own vp9_pick_filter_level falls back
// to when skipping the pixel-domain search (LPF_PICK_FROM_Q).
func (e *Engine) GetLoopFilterLevel() (int, error) {
	if !e.qpSet {
		return 0, rc.NewError(rc.StatusInvalidParam, "vp9: GetLoopFilterLevel called before ComputeQP")
	}
	acq := rc.AcQuant(e.qindex, 0, e.state.BitDepth)
	var level int
	switch e.state.BitDepth {
	case 10:
		level = int(rc.RoundPowerOfTwo(int64(acq)*20723+4060632, 20))
	case 12:
		level = int(rc.RoundPowerOfTwo(int64(acq)*20723+16242526, 22))
	default:
		level = int(rc.RoundPowerOfTwo(int64(acq)*20723+1015158, 18))
	}
	if level < 0 {
		level = 0
	}
	if level > loopFilterMaxLevel {
		level = loopFilterMaxLevel
	}
	return level, nil
}

// PostEncodeUpdate implements rc.Engine.
func (e *Engine) PostEncodeUpdate(encodedFrameSizeBytes uint64) error {
	if !e.qpSet {
		return rc.NewError(rc.StatusInvalidParam, "vp9: PostEncodeUpdate called before ComputeQP")
	}
	s := &e.state
	qindex := s.BaseQindex
	s.ProjectedFrameSize = int64(encodedFrameSizeBytes) * 8

	estAtQ := estimateBitsAtQ(s.FrameType, qindex, s.MBs, rc.GetRateCorrectionFactor(s, s.FrameType, minBpbFactor, maxBpbFactor), s.BitDepth)
	s.UpdateRateCorrectionFactors(s.FrameType, s.ProjectedFrameSize, estAtQ, minBpbFactor, maxBpbFactor)

	if s.FrameType == rc.KeyFrame {
		s.LastQ[rc.IdxKey] = qindex
		s.AvgFrameQindex[rc.IdxKey] = int(rc.RoundPowerOfTwo(int64(3*s.AvgFrameQindex[rc.IdxKey]+qindex), 2))
	} else {
		s.LastQ[rc.IdxInter] = qindex
		s.AvgFrameQindex[rc.IdxInter] = int(rc.RoundPowerOfTwo(int64(3*s.AvgFrameQindex[rc.IdxInter]+qindex), 2))
		s.NIFrames++
		s.TotQ += rc.ConvertQindexToQ(qindex, s.BitDepth)
		s.AvgQ = s.TotQ / float64(s.NIFrames)
		s.NITotQI += qindex
		s.NIAvQI = s.NITotQI / s.NIFrames
	}

	if qindex < s.LastBoostedQindex || s.FrameType == rc.KeyFrame {
		s.LastBoostedQindex = qindex
	}
	if s.FrameType == rc.KeyFrame {
		s.LastKFQindex = qindex
	}

	s.PostEncodeUpdate(s.ProjectedFrameSize)

	if s.FrameType != rc.KeyFrame {
		s.RollingTargetBits = rc.RoundPowerOfTwo(s.RollingTargetBits*3+s.ThisFrameTarget, 2)
		s.RollingActualBits = rc.RoundPowerOfTwo(s.RollingActualBits*3+s.ProjectedFrameSize, 2)
	}

	s.TotalActualBits += s.ProjectedFrameSize
	if e.cfg != nil {
		s.TotalTargetBits += s.AvgFrameBandwidth
	}

	if s.FrameType != rc.KeyFrame {
		if s.FramesTillGFUpdateDue > 0 {
			s.FramesTillGFUpdateDue--
		}
	} else {
		s.FramesSinceKey = 0
	}
	s.FramesSinceKey++
	s.FramesToKey--

	s.LastAvgFrameBandwidth = s.AvgFrameBandwidth

	if len(e.layers) > 0 {
		e.saveLayer(s.ProjectedFrameSize)
	}

	s.CurrentVideoFrame++
	e.qpSet = false
	return nil
}
