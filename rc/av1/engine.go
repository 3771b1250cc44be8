/*
NAME
  engine.go

DESCRIPTION
  engine.go implements rc.Engine for AV1: one-pass CBR target sizing, the
  key-frame-aware active-Q range selector, the binary-search bits-per-mb Q
  regulator and its resolution/delta-aware oscillation clamp, and the
  post-encode rate-correction-factor update, all grounded on libaom's
  one-pass CBR real-time rate controller.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package av1 implements the AV1 backend of rc.Engine.
package av1

import "github.com/ausocean/brc/rc"

const (
	minBpbFactor = 0.005
	maxBpbFactor = 50.0

	// kfLowBoost and kfHighBoost bound the key-frame active-quality blend;
	// AV1 uses wider bounds than VP9's rc.KfLowBoost/rc.KfHighBoost.
	kfLowBoost  = 400
	kfHighBoost = 5000

	// defaultKFBoostRT is the fixed kf_boost value av1_get_one_pass_rt_params
	// assigns on every key frame in this call path; unlike VP9's KFBoost
	// (left at 0, see rc/vp9/engine.go), the one-pass real-time AV1 wrapper
	// never leaves it at the struct zero value.
	defaultKFBoostRT = 2300

	maxMBRate      = 250
	maxRate1080p   = 2025000
	vbrMaxSection  = 2000 // two_pass_vbrmax_section, fixed in the RTC wrapper.

	// maxQDelta bounds how far adjustQCBR may pull q below the previous
	// frame's qindex in one step; genuinely AV1-specific, absent from
	// rc.AdjustQCBR (see DESIGN.md).
	maxQDelta = 16

	// miSizeLog2 is AV1's mode-info unit size in pixels (4x4), log2'd, used
	// by the macroblock-count derivation mbCount below.
	miSizeLog2 = 2

	loopFilterMaxLevel = 63
)

func init() {
	rc.Register(rc.AV1, rc.AlgoAomAV1, func() rc.Engine { return &Engine{} })
	rc.Register(rc.AV1, rc.AlgoDefault, func() rc.Engine { return &Engine{} })
}

// Engine is AV1's rc.Engine backend.
type Engine struct {
	cfg   *rc.Config
	state rc.State
	minq  *rc.MinqLUTs
	qm    *QuantMatrices

	layers            []rc.LayerContext
	numSpatialLayers  int
	numTemporalLayers int
	spatialLayerID    int
	temporalLayerID   int

	// screenContent is the per-frame classification FrameParams carries,
	// selecting AV1's screen-content bits-per-mb enumerators.
	screenContent bool

	qpSet  bool
	qindex int
}

// Codec implements rc.Engine.
func (e *Engine) Codec() rc.CodecKind { return rc.AV1 }

func alignPowerOfTwo(v, n int) int {
	mask := (1 << uint(n)) - 1
	return (v + mask) &^ mask
}

// mbCount implements av1_get_MBs: width/height are first rounded up to a
// multiple of 8 pixels and counted in 4x4 mode-info units, then grouped
// (rounding to nearest) into 16x16 macroblock-equivalent units, distinct from
// VP8/VP9's direct (w+15)/16 derivation.
func mbCount(width, height int) int {
	miCols := alignPowerOfTwo(width, 3) >> miSizeLog2
	miRows := alignPowerOfTwo(height, 3) >> miSizeLog2
	mbCols := (miCols + 2) >> 2
	mbRows := (miRows + 2) >> 2
	return mbCols * mbRows
}

// Init implements rc.Engine.
func (e *Engine) Init(cfg *rc.Config) error {
	if cfg.Codec != rc.AV1 {
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

	e.minq = rc.BuildMinqLUTs(cfg.BitDepth, 0.90)
	e.qm = buildQuantMatrices()

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

func (e *Engine) updateFramerate() {
	s := &e.state
	s.AvgFrameBandwidth = int64(float64(e.cfg.TargetBitrate) / e.cfg.Framerate)
	// two_pass_vbrmin_section is fixed at 0 in the one-pass-CBR wrapper, so
	// this collapses to the frame-overhead floor, matching VP9's own
	// updateFramerate (and distinct from VP8's collapse-to-0).
	s.MinFrameBandwidth = rc.FrameOverheadBits

	vbrMaxBits := s.AvgFrameBandwidth * vbrMaxSection / 100
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
	if cfg.Codec != rc.AV1 {
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
	e.screenContent = params.IsScreenContent

	if s.FrameType == rc.KeyFrame {
		s.KFBoost = defaultKFBoostRT
	}

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
		return 0, rc.NewError(rc.StatusInvalidParam, "av1: GetQP called before ComputeQP")
	}
	return e.qindex, nil
}

// GetLoopFilterLevel implements rc.Engine. The reference one-pass real-time
// wrapper stubs this at 0 (brc_av1_get_loop_filter_level), leaving the
// pixel-domain search for a caller that wants it; this backend reports the
// same stub rather than guessing at an analytic formula (Open Question 3,
// AV1 side left open — see DESIGN.md).
func (e *Engine) GetLoopFilterLevel() (int, error) {
	return 0, rc.NewError(rc.StatusUnimplemented, "av1: loop-filter level is not derived by this backend")
}

// PostEncodeUpdate implements rc.Engine.
func (e *Engine) PostEncodeUpdate(encodedFrameSizeBytes uint64) error {
	if !e.qpSet {
		return rc.NewError(rc.StatusInvalidParam, "av1: PostEncodeUpdate called before ComputeQP")
	}
	s := &e.state
	qindex := s.BaseQindex
	s.ProjectedFrameSize = int64(encodedFrameSizeBytes) * 8

	estAtQ := estimateBitsAtQ(s.FrameType, qindex, s.MBs, rc.GetRateCorrectionFactor(s, s.FrameType, minBpbFactor, maxBpbFactor), s.BitDepth, e.screenContent)
	updateRateCorrectionFactor(s, s.ProjectedFrameSize, estAtQ, minBpbFactor, maxBpbFactor)

	if s.FrameType == rc.KeyFrame {
		s.LastQ[rc.IdxKey] = qindex
		s.AvgFrameQindex[rc.IdxKey] = int(rc.RoundPowerOfTwo(int64(3*s.AvgFrameQindex[rc.IdxKey]+qindex), 2))
	} else {
		s.LastQ[rc.IdxInter] = qindex
		// The reference source gates this running average on use_svc, with
		// the non-SVC condition left commented out as a ToDo; every ordinary
		// inter frame updates it here regardless of SVC mode, treating that
		// ToDo as the intended complete behavior (see DESIGN.md).
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

	// This backend never produces non-displayed frames, so show_frame is
	// always true here; update_buffer_level's drop-frame branch is not
	// reachable (see DESIGN.md).
	s.PostEncodeUpdate(s.ProjectedFrameSize)

	// rolling_target/actual_bits are skipped on key frames, as in VP9's
	// PostEncodeUpdate; VP8 updates them on every frame.
	if s.FrameType != rc.KeyFrame {
		s.RollingTargetBits = rc.RoundPowerOfTwo(s.RollingTargetBits*3+s.ThisFrameTarget, 2)
		s.RollingActualBits = rc.RoundPowerOfTwo(s.RollingActualBits*3+s.ProjectedFrameSize, 2)
	}

	s.TotalActualBits += s.ProjectedFrameSize
	s.TotalTargetBits += s.AvgFrameBandwidth

	s.FramesSinceKey++
	if s.FrameType == rc.KeyFrame {
		s.FramesSinceKey = 0
	}
	s.FramesToKey--

	s.LastAvgFrameBandwidth = s.AvgFrameBandwidth
	s.LastWidth, s.LastHeight = s.Width, s.Height

	if len(e.layers) > 0 {
		e.saveLayer(s.ProjectedFrameSize)
	}

	s.CurrentVideoFrame++
	e.qpSet = false
	return nil
}
