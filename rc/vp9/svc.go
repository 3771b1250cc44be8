/*
NAME
  svc.go

DESCRIPTION
  svc.go wires rc.LayerContext into the VP9 engine: layer allocation at
  Init, and the restore/save bookkeeping ComputeQP/PostEncodeUpdate run
  around each frame in SVC mode.

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

func (e *Engine) initLayers() {
	n := e.numSpatialLayers * e.numTemporalLayers
	e.layers = make([]rc.LayerContext, n)
	for sl := 0; sl < e.numSpatialLayers; sl++ {
		cumulative := int64(0)
		for tl := 0; tl < e.numTemporalLayers; tl++ {
			idx := rc.LayerIndex(sl, tl, e.numTemporalLayers)
			lc := &e.layers[idx]
			flatIdx := sl*e.numTemporalLayers + tl
			if flatIdx < len(e.cfg.LayerTargetBitrates) {
				lc.TargetBandwidth = e.cfg.LayerTargetBitrates[flatIdx]
			}
			switch {
			case flatIdx < len(e.cfg.LayerFramerates):
				lc.Framerate = e.cfg.LayerFramerates[flatIdx]
			case tl < len(e.cfg.TsRateDecimator) && e.cfg.TsRateDecimator[tl] > 0:
				lc.Framerate = e.cfg.Framerate / float64(e.cfg.TsRateDecimator[tl])
			default:
				lc.Framerate = e.cfg.Framerate
			}
			cumulative += lc.TargetBandwidth
			lc.SpatialLayerTargetBandwidth = cumulative
			lc.AvgFrameSize = int64(float64(lc.TargetBandwidth) / lc.Framerate)

			lc.RC = e.state
			lc.RC.AvgFrameBandwidth = lc.TargetBandwidth
			lc.RC.SetBufferSizes(lc.TargetBandwidth, e.cfg.BufferStartingMs, e.cfg.BufferOptimalMs, e.cfg.BufferMaxMs)
			lc.RC.BufferLevel = lc.RC.StartingBufferLevel
			lc.RC.BitsOffTarget = lc.RC.StartingBufferLevel
		}
	}
}

func (e *Engine) restoreLayer() {
	idx := rc.LayerIndex(e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers)
	rc.RestoreLayerContext(&e.state, &e.layers[idx])
	if e.temporalLayerID > 0 {
		prev := &e.layers[rc.LayerIndex(e.spatialLayerID, e.temporalLayerID-1, e.numTemporalLayers)]
		rc.UpdateTemporalLayerFramerate(&e.layers[idx], prev)
	}
}

func (e *Engine) saveLayer(encodedFrameSizeBits int64) {
	idx := rc.LayerIndex(e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers)
	rc.SaveLayerContext(&e.layers[idx], &e.state)
	rc.UpdateHigherTemporalLayersPostEncode(e.layers, e.spatialLayerID, e.temporalLayerID, e.numTemporalLayers, encodedFrameSizeBits)
	if e.state.FrameType == rc.KeyFrame {
		rc.ResetLayersOnKeyFrame(e.layers)
	}
}
