/*
NAME
  svc.go

DESCRIPTION
  svc.go implements component G: per (spatial, temporal) layer rate-control
  contexts, and the restore/save bookkeeping engines run around every frame
  in SVC mode.

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

// MaxLayers bounds the fixed-size layer-context array embedded in an
// engine; codec backends use a codec-specific subset (VP9: 12, AV1: 32,
// VP8: 1).
const MaxLayers = 32

// LayerContext mirrors the rate-control State for one (spatial, temporal)
// layer, plus the per-layer bookkeeping that doesn't belong in State because
// it is cumulative across layers rather than per-frame.
type LayerContext struct {
	RC State

	TargetBandwidth             int64 // cumulative target bitrate in bits/sec.
	SpatialLayerTargetBandwidth int64
	Framerate                   float64
	AvgFrameSize                int64 // non-cumulative per-frame average for this layer alone.
	IsKeyFrame                  bool
	ScalingFactorNum            int
	ScalingFactorDen            int
}

// LayerIndex computes the flat index of a (spatial, temporal) layer pair
// into a MaxLayers-sized array.
func LayerIndex(spatialLayer, temporalLayer, tsNumberLayers int) int {
	return spatialLayer*tsNumberLayers + temporalLayer
}

// RestoreLayerContext copies a layer's saved RC state into the engine's
// working state ahead of ComputeQP, preserving the stream-level key-frame
// cadence counters rather than overwriting them from the layer snapshot.
func RestoreLayerContext(working *State, lc *LayerContext) {
	framesSinceKey := working.FramesSinceKey
	framesToKey := working.FramesToKey
	*working = lc.RC
	working.FramesSinceKey = framesSinceKey
	working.FramesToKey = framesToKey
}

// SaveLayerContext copies the engine's working RC state back into the
// layer's saved slot after PostEncodeUpdate.
func SaveLayerContext(lc *LayerContext, working *State) {
	lc.RC = *working
}

// ResizeLayerBuffers recomputes a layer's buffer setpoints as a fraction of
// the stream-level setpoints, proportional to the layer's share of total
// target bitrate. Called from UpdateConfig (component G "change-config").
func ResizeLayerBuffers(lc *LayerContext, streamRC *State, totalTargetBitrate int64) {
	if totalTargetBitrate <= 0 {
		return
	}
	frac := func(v int64) int64 {
		return v * lc.TargetBandwidth / totalTargetBitrate
	}
	lc.RC.StartingBufferLevel = frac(streamRC.StartingBufferLevel)
	lc.RC.OptimalBufferLevel = frac(streamRC.OptimalBufferLevel)
	lc.RC.MaximumBufferSize = frac(streamRC.MaximumBufferSize)
	if lc.RC.BufferLevel > lc.RC.MaximumBufferSize {
		lc.RC.BufferLevel = lc.RC.MaximumBufferSize
	}
	if lc.RC.BitsOffTarget > lc.RC.MaximumBufferSize {
		lc.RC.BitsOffTarget = lc.RC.MaximumBufferSize
	}
}

// UpdateTemporalLayerFramerate recomputes a non-base temporal layer's
// average frame size ahead of a frame in that layer, from the bitrate and
// framerate delta versus the next lower temporal layer.
func UpdateTemporalLayerFramerate(lc, prevLayer *LayerContext) {
	deltaFramerate := lc.Framerate - prevLayer.Framerate
	if deltaFramerate <= 0 {
		return
	}
	deltaBandwidth := lc.TargetBandwidth - prevLayer.TargetBandwidth
	lc.AvgFrameSize = int64(float64(deltaBandwidth) / deltaFramerate)
}

// ResetLayersOnKeyFrame zeroes the per-layer frame counters every layer
// context carries when any key frame occurs in SVC mode.
func ResetLayersOnKeyFrame(layers []LayerContext) {
	for i := range layers {
		layers[i].RC.CurrentVideoFrame = 0
		layers[i].RC.FramesSinceKey = 0
	}
}

// UpdateHigherTemporalLayersPreEncode absorbs one frame period's worth of
// each higher-or-equal temporal layer's own bandwidth into its buffer ahead
// of a frame in temporalLayer, since layered rate control keeps cumulative
// buffer levels across temporal layers.
func UpdateHigherTemporalLayersPreEncode(layers []LayerContext, spatialLayer, temporalLayer, tsNumberLayers int) (bufferLevel, bitsOffTarget int64) {
	for tl := temporalLayer; tl < tsNumberLayers; tl++ {
		lc := &layers[LayerIndex(spatialLayer, tl, tsNumberLayers)]
		lc.RC.BitsOffTarget += int64(lc.TargetBandwidth / int64(lc.Framerate))
		if lc.RC.BitsOffTarget > lc.RC.MaximumBufferSize {
			lc.RC.BitsOffTarget = lc.RC.MaximumBufferSize
		}
		lc.RC.BufferLevel = lc.RC.BitsOffTarget
		if tl == temporalLayer {
			bufferLevel, bitsOffTarget = lc.RC.BufferLevel, lc.RC.BitsOffTarget
		}
	}
	return bufferLevel, bitsOffTarget
}

// UpdateHigherTemporalLayersPostEncode drains encodedFrameSizeBits out of
// every temporal layer above temporalLayer within the same spatial layer,
// since a frame in a lower temporal layer is also counted against the
// buffers of every layer that depends on it.
func UpdateHigherTemporalLayersPostEncode(layers []LayerContext, spatialLayer, temporalLayer, tsNumberLayers int, encodedFrameSizeBits int64) {
	for tl := temporalLayer + 1; tl < tsNumberLayers; tl++ {
		lc := &layers[LayerIndex(spatialLayer, tl, tsNumberLayers)]
		lc.RC.BitsOffTarget -= encodedFrameSizeBits
		if lc.RC.BitsOffTarget > lc.RC.MaximumBufferSize {
			lc.RC.BitsOffTarget = lc.RC.MaximumBufferSize
		}
		lc.RC.BufferLevel = lc.RC.BitsOffTarget
	}
}
