/*
NAME
  svc_test.go

DESCRIPTION
  svc_test.go tests the SVC layer-context helpers.

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

import "testing"

func TestLayerIndex(t *testing.T) {
	cases := []struct {
		spatial, temporal, tsLayers, want int
	}{
		{0, 0, 3, 0},
		{0, 2, 3, 2},
		{1, 0, 3, 3},
		{2, 1, 3, 7},
	}
	for _, c := range cases {
		if got := LayerIndex(c.spatial, c.temporal, c.tsLayers); got != c.want {
			t.Errorf("LayerIndex(%d, %d, %d) = %d, want %d", c.spatial, c.temporal, c.tsLayers, got, c.want)
		}
	}
}

func TestRestoreLayerContextPreservesKeyFrameCounters(t *testing.T) {
	working := &State{FramesSinceKey: 10, FramesToKey: 5, BaseQindex: 1}
	lc := &LayerContext{RC: State{FramesSinceKey: 99, FramesToKey: 99, BaseQindex: 42}}

	RestoreLayerContext(working, lc)

	if working.FramesSinceKey != 10 {
		t.Errorf("FramesSinceKey = %d, want preserved 10", working.FramesSinceKey)
	}
	if working.FramesToKey != 5 {
		t.Errorf("FramesToKey = %d, want preserved 5", working.FramesToKey)
	}
	if working.BaseQindex != 42 {
		t.Errorf("BaseQindex = %d, want restored from layer 42", working.BaseQindex)
	}
}

func TestSaveLayerContext(t *testing.T) {
	working := &State{BaseQindex: 17}
	lc := &LayerContext{}
	SaveLayerContext(lc, working)
	if lc.RC.BaseQindex != 17 {
		t.Errorf("lc.RC.BaseQindex = %d, want 17", lc.RC.BaseQindex)
	}
}

func TestResizeLayerBuffersProportional(t *testing.T) {
	streamRC := &State{StartingBufferLevel: 1000, OptimalBufferLevel: 2000, MaximumBufferSize: 4000}
	lc := &LayerContext{TargetBandwidth: 250_000}
	ResizeLayerBuffers(lc, streamRC, 1_000_000)

	if want := int64(250); lc.RC.StartingBufferLevel != want {
		t.Errorf("StartingBufferLevel = %d, want %d", lc.RC.StartingBufferLevel, want)
	}
	if want := int64(500); lc.RC.OptimalBufferLevel != want {
		t.Errorf("OptimalBufferLevel = %d, want %d", lc.RC.OptimalBufferLevel, want)
	}
	if want := int64(1000); lc.RC.MaximumBufferSize != want {
		t.Errorf("MaximumBufferSize = %d, want %d", lc.RC.MaximumBufferSize, want)
	}
}

func TestResizeLayerBuffersNoOpOnZeroTotal(t *testing.T) {
	lc := &LayerContext{RC: State{MaximumBufferSize: 123}}
	ResizeLayerBuffers(lc, &State{}, 0)
	if lc.RC.MaximumBufferSize != 123 {
		t.Errorf("MaximumBufferSize changed on zero total target: got %d, want unchanged 123", lc.RC.MaximumBufferSize)
	}
}

func TestResetLayersOnKeyFrame(t *testing.T) {
	layers := []LayerContext{
		{RC: State{CurrentVideoFrame: 5, FramesSinceKey: 5}},
		{RC: State{CurrentVideoFrame: 7, FramesSinceKey: 7}},
	}
	ResetLayersOnKeyFrame(layers)
	for i, lc := range layers {
		if lc.RC.CurrentVideoFrame != 0 || lc.RC.FramesSinceKey != 0 {
			t.Errorf("layer %d not reset: CurrentVideoFrame=%d FramesSinceKey=%d", i, lc.RC.CurrentVideoFrame, lc.RC.FramesSinceKey)
		}
	}
}

func TestUpdateTemporalLayerFramerate(t *testing.T) {
	prev := &LayerContext{Framerate: 15, TargetBandwidth: 100_000}
	lc := &LayerContext{Framerate: 30, TargetBandwidth: 150_000}
	UpdateTemporalLayerFramerate(lc, prev)
	if want := int64(50_000 / 15); lc.AvgFrameSize != want {
		t.Errorf("AvgFrameSize = %d, want %d", lc.AvgFrameSize, want)
	}
}

func TestUpdateTemporalLayerFramerateNoOpOnNonPositiveDelta(t *testing.T) {
	prev := &LayerContext{Framerate: 30, TargetBandwidth: 100_000}
	lc := &LayerContext{Framerate: 30, TargetBandwidth: 150_000, AvgFrameSize: 7}
	UpdateTemporalLayerFramerate(lc, prev)
	if lc.AvgFrameSize != 7 {
		t.Errorf("AvgFrameSize changed on non-positive framerate delta: got %d, want unchanged 7", lc.AvgFrameSize)
	}
}
