/*
NAME
  svc_test.go

DESCRIPTION
  svc_test.go tests the VP9 engine's SVC layer setup.

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

import (
	"testing"

	"github.com/ausocean/brc/rc"
)

func TestEngineInitLayersDerivesFramerateFromTsRateDecimator(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SpatialLayers = 1
	cfg.TemporalLayers = 3
	cfg.LayerTargetBitrates = []int64{100_000, 200_000, 500_000}
	cfg.TsRateDecimator = []int{4, 2, 1}

	e := &Engine{}
	if err := e.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for tl, want := range []float64{30.0 / 4, 30.0 / 2, 30.0 / 1} {
		idx := rc.LayerIndex(0, tl, e.numTemporalLayers)
		if got := e.layers[idx].Framerate; got != want {
			t.Errorf("layers[%d].Framerate = %v, want %v", idx, got, want)
		}
	}
}

func TestEngineInitLayersPrefersLayerFrameratesOverTsRateDecimator(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SpatialLayers = 1
	cfg.TemporalLayers = 2
	cfg.LayerTargetBitrates = []int64{100_000, 500_000}
	cfg.TsRateDecimator = []int{2, 1}
	cfg.LayerFramerates = []float64{7.5, 15}

	e := &Engine{}
	if err := e.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	idx := rc.LayerIndex(0, 0, e.numTemporalLayers)
	if got := e.layers[idx].Framerate; got != 7.5 {
		t.Errorf("layers[%d].Framerate = %v, want 7.5 (explicit LayerFramerates should win)", idx, got)
	}
}
