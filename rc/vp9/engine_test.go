/*
NAME
  engine_test.go

DESCRIPTION
  engine_test.go tests the VP9 engine.

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
	"github.com/ausocean/utils/logging"
)

func newTestConfig(t *testing.T) *rc.Config {
	return &rc.Config{
		Codec:         rc.VP9,
		Width:         640,
		Height:        480,
		TargetBitrate: 500_000,
		Framerate:     30,
		BitDepth:      8,
		MinQuantizer:  0,
		MaxQuantizer:  63,
		Logger:        (*logging.TestLogger)(t),
	}
}

func TestEngineInitRejectsWrongCodec(t *testing.T) {
	e := &Engine{}
	cfg := newTestConfig(t)
	cfg.Codec = rc.VP8
	if err := e.Init(cfg); err == nil {
		t.Error("Init with mismatched codec = nil error, want error")
	}
}

func TestEngineGetQPBeforeComputeQP(t *testing.T) {
	e := &Engine{}
	if err := e.Init(newTestConfig(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.GetQP(); err == nil {
		t.Error("GetQP before ComputeQP = nil error, want error")
	}
}

func TestEngineComputeQPWithinBounds(t *testing.T) {
	e := &Engine{}
	cfg := newTestConfig(t)
	if err := e.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := e.ComputeQP(rc.FrameParams{FrameType: rc.KeyFrame}); err != nil {
		t.Fatalf("ComputeQP: %v", err)
	}
	q, err := e.GetQP()
	if err != nil {
		t.Fatalf("GetQP: %v", err)
	}
	best, worst := rc.QuantizerToQindex(cfg.MinQuantizer), rc.QuantizerToQindex(cfg.MaxQuantizer)
	if q < best || q > worst {
		t.Errorf("GetQP() = %d, want within [%d, %d]", q, best, worst)
	}
	if _, err := e.GetLoopFilterLevel(); err != nil {
		t.Errorf("GetLoopFilterLevel: %v", err)
	}
}

func TestEngineFrameSequenceDoesNotPanic(t *testing.T) {
	e := &Engine{}
	cfg := newTestConfig(t)
	if err := e.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := 0; i < 30; i++ {
		ft := rc.InterFrame
		if i == 0 {
			ft = rc.KeyFrame
		}
		if err := e.ComputeQP(rc.FrameParams{FrameType: ft}); err != nil {
			t.Fatalf("frame %d ComputeQP: %v", i, err)
		}
		q, err := e.GetQP()
		if err != nil {
			t.Fatalf("frame %d GetQP: %v", i, err)
		}
		if q < 0 || q >= rc.QIndexRange {
			t.Fatalf("frame %d qindex %d out of range", i, q)
		}
		// Simulate an encoded frame landing close to the average bandwidth.
		size := uint64(cfg.TargetBitrate/int64(cfg.Framerate)) / 8
		if err := e.PostEncodeUpdate(size); err != nil {
			t.Fatalf("frame %d PostEncodeUpdate: %v", i, err)
		}
	}
}

func TestEngineUpdateConfigRejectsWrongCodec(t *testing.T) {
	e := &Engine{}
	if err := e.Init(newTestConfig(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg := newTestConfig(t)
	cfg.Codec = rc.AV1
	if err := e.UpdateConfig(cfg); err == nil {
		t.Error("UpdateConfig with mismatched codec = nil error, want error")
	}
}
