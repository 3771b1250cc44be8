/*
NAME
  engine_test.go

DESCRIPTION
  engine_test.go tests the VP8 engine.

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

import (
	"testing"

	"github.com/ausocean/brc/rc"
	"github.com/ausocean/utils/logging"
)

func newTestConfig(t *testing.T) *rc.Config {
	return &rc.Config{
		Codec:         rc.VP8,
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
	cfg.Codec = rc.VP9
	if err := e.Init(cfg); err == nil {
		t.Error("Init with mismatched codec = nil error, want error")
	}
}

func TestEngineGetLoopFilterLevelUnimplemented(t *testing.T) {
	e := &Engine{}
	if err := e.Init(newTestConfig(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.GetLoopFilterLevel(); err == nil {
		t.Error("GetLoopFilterLevel = nil error, want StatusUnimplemented error")
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
		size := uint64(cfg.TargetBitrate/int64(cfg.Framerate)) / 8
		if err := e.PostEncodeUpdate(size); err != nil {
			t.Fatalf("frame %d PostEncodeUpdate: %v", i, err)
		}
	}
}
