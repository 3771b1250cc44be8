/*
NAME
  buffer_test.go

DESCRIPTION
  buffer_test.go tests the leaky-bucket buffer model.

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

func TestSetBufferSizesDefaults(t *testing.T) {
	s := &State{}
	const bps = 800_000
	s.SetBufferSizes(bps, 600, 0, 0)
	if want := bps / 8; s.OptimalBufferLevel != want {
		t.Errorf("OptimalBufferLevel = %d, want %d", s.OptimalBufferLevel, want)
	}
	if want := bps / 8; s.MaximumBufferSize != want {
		t.Errorf("MaximumBufferSize = %d, want %d", s.MaximumBufferSize, want)
	}
	if want := int64(600) * bps / 1000; s.StartingBufferLevel != want {
		t.Errorf("StartingBufferLevel = %d, want %d", s.StartingBufferLevel, want)
	}
}

func TestSetBufferSizesExplicit(t *testing.T) {
	s := &State{}
	const bps = 800_000
	s.SetBufferSizes(bps, 600, 1000, 2000)
	if want := int64(1000) * bps / 1000; s.OptimalBufferLevel != want {
		t.Errorf("OptimalBufferLevel = %d, want %d", s.OptimalBufferLevel, want)
	}
	if want := int64(2000) * bps / 1000; s.MaximumBufferSize != want {
		t.Errorf("MaximumBufferSize = %d, want %d", s.MaximumBufferSize, want)
	}
}

func TestSetBufferSizesClampsExisting(t *testing.T) {
	s := &State{BitsOffTarget: 1_000_000, BufferLevel: 1_000_000}
	s.SetBufferSizes(800_000, 600, 0, 500)
	if s.BitsOffTarget != s.MaximumBufferSize {
		t.Errorf("BitsOffTarget = %d, want clamped to MaximumBufferSize %d", s.BitsOffTarget, s.MaximumBufferSize)
	}
	if s.BufferLevel != s.MaximumBufferSize {
		t.Errorf("BufferLevel = %d, want clamped to MaximumBufferSize %d", s.BufferLevel, s.MaximumBufferSize)
	}
}

func TestPreEncodeUpdateClamps(t *testing.T) {
	s := &State{MaximumBufferSize: 1000, BitsOffTarget: 900, AvgFrameBandwidth: 500}
	s.PreEncodeUpdate()
	if s.BitsOffTarget != 1000 {
		t.Errorf("BitsOffTarget = %d, want clamped to 1000", s.BitsOffTarget)
	}
	if s.BufferLevel != s.BitsOffTarget {
		t.Errorf("BufferLevel = %d, want equal to BitsOffTarget %d", s.BufferLevel, s.BitsOffTarget)
	}
}

func TestPostEncodeUpdateDrains(t *testing.T) {
	s := &State{MaximumBufferSize: 1000, BitsOffTarget: 800}
	s.PostEncodeUpdate(300)
	if want := int64(500); s.BitsOffTarget != want {
		t.Errorf("BitsOffTarget = %d, want %d", s.BitsOffTarget, want)
	}
	if s.BufferLevel != s.BitsOffTarget {
		t.Errorf("BufferLevel = %d, want equal to BitsOffTarget %d", s.BufferLevel, s.BitsOffTarget)
	}
}

func TestPostEncodeUpdateClampsToMax(t *testing.T) {
	s := &State{MaximumBufferSize: 1000, BitsOffTarget: 800}
	s.PostEncodeUpdate(-500)
	if s.BitsOffTarget != 1000 {
		t.Errorf("BitsOffTarget = %d, want clamped to MaximumBufferSize 1000", s.BitsOffTarget)
	}
}
