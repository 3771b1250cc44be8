/*
NAME
  config_test.go

DESCRIPTION
  config_test.go tests Config validation and update.

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

import (
	"testing"

	"github.com/ausocean/utils/logging"
)

func validConfig(t *testing.T) *Config {
	return &Config{
		Codec:         VP9,
		Width:         1280,
		Height:        720,
		TargetBitrate: 1_000_000,
		Framerate:     30,
		BitDepth:      8,
		MinQuantizer:  0,
		MaxQuantizer:  63,
		Logger:        (*logging.TestLogger)(t),
	}
}

func TestConfigValidateRequiresLogger(t *testing.T) {
	c := validConfig(t)
	c.Logger = nil
	if err := c.Validate(); err == nil {
		t.Error("Validate() with nil Logger = nil, want error")
	}
}

func TestConfigValidateAcceptsValidConfig(t *testing.T) {
	c := validConfig(t)
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on a well-formed Config = %v, want nil", err)
	}
}

func TestConfigUpdateAppliesKnownVariables(t *testing.T) {
	c := validConfig(t)
	c.Update(map[string]string{
		KeyTargetBitrate:      "2000000",
		KeyWidth:              "1920",
		KeyMaxIntraBitratePct: "50",
	})
	if c.TargetBitrate != 2_000_000 {
		t.Errorf("TargetBitrate = %d, want 2000000", c.TargetBitrate)
	}
	if c.Width != 1920 {
		t.Errorf("Width = %d, want 1920", c.Width)
	}
	if c.MaxIntraBitratePct != 50 {
		t.Errorf("MaxIntraBitratePct = %d, want 50", c.MaxIntraBitratePct)
	}
}

func TestConfigUpdateIgnoresUnknownKeys(t *testing.T) {
	c := validConfig(t)
	before := *c
	c.Update(map[string]string{"NotARealVariable": "123"})
	if c.TargetBitrate != before.TargetBitrate || c.Width != before.Width {
		t.Error("Update mutated Config on an unknown key")
	}
}

func TestConfigUpdateAppliesMaxInterBitratePct(t *testing.T) {
	c := validConfig(t)
	c.Update(map[string]string{KeyMaxInterBitratePct: "50"})
	if c.MaxInterBitratePct != 50 {
		t.Errorf("MaxInterBitratePct = %d, want 50", c.MaxInterBitratePct)
	}
}

func TestConfigValidateRejectsWidthOverCodecCeiling(t *testing.T) {
	c := validConfig(t)
	c.Codec = VP8
	c.Width = 16384
	if err := c.Validate(); err == nil {
		t.Error("Validate() with Width over the VP8 ceiling = nil, want error")
	}
	c.Codec = AV1
	c.Width = 65536
	if err := c.Validate(); err == nil {
		t.Error("Validate() with Width over the AV1 ceiling = nil, want error")
	}
}

func TestConfigValidateRejectsHeightOverCodecCeiling(t *testing.T) {
	c := validConfig(t)
	c.Codec = VP8
	c.Height = 16384
	if err := c.Validate(); err == nil {
		t.Error("Validate() with Height over the VP8 ceiling = nil, want error")
	}
}

func TestConfigValidateRejectsPctOverCodecCeiling(t *testing.T) {
	c := validConfig(t)
	c.Codec = VP9
	c.UndershootPct = 101
	if err := c.Validate(); err == nil {
		t.Error("Validate() with UndershootPct over the VP9/AV1 ceiling (100) = nil, want error")
	}

	c = validConfig(t)
	c.Codec = VP8
	c.OvershootPct = 1001
	if err := c.Validate(); err == nil {
		t.Error("Validate() with OvershootPct over the VP8 ceiling (1000) = nil, want error")
	}

	c = validConfig(t)
	c.Codec = VP8
	c.OvershootPct = 500
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() with OvershootPct 500 on VP8 (ceiling 1000) = %v, want nil", err)
	}
}

func TestConfigValidateRejectsLayerProductOverCodecMax(t *testing.T) {
	c := validConfig(t)
	c.Codec = VP8
	c.SpatialLayers = 1
	c.TemporalLayers = 2
	if err := c.Validate(); err == nil {
		t.Error("Validate() with SVC layers on VP8 (restricted to 1x1) = nil, want error")
	}

	c = validConfig(t)
	c.Codec = VP9
	c.SpatialLayers = 4
	c.TemporalLayers = 4
	if err := c.Validate(); err == nil {
		t.Error("Validate() with 4x4 SVC layers (> 12 max) = nil, want error")
	}
}

func TestConfigValidateRejectsNonMonotonicLayerTargetBitrates(t *testing.T) {
	c := validConfig(t)
	c.SpatialLayers = 1
	c.TemporalLayers = 3
	c.LayerTargetBitrates = []int64{300000, 600000, 400000}
	if err := c.Validate(); err == nil {
		t.Error("Validate() with a decreasing LayerTargetBitrates entry = nil, want error")
	}
}

func TestConfigValidateAcceptsMonotonicLayerTargetBitrates(t *testing.T) {
	c := validConfig(t)
	c.SpatialLayers = 1
	c.TemporalLayers = 3
	c.LayerTargetBitrates = []int64{300000, 600000, 1000000}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() with non-decreasing LayerTargetBitrates = %v, want nil", err)
	}
}

// TestConfigValidateRejectsNonDyadicTsRateDecimator reproduces the spec's
// ts_rate_decimator = [3, 2, 1] scenario: a non-power-of-two decimator step
// must be rejected even though the top layer correctly decimates by 1.
func TestConfigValidateRejectsNonDyadicTsRateDecimator(t *testing.T) {
	c := validConfig(t)
	c.TsRateDecimator = []int{3, 2, 1}
	if err := c.Validate(); err == nil {
		t.Error("Validate() with TsRateDecimator [3, 2, 1] = nil, want error")
	}
}

func TestConfigValidateAcceptsDyadicTsRateDecimator(t *testing.T) {
	c := validConfig(t)
	c.TsRateDecimator = []int{4, 2, 1}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() with TsRateDecimator [4, 2, 1] = %v, want nil", err)
	}
}

func TestConfigValidateRejectsTsRateDecimatorTopNotOne(t *testing.T) {
	c := validConfig(t)
	c.TsRateDecimator = []int{4, 2}
	if err := c.Validate(); err == nil {
		t.Error("Validate() with TsRateDecimator top layer != 1 = nil, want error")
	}
}
