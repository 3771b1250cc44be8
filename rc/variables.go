/*
NAME
  variables.go

DESCRIPTION
  variables.go lists, for each Config field a caller can set by name, a
  variable Name, its type in string form, an Update function parsing a
  string value into the field, and a Validate function checking it.
  Adapted from revid/config's Variables table: here Validate returns an
  error instead of silently defaulting, per Config.Validate's doc comment.

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

import "strconv"

// Config map keys, one per field Update/Validate can reach by name.
const (
	KeyTargetBitrate          = "TargetBitrate"
	KeyMinBitrate             = "MinBitrate"
	KeyMaxBitrate             = "MaxBitrate"
	KeyWidth                  = "Width"
	KeyHeight                 = "Height"
	KeyFramerate              = "Framerate"
	KeyBitDepth               = "BitDepth"
	KeyMinQuantizer           = "MinQuantizer"
	KeyMaxQuantizer           = "MaxQuantizer"
	KeyBufferStartingMs       = "BufferStartingMs"
	KeyBufferOptimalMs        = "BufferOptimalMs"
	KeyBufferMaxMs            = "BufferMaxMs"
	KeyUndershootPct          = "UndershootPct"
	KeyOvershootPct           = "OvershootPct"
	KeyKeyFrameIntervalFrames = "KeyFrameIntervalFrames"
	KeyMaxIntraBitratePct     = "MaxIntraBitratePct"
	KeyMaxInterBitratePct     = "MaxInterBitratePct"
	KeySpatialLayers          = "SpatialLayers"
	KeyTemporalLayers         = "TemporalLayers"
	KeyLayerTargetBitrates    = "LayerTargetBitrates"
	KeyTsRateDecimator        = "TsRateDecimator"
)

// maxLayersForCodec is the product SpatialLayers*TemporalLayers a codec's
// reference SVC layer-context array supports (VPX_MAX_LAYERS = 12 for VP9,
// AOM_MAX_LAYERS = 32 for AV1). VP8 has no SVC support in this package, so it
// is restricted to the single 1x1 layer.
func maxLayersForCodec(codec CodecKind) int {
	if codec == VP8 {
		return 1
	}
	if codec == AV1 {
		return 32
	}
	return 12
}

// maxDimensionForCodec is the per-codec ceiling on Width/Height.
func maxDimensionForCodec(codec CodecKind) int {
	if codec == VP8 {
		return 16383
	}
	return 65535
}

// maxPctForCodec is the per-codec ceiling on UndershootPct/OvershootPct.
func maxPctForCodec(codec CodecKind) int {
	if codec == VP8 {
		return 1000
	}
	return 100
}

const (
	typeInt64 = "int64"
	typeInt   = "int"
	typeFloat = "float64"
)

func parseInt64(name, v string, c *Config) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.Logger.Warning(name+" bad or unset, defaulting", name, 0)
		return 0
	}
	return n
}

func parseInt(name, v string, c *Config) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(name+" bad or unset, defaulting", name, 0)
		return 0
	}
	return n
}

func parseFloat(name, v string, c *Config) float64 {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(name+" bad or unset, defaulting", name, 0.0)
		return 0
	}
	return n
}

// Variables drives Config.Update and Config.Validate.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config) error
}{
	{
		Name:   KeyTargetBitrate,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.TargetBitrate = parseInt64(KeyTargetBitrate, v, c) },
		Validate: func(c *Config) error {
			if c.TargetBitrate <= 0 {
				return newError(StatusInvalidParam, "rc: TargetBitrate must be positive, got %d", c.TargetBitrate)
			}
			return nil
		},
	},
	{
		Name:   KeyMinBitrate,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.MinBitrate = parseInt64(KeyMinBitrate, v, c) },
		Validate: func(c *Config) error {
			if c.MinBitrate < 0 {
				return newError(StatusInvalidParam, "rc: MinBitrate must not be negative, got %d", c.MinBitrate)
			}
			return nil
		},
	},
	{
		Name:   KeyMaxBitrate,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.MaxBitrate = parseInt64(KeyMaxBitrate, v, c) },
		Validate: func(c *Config) error {
			if c.MaxBitrate != 0 && c.MaxBitrate < c.MinBitrate {
				return newError(StatusInvalidParam, "rc: MaxBitrate %d must not be less than MinBitrate %d", c.MaxBitrate, c.MinBitrate)
			}
			return nil
		},
	},
	{
		Name:   KeyWidth,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Width = parseInt(KeyWidth, v, c) },
		Validate: func(c *Config) error {
			if c.Width <= 0 {
				return newError(StatusInvalidParam, "rc: Width must be positive, got %d", c.Width)
			}
			if max := maxDimensionForCodec(c.Codec); c.Width > max {
				return newError(StatusInvalidParam, "rc: Width must be <= %d for %v, got %d", max, c.Codec, c.Width)
			}
			return nil
		},
	},
	{
		Name:   KeyHeight,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Height = parseInt(KeyHeight, v, c) },
		Validate: func(c *Config) error {
			if c.Height <= 0 {
				return newError(StatusInvalidParam, "rc: Height must be positive, got %d", c.Height)
			}
			if max := maxDimensionForCodec(c.Codec); c.Height > max {
				return newError(StatusInvalidParam, "rc: Height must be <= %d for %v, got %d", max, c.Codec, c.Height)
			}
			return nil
		},
	},
	{
		Name:   KeyFramerate,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.Framerate = parseFloat(KeyFramerate, v, c) },
		Validate: func(c *Config) error {
			if c.Framerate <= 0 {
				return newError(StatusInvalidParam, "rc: Framerate must be positive, got %v", c.Framerate)
			}
			return nil
		},
	},
	{
		Name:   KeyBitDepth,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.BitDepth = parseInt(KeyBitDepth, v, c) },
		Validate: func(c *Config) error {
			switch c.BitDepth {
			case 0:
				c.Logger.Info("BitDepth unset, defaulting", KeyBitDepth, 8)
				c.BitDepth = 8
			case 8, 10, 12:
			default:
				return newError(StatusInvalidParam, "rc: BitDepth must be 8, 10 or 12, got %d", c.BitDepth)
			}
			return nil
		},
	},
	{
		Name:   KeyMinQuantizer,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.MinQuantizer = parseInt(KeyMinQuantizer, v, c) },
		Validate: func(c *Config) error {
			if c.MinQuantizer < 0 || c.MinQuantizer > 63 {
				return newError(StatusInvalidParam, "rc: MinQuantizer must be in [0, 63], got %d", c.MinQuantizer)
			}
			return nil
		},
	},
	{
		Name:   KeyMaxQuantizer,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.MaxQuantizer = parseInt(KeyMaxQuantizer, v, c) },
		Validate: func(c *Config) error {
			if c.MaxQuantizer == 0 {
				c.Logger.Info("MaxQuantizer unset, defaulting", KeyMaxQuantizer, 63)
				c.MaxQuantizer = 63
			}
			if c.MaxQuantizer < 0 || c.MaxQuantizer > 63 {
				return newError(StatusInvalidParam, "rc: MaxQuantizer must be in [0, 63], got %d", c.MaxQuantizer)
			}
			if c.MaxQuantizer < c.MinQuantizer {
				return newError(StatusInvalidParam, "rc: MaxQuantizer %d must not be less than MinQuantizer %d", c.MaxQuantizer, c.MinQuantizer)
			}
			return nil
		},
	},
	{
		Name:   KeyBufferStartingMs,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.BufferStartingMs = parseInt64(KeyBufferStartingMs, v, c) },
	},
	{
		Name:   KeyBufferOptimalMs,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.BufferOptimalMs = parseInt64(KeyBufferOptimalMs, v, c) },
	},
	{
		Name:   KeyBufferMaxMs,
		Type:   typeInt64,
		Update: func(c *Config, v string) { c.BufferMaxMs = parseInt64(KeyBufferMaxMs, v, c) },
		Validate: func(c *Config) error {
			if c.BufferMaxMs != 0 && c.BufferOptimalMs != 0 && c.BufferMaxMs < c.BufferOptimalMs {
				return newError(StatusInvalidParam, "rc: BufferMaxMs %d must not be less than BufferOptimalMs %d", c.BufferMaxMs, c.BufferOptimalMs)
			}
			return nil
		},
	},
	{
		Name:   KeyUndershootPct,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.UndershootPct = parseInt(KeyUndershootPct, v, c) },
		Validate: func(c *Config) error {
			if c.UndershootPct == 0 {
				c.Logger.Info("UndershootPct unset, defaulting", KeyUndershootPct, 25)
				c.UndershootPct = 25
			}
			if max := maxPctForCodec(c.Codec); c.UndershootPct < 0 || c.UndershootPct > max {
				return newError(StatusInvalidParam, "rc: UndershootPct must be in [0, %d] for %v, got %d", max, c.Codec, c.UndershootPct)
			}
			return nil
		},
	},
	{
		Name:   KeyOvershootPct,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.OvershootPct = parseInt(KeyOvershootPct, v, c) },
		Validate: func(c *Config) error {
			if c.OvershootPct == 0 {
				c.Logger.Info("OvershootPct unset, defaulting", KeyOvershootPct, 25)
				c.OvershootPct = 25
			}
			if max := maxPctForCodec(c.Codec); c.OvershootPct < 0 || c.OvershootPct > max {
				return newError(StatusInvalidParam, "rc: OvershootPct must be in [0, %d] for %v, got %d", max, c.Codec, c.OvershootPct)
			}
			return nil
		},
	},
	{
		Name:   KeyKeyFrameIntervalFrames,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.KeyFrameIntervalFrames = parseInt(KeyKeyFrameIntervalFrames, v, c) },
	},
	{
		Name:   KeyMaxIntraBitratePct,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.MaxIntraBitratePct = parseInt(KeyMaxIntraBitratePct, v, c) },
	},
	{
		Name:   KeyMaxInterBitratePct,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.MaxInterBitratePct = parseInt(KeyMaxInterBitratePct, v, c) },
	},
	{
		Name:   KeySpatialLayers,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.SpatialLayers = parseInt(KeySpatialLayers, v, c) },
		Validate: func(c *Config) error {
			sl, tl := c.SpatialLayers, c.TemporalLayers
			if sl < 1 {
				sl = 1
			}
			if tl < 1 {
				tl = 1
			}
			if max := maxLayersForCodec(c.Codec); sl*tl > max {
				return newError(StatusInvalidParam, "rc: SpatialLayers*TemporalLayers must be <= %d for %v, got %d*%d", max, c.Codec, sl, tl)
			}
			return nil
		},
	},
	{
		Name:   KeyTemporalLayers,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.TemporalLayers = parseInt(KeyTemporalLayers, v, c) },
	},
	{
		Name: KeyLayerTargetBitrates,
		Type: "[]int64",
		Validate: func(c *Config) error {
			tl := c.TemporalLayers
			if tl < 2 || len(c.LayerTargetBitrates) == 0 {
				return nil
			}
			sl := c.SpatialLayers
			if sl < 1 {
				sl = 1
			}
			for s := 0; s < sl; s++ {
				base := s * tl
				if base+tl > len(c.LayerTargetBitrates) {
					break
				}
				for t := 1; t < tl; t++ {
					if c.LayerTargetBitrates[base+t] < c.LayerTargetBitrates[base+t-1] {
						return newError(StatusInvalidParam, "rc: LayerTargetBitrates must be non-decreasing by temporal id within spatial layer %d, got %v", s, c.LayerTargetBitrates[base:base+tl])
					}
				}
			}
			return nil
		},
	},
	{
		Name: KeyTsRateDecimator,
		Type: "[]int",
		Validate: func(c *Config) error {
			d := c.TsRateDecimator
			if len(d) < 2 {
				return nil
			}
			top := len(d) - 1
			if d[top] != 1 {
				return newError(StatusInvalidParam, "rc: TsRateDecimator top layer must decimate by 1, got %v", d)
			}
			for tl := top; tl > 0; tl-- {
				if d[tl-1] != 2*d[tl] {
					return newError(StatusInvalidParam, "rc: TsRateDecimator must double at each layer below the top, got %v", d)
				}
			}
			return nil
		},
	},
}
