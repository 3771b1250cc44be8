/*
NAME
  config.go

DESCRIPTION
  config.go defines the Config a caller passes to Create/Init/UpdateConfig,
  and its Validate/Update methods, following the table-driven pattern
  revid/config uses for its own Config.

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

import "github.com/ausocean/utils/logging"

// Config provides the parameters relevant to one rate-control engine. A new
// Config must be passed to Create and then Init; UpdateConfig accepts a
// changed Config at any point after that.
type Config struct {
	Codec CodecKind
	Algo  AlgoId

	Width  int
	Height int

	// TargetBitrate, MinBitrate and MaxBitrate are in bits/sec. MinBitrate and
	// MaxBitrate are a caller-facing sanity range checked against each other
	// (Validate rejects MaxBitrate < MinBitrate); the per-frame target itself
	// is capped via MaxIntraBitratePct/MaxInterBitratePct and MaxFrameBandwidth,
	// not against these two fields directly.
	TargetBitrate int64
	MinBitrate    int64
	MaxBitrate    int64

	Framerate float64

	// BitDepth is 8, 10 or 12, selecting which quantizer-step table is used.
	BitDepth int

	// MinQuantizer and MaxQuantizer bound the caller-facing quantizer scale
	// (0-63), converted internally via QuantizerToQindex.
	MinQuantizer int
	MaxQuantizer int

	// BufferStartingMs, BufferOptimalMs and BufferMaxMs size the leaky-bucket
	// buffer in milliseconds of bandwidth. A value of 0 for BufferOptimalMs or
	// BufferMaxMs defaults to one eighth of a second of TargetBitrate.
	BufferStartingMs int64
	BufferOptimalMs  int64
	BufferMaxMs      int64

	// UndershootPct and OvershootPct cap, as a percentage, how far the
	// buffer-level adjustment of an inter frame's target may go below or above
	// the average frame size. The correction-factor update does not read them.
	UndershootPct int
	OvershootPct  int

	// KeyFrameIntervalFrames is the nominal number of frames between key
	// frames. It seeds the engine's frames-to-key counter and, on VP8, the
	// period over which a key frame's overspend is recovered. No engine forces
	// a key frame from it: the frame type always comes from
	// FrameParams.FrameType.
	KeyFrameIntervalFrames int

	// MaxIntraBitratePct caps a key frame's target size as a percentage of
	// AvgFrameBandwidth; 0 disables the cap. Read by the I-frame target path
	// in rc/vp8, rc/vp9 and rc/av1, matching rc_max_intra_bitrate_pct in all
	// three reference encoders.
	MaxIntraBitratePct int

	// MaxInterBitratePct caps an inter frame's target size as a percentage of
	// AvgFrameBandwidth; 0 disables the cap. Read by the P-frame target path
	// in rc/vp9 and rc/av1 (rc_max_inter_bitrate_pct/max_inter_bitrate_pct in
	// their reference encoders); VP8's reference has no such cap, so rc/vp8
	// never reads this field.
	MaxInterBitratePct int

	// SpatialLayers and TemporalLayers enable SVC mode when either is greater
	// than 1. LayerTargetBitrates must then have SpatialLayers*TemporalLayers
	// entries, cumulative per spatial layer as libvpx/libaom define it.
	SpatialLayers      int
	TemporalLayers     int
	LayerTargetBitrates []int64
	LayerFramerates     []float64

	// TsRateDecimator holds, for each temporal layer from the base layer
	// upward, the frame-rate decimation factor ts_rate_decimator defines in
	// the reference SVC controllers: layer tl is encoded once every
	// TsRateDecimator[tl] frames. The top layer's entry must be 1 and each
	// entry below the top must be exactly double the one above it (a dyadic
	// temporal layering); Validate enforces this whenever at least 2 entries
	// are set. A layer's Framerate defaults to Framerate/TsRateDecimator[tl]
	// at Init when LayerFramerates does not already supply that layer.
	TsRateDecimator []int

	// Logger receives diagnostic and default-substitution messages. Must be
	// set; Validate reports StatusInvalidParam if it is nil.
	Logger logging.Logger

	// LogLevel mirrors revid/config's field of the same name; engines do not
	// interpret it themselves; it exists for a caller's Logger implementation
	// to consult.
	LogLevel int8
}

// Validate checks Config for errors, returning the first one found. Unlike
// revid/config.Validate (which never fails and always defaults in place),
// this Validate returns an error: a rate-control engine is a library, and
// Create/Init must be able to report a bad Config to the caller rather than
// quietly substituting a default bitrate or dimension.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return newError(StatusInvalidParam, "rc: Config.Logger must be set")
	}
	for _, v := range Variables {
		if v.Validate != nil {
			if err := v.Validate(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update takes a map of configuration variable names to string values and
// applies each one found in Variables to c.
func (c *Config) Update(vars map[string]string) {
	for _, v := range Variables {
		if val, ok := vars[v.Name]; ok && v.Update != nil {
			v.Update(c, val)
		}
	}
}
