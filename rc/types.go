/*
NAME
  types.go

DESCRIPTION
  types.go defines the codec/algorithm discriminators, frame parameters,
  shared rate-control state shape, and the six-operation Engine interface
  that every codec backend in rc/vp8, rc/vp9 and rc/av1 implements.

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

// CodecKind discriminates the codec an engine was created for. Fixed at
// creation; never changes over an engine's lifetime.
type CodecKind int

const (
	Unknown CodecKind = iota
	VP8
	VP9
	AV1
)

func (c CodecKind) String() string {
	switch c {
	case VP8:
		return "vp8"
	case VP9:
		return "vp9"
	case AV1:
		return "av1"
	default:
		return "unknown"
	}
}

// AlgoId selects a backend implementation for a codec. Today each codec has
// exactly one real backend, plus Default as an alias for it.
type AlgoId int

const (
	AlgoUnknown AlgoId = iota
	AlgoDefault
	AlgoLibvpxVP8
	AlgoLibvpxVP9
	AlgoAomAV1
)

// FrameType discriminates a key frame (intra-only, refreshes reference
// state) from an ordinary inter frame.
type FrameType int

const (
	InterFrame FrameType = iota
	KeyFrame
)

// FrameParams is the per-frame input to ComputeQP.
type FrameParams struct {
	FrameType       FrameType
	SpatialLayerID  uint8
	TemporalLayerID uint8

	// IsScreenContent selects the screen-content bits-per-mb enumerators on
	// codecs that distinguish them (AV1). The caller classifies content; this
	// package never infers it.
	IsScreenContent bool
}

// Engine is the common six-operation surface implemented by rc/vp8.Engine,
// rc/vp9.Engine and rc/av1.Engine. UpdateConfig, ComputeQP and
// PostEncodeUpdate must be called in that relative order per frame; calling
// PostEncodeUpdate before ComputeQP is a programmer error and returns
// StatusInvalidParam rather than panicking.
type Engine interface {
	Codec() CodecKind

	// Init validates cfg, builds tables, seeds state and allocates SVC layer
	// contexts. Must be called exactly once before any other operation.
	Init(cfg *Config) error

	// UpdateConfig applies a new config in place, recomputing derived state
	// (framerate-dependent bandwidth bounds, per-layer buffer setpoints).
	UpdateConfig(cfg *Config) error

	// ComputeQP computes this frame's target size, active-Q range and qindex,
	// transitioning the engine from Idle to QpSet.
	ComputeQP(params FrameParams) error

	// GetQP returns the qindex computed by the most recent ComputeQP call.
	GetQP() (int, error)

	// GetLoopFilterLevel returns the loop-filter level derived from the most
	// recent qindex, or StatusUnimplemented with a neutral 0 on a backend
	// that does not derive one.
	GetLoopFilterLevel() (int, error)

	// PostEncodeUpdate absorbs the real encoded frame size, updates the rate
	// correction factor and buffer model, saves SVC layer state, and advances
	// the frame counter. Transitions QpSet back to Idle.
	PostEncodeUpdate(encodedFrameSizeBytes uint64) error
}

// State is the rate-control state shared in shape across all three codec
// backends; only slice lengths (RateCorrectionFactors) and a handful of
// codec-specific fields embedded in each backend's own struct differ.
type State struct {
	// Common fields.
	Width, Height     int
	BaseQindex        int
	MBs               int
	FrameType         FrameType
	ShowFrame         bool
	CurrentVideoFrame int
	BitDepth          int
	LastWidth         int
	LastHeight        int

	// Target tracking.
	ThisFrameTarget     int64
	BaseFrameTarget     int64
	ProjectedFrameSize  int64
	RollingTargetBits   int64
	RollingActualBits   int64
	TotalActualBits     int64
	TotalTargetBits     int64

	// Buffer (leaky bucket). BufferLevel and BitsOffTarget are always kept
	// equal; see invariant 2 in spec.md §3.2.
	BufferLevel         int64
	BitsOffTarget       int64
	StartingBufferLevel int64
	OptimalBufferLevel  int64
	MaximumBufferSize   int64

	// Bandwidth.
	AvgFrameBandwidth     int64
	MinFrameBandwidth     int64
	MaxFrameBandwidth     int64
	LastAvgFrameBandwidth int64

	// Q history. Index 0 is KEY, index 1 is INTER throughout this package.
	LastQ            [2]int
	AvgFrameQindex    [2]int
	LastBoostedQindex int
	LastKFQindex      int
	Q1Frame           int
	Q2Frame           int
	RC1Frame          int
	RC2Frame          int

	// Correction factors, one per rate-factor level. VP8 uses 3 (key, golden,
	// inter); VP9/AV1 use 5.
	RateCorrectionFactors []float64
	// dampedLevels tracks, in its low bit, whether this engine has been
	// through its first-ever correction-factor update (undamped, matching
	// the reference controller's hardcoded rf_lvl-0 exemption), regardless
	// of which frame type that update was for.
	dampedLevels uint8

	// Key-frame cadence.
	FramesSinceKey      int
	FramesToKey         int
	KFBoost             int
	ThisKeyFrameForced  bool

	// Quality limits.
	BestQuality         int
	WorstQuality        int
	ActiveBestQuality   int
	ActiveWorstQuality  int

	// GF cadence (VP8/VP9 only; unused fields on AV1's State, kept for shape
	// uniformity per spec.md §3.1).
	FramesTillGFUpdateDue int
	GFNoBoostOnePassCBR   bool
	BaselineGFInterval    int
	GFOverspendBits       int64
	KFOverspendBits       int64

	// Counters.
	NIFrames int
	NITotQI  int
	NIAvQI   int
	TotQ     float64
	AvgQ     float64
}

// Key/Inter index helpers for the two-element history arrays (LastQ,
// AvgFrameQindex). Index 0 is KEY, index 1 is INTER throughout this package,
// matching the reference rate controller's FRAME_TYPE enum order rather
// than this package's own FrameType enum order.
const (
	IdxKey   = 0
	IdxInter = 1
)

// FTIndex maps a FrameType to its slot in the two-element history arrays.
func FTIndex(ft FrameType) int {
	if ft == KeyFrame {
		return IdxKey
	}
	return IdxInter
}

// RoundPowerOfTwo rounds v to the nearest multiple of 2^n, then shifts right
// by n: libvpx/libaom's ROUND_POWER_OF_TWO, used throughout the running
// averages this package keeps (avg_frame_qindex and friends).
func RoundPowerOfTwo(v int64, n uint) int64 {
	return (v + (1 << (n - 1))) >> n
}
