/*
NAME
  buffer.go

DESCRIPTION
  buffer.go implements component B: the leaky-bucket buffer-level model
  shared, in shape, by all three codec backends.

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

// SetBufferSizes sizes the buffer-level setpoints from config, called on
// Init and UpdateConfig. targetBandwidthBps is bits/sec; the buf_* fields are
// in milliseconds of bandwidth.
func (s *State) SetBufferSizes(targetBandwidthBps, startingMs, optimalMs, maxMs int64) {
	s.StartingBufferLevel = startingMs * targetBandwidthBps / 1000
	if optimalMs == 0 {
		s.OptimalBufferLevel = targetBandwidthBps / 8
	} else {
		s.OptimalBufferLevel = optimalMs * targetBandwidthBps / 1000
	}
	if maxMs == 0 {
		s.MaximumBufferSize = targetBandwidthBps / 8
	} else {
		s.MaximumBufferSize = maxMs * targetBandwidthBps / 1000
	}
	if s.BitsOffTarget > s.MaximumBufferSize {
		s.BitsOffTarget = s.MaximumBufferSize
	}
	if s.BufferLevel > s.MaximumBufferSize {
		s.BufferLevel = s.MaximumBufferSize
	}
}

// PreEncodeUpdate absorbs one frame period's worth of bandwidth into the
// buffer before the frame is sized, clamping to MaximumBufferSize.
func (s *State) PreEncodeUpdate() {
	s.BitsOffTarget += s.AvgFrameBandwidth
	if s.BitsOffTarget > s.MaximumBufferSize {
		s.BitsOffTarget = s.MaximumBufferSize
	}
	s.BufferLevel = s.BitsOffTarget
}

// PostEncodeUpdate drains the buffer by the actual encoded frame size,
// clamping to MaximumBufferSize. Invariant 2 (BufferLevel == BitsOffTarget)
// and invariant 3 (BufferLevel <= MaximumBufferSize) hold after this call.
func (s *State) PostEncodeUpdate(encodedFrameSizeBits int64) {
	s.BitsOffTarget -= encodedFrameSizeBits
	if s.BitsOffTarget > s.MaximumBufferSize {
		s.BitsOffTarget = s.MaximumBufferSize
	}
	s.BufferLevel = s.BitsOffTarget
}
