/*
NAME
  simulate.go

DESCRIPTION
  simulate.go drives the simulated encode loop, ported from fake-enc's
  start_virtual_encode: cycle frame types and SVC layer ids, sample a
  plausible frame size biased by the chosen qindex, and push it through
  ComputeQP/PostEncodeUpdate the way a real encoder's control loop would.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"math/rand"

	"github.com/ausocean/brc/rc"
	"github.com/ausocean/utils/logging"
)

// dynamicRateDivisor is the factor fake-enc divides target_bandwidth by
// partway through a dynamic-rate-change preset (preset 12's "/8").
const dynamicRateDivisor = 8

// simulate runs frameCount*numSL frames through engine, sampling a frame
// size for each from the preset's bitrate-bounds heuristic (biased towards
// the low end at a low qindex and the high end at a high one, the same way
// fake-enc's qp-weighted suggested_size does), applying any pending
// bitrateUpdates via UpdateConfig, and returns the per-frame trace.
func simulate(engine rc.Engine, cfg *rc.Config, presetIdx int, p preset, rng *rand.Rand, bitrateUpdates <-chan int64, log logging.Logger, frameCount int, verbose bool) []frameRecord {
	keyFramePeriod := 30 * p.numSL
	totalFrames := frameCount * p.numSL

	ids := newLayerIDAssigner(p.numSL, p.numTL)
	records := make([]frameRecord, 0, totalFrames)

	prevQ := 0
	halfwayApplied := false

	for i := 0; i < totalFrames; i++ {
		select {
		case newRate := <-bitrateUpdates:
			cfg.TargetBitrate = newRate
			if err := engine.UpdateConfig(cfg); err != nil {
				log.Error("brcsim: UpdateConfig failed", "error", err)
			} else {
				log.Info("brcsim: applied live TargetBitrate override", "bitrate", newRate)
			}
		default:
		}

		if p.dynamicRateChange && !halfwayApplied && i >= totalFrames/2 {
			cfg.TargetBitrate /= dynamicRateDivisor
			if err := engine.UpdateConfig(cfg); err != nil {
				log.Error("brcsim: dynamic rate change UpdateConfig failed", "error", err)
			}
			halfwayApplied = true
		}

		spatial, temporal := ids.next(i)
		keyFrame := i%keyFramePeriod == 0
		ft := rc.InterFrame
		if keyFrame {
			ft = rc.KeyFrame
		}

		bounds := frameSizeBounds(presetIdx, keyFrame, spatial, temporal)

		if err := engine.ComputeQP(rc.FrameParams{
			FrameType:       ft,
			SpatialLayerID:  uint8(spatial),
			TemporalLayerID: uint8(temporal),
		}); err != nil {
			log.Error("brcsim: ComputeQP failed", "frame", i, "error", err)
			continue
		}
		q, err := engine.GetQP()
		if err != nil {
			log.Error("brcsim: GetQP failed", "frame", i, "error", err)
			continue
		}

		size := sampleFrameSize(rng, bounds, q, prevQ, i == 0 || keyFrame)
		prevQ = q

		if err := engine.PostEncodeUpdate(uint64(size)); err != nil {
			log.Error("brcsim: PostEncodeUpdate failed", "frame", i, "error", err)
		}

		if verbose {
			log.Debug("brcsim: frame encoded", "frame", i, "keyFrame", keyFrame, "qindex", q, "size", size)
		}

		records = append(records, frameRecord{
			keyFrame:      keyFrame,
			qindex:        q,
			sizeBytes:     size,
			spatialLayer:  spatial,
			temporalLayer: temporal,
		})
	}
	return records
}

// sampleFrameSize samples a byte count within bounds, biased by qindex
// versus the previous frame's qindex the way fake-enc's suggested_size
// heuristic does: a suggested size sits qindex/256 of the way up the range;
// a falling qindex (more bits available) samples between that point and the
// upper bound, a rising or steady one between the lower bound and it. The
// very first frame and every key frame sample uniformly across the full
// range instead, since there is no preceding inter-frame qindex trend yet.
func sampleFrameSize(rng *rand.Rand, bounds bitrateBounds, qindex, prevQindex int, uniform bool) int {
	lower, upper := bounds.lower, bounds.upper
	if upper <= lower {
		return lower
	}
	if uniform {
		return lower + rng.Intn(upper-lower)
	}

	qVal := qindex
	if qVal == 0 {
		qVal = 1
	}
	sizeRange := upper - lower
	qRangeLength := sizeRange / 256
	suggested := lower + qVal*qRangeLength
	if suggested > upper {
		suggested = upper
	}

	if qindex < prevQindex {
		return suggested + rng.Intn(upper-suggested+1)
	}
	return lower + rng.Intn(suggested-lower+1)
}
