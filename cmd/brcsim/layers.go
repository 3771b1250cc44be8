/*
NAME
  layers.go

DESCRIPTION
  layers.go derives the per-frame (spatial, temporal) layer assignment and
  the cumulative per-layer target bitrates fake-enc's SVC mode uses, ported
  from get_layer_ids/InitLayeredBitrateAlloc/InitLayeredFramerate.

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

// layerIDAssigner reproduces get_layer_ids' stateful temporal-id carry:
// the temporal id only advances once every spatial-layer cycle is complete,
// and is otherwise held at its previous value.
type layerIDAssigner struct {
	numSL, numTL  int
	prevTemporal int
}

func newLayerIDAssigner(numSL, numTL int) *layerIDAssigner {
	return &layerIDAssigner{numSL: numSL, numTL: numTL}
}

func (a *layerIDAssigner) next(frameCount int) (spatial, temporal int) {
	spatial = frameCount % a.numSL
	if frameCount%a.numSL != 0 {
		return spatial, a.prevTemporal
	}
	switch a.numTL {
	case 1:
		temporal = 0
	case 2:
		if frameCount%2 == 0 {
			temporal = 0
		} else {
			temporal = 1
		}
	case 3:
		switch {
		case frameCount%4 == 0:
			temporal = 0
		case frameCount%2 == 0:
			temporal = 1
		default:
			temporal = 2
		}
	default:
		temporal = 0
	}
	a.prevTemporal = temporal
	return spatial, temporal
}

// layerIndex flattens a (spatial, temporal) pair the same way fake-enc's
// LAYER_IDS_TO_IDX macro does.
func layerIndex(spatial, temporal, numTL int) int {
	return spatial*numTL + temporal
}

// layeredBitrateAlloc splits bitrateKbps evenly across spatial layers and,
// within each spatial layer, evenly across temporal layers, mirroring
// InitLayeredBitrateAlloc.
func layeredBitrateAlloc(numSL, numTL, bitrateKbps int) [][]int {
	alloc := make([][]int, numSL)
	for sl := 0; sl < numSL; sl++ {
		alloc[sl] = make([]int, numTL)
		slRate := bitrateKbps / numSL
		for tl := 0; tl < numTL; tl++ {
			alloc[sl][tl] = slRate / numTL
		}
	}
	return alloc
}

// cumulativeLayerBitrates returns the flat LayerTargetBitrates slice
// rc.Config expects: for each spatial layer in turn, the cumulative
// (libvpx/libaom-style) per-temporal-layer target bitrate in bits/sec.
func cumulativeLayerBitrates(alloc [][]int, numTL int) []int64 {
	flat := make([]int64, len(alloc)*numTL)
	for sl, rates := range alloc {
		sum := 0
		for tl, kbps := range rates {
			sum += kbps
			flat[layerIndex(sl, tl, numTL)] = int64(sum) * 1000
		}
	}
	return flat
}

// temporalLayerFramerates mirrors InitLayeredFramerate: ts_rate_decimator[tl]
// is 1<<(numTL-tl-1), the standard dyadic temporal-layer split.
func temporalLayerFramerates(numTL int, framerate float64) []float64 {
	rates := make([]float64, numTL)
	prev := 0.0
	for tl := 0; tl < numTL; tl++ {
		decimator := float64(int(1) << uint(numTL-tl-1))
		cur := framerate / decimator
		if tl == 0 {
			rates[tl] = cur
		} else {
			rates[tl] = cur - prev
		}
		prev = cur
	}
	return rates
}
