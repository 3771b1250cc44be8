/*
NAME
  presets.go

DESCRIPTION
  presets.go holds the canned encode presets and per-resolution frame-size
  heuristics fake-enc's virtual encoder uses to avoid needing a real codec:
  a preset fixes bitrate/resolution/layer counts, and the bounds tables
  give a plausible byte-range for a key or inter frame at that preset,
  which the simulated encode loop samples from instead of actually
  compressing anything.

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

// MaxSpatialLayers and MaxTemporalLayers bound the SVC bitrate-bounds
// tables below.
const (
	MaxSpatialLayers  = 3
	MaxTemporalLayers = 3
)

// preset mirrors fake-enc's struct EncParams: one canned encode scenario.
type preset struct {
	bitrateKbps       int
	framerate         int
	width, height     int
	frameCount        int
	numSL, numTL      int
	dynamicRateChange bool
}

// svcPresetStart is the first preset index that carries more than one
// spatial or temporal layer; presets below it index straight into
// bitrateBoundsIntra/bitrateBoundsInter, presets at or above it index into
// the svc variants keyed by (spatial, temporal) layer instead.
const svcPresetStart = 13

// presets is fake-enc's preset_list, 0-indexed identically.
var presets = []preset{
	{256, 30, 320, 240, 100, 1, 1, false},
	{512, 30, 320, 240, 100, 1, 1, false},
	{1024, 30, 320, 240, 100, 1, 1, false},
	{256, 30, 640, 480, 100, 1, 1, false},
	{512, 30, 640, 480, 100, 1, 1, false},
	{1024, 30, 640, 480, 100, 1, 1, false},
	{1024, 30, 1280, 720, 100, 1, 1, false},
	{2048, 30, 1280, 720, 100, 1, 1, false},
	{4096, 30, 1280, 720, 100, 1, 1, false},
	{1024, 30, 1920, 1080, 100, 1, 1, false},
	{4096, 30, 1920, 1080, 100, 1, 1, false},
	{8192, 30, 1920, 1080, 100, 1, 1, false},
	{8192, 30, 1920, 1080, 100, 1, 1, true},
	{4096, 30, 1280, 720, 100, 3, 2, false},
}

// bitrateBounds is a [lower, upper] byte range for one frame at one
// non-SVC preset.
type bitrateBounds struct{ lower, upper int }

// bitrateBoundsIntra and bitrateBoundsInter are fake-enc's
// bitrate_bounds_intra/bitrate_bounds_inter, indexed by preset.
var bitrateBoundsIntra = []bitrateBounds{
	{3500, 4440}, {3700, 5600}, {5500, 9500},
	{4100, 7400}, {3700, 11150}, {10100, 16100},
	{16000, 25600}, {27600, 35800}, {30100, 63100},
	{14400, 30000}, {60000, 75100}, {65400, 126600},
	{65400, 126600},
}

var bitrateBoundsInter = []bitrateBounds{
	{800, 1170}, {1700, 2200}, {3000, 5000},
	{900, 1200}, {1800, 2200}, {3600, 4500},
	{3000, 4500}, {7100, 8400}, {14700, 17500},
	{3100, 8500}, {14100, 16500}, {30000, 35600},
	{30000, 35600},
}

// svcBitrateBounds is fake-enc's SvcBitrateBounds: one [lower, upper] range
// per (spatial, temporal) layer pair, for one SVC preset.
type svcBitrateBounds struct {
	lower [MaxSpatialLayers][MaxTemporalLayers]int
	upper [MaxSpatialLayers][MaxTemporalLayers]int
}

var svcBitrateBoundsIntra = []svcBitrateBounds{
	{
		lower: [MaxSpatialLayers][MaxTemporalLayers]int{
			{5957, 5957, 0},
			{8007, 8007, 0},
			{17520, 17520, 0},
		},
		upper: [MaxSpatialLayers][MaxTemporalLayers]int{
			{9884, 9884, 0},
			{17241, 17241, 0},
			{19084, 19084, 0},
		},
	},
}

var svcBitrateBoundsInter = []svcBitrateBounds{
	{
		lower: [MaxSpatialLayers][MaxTemporalLayers]int{
			{4520, 4520, 0},
			{4876, 4876, 0},
			{4327, 4327, 0},
		},
		upper: [MaxSpatialLayers][MaxTemporalLayers]int{
			{5700, 5700, 0},
			{5670, 5670, 0},
			{5689, 5689, 0},
		},
	},
}

// frameSizeBounds returns the [lower, upper] byte range for a frame of the
// given type, at the given preset index and (spatial, temporal) layer.
func frameSizeBounds(presetIdx int, keyFrame bool, spatialLayer, temporalLayer int) bitrateBounds {
	if presetIdx < svcPresetStart {
		if keyFrame {
			return bitrateBoundsIntra[presetIdx]
		}
		return bitrateBoundsInter[presetIdx]
	}
	svcIdx := presetIdx - svcPresetStart
	if keyFrame {
		b := svcBitrateBoundsIntra[svcIdx]
		return bitrateBounds{b.lower[spatialLayer][temporalLayer], b.upper[spatialLayer][temporalLayer]}
	}
	b := svcBitrateBoundsInter[svcIdx]
	return bitrateBounds{b.lower[spatialLayer][temporalLayer], b.upper[spatialLayer][temporalLayer]}
}
