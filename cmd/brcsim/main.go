/*
NAME
  main.go

DESCRIPTION
  brcsim is a synthetic-stream harness for rc.Engine: it drives an engine
  through a sequence of key/inter frames using plausible per-resolution
  frame-size heuristics instead of a real codec, the way fake-enc exercises
  libmebo. Useful for sanity-checking an engine's qindex/bitrate behaviour
  without wiring up an actual encoder.

  sample command:
    brcsim --codec=VP9 --preset=5 --framecount=300

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements brcsim, a synthetic-stream driver for rc.Engine.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/ausocean/brc/rc"
	_ "github.com/ausocean/brc/rc/av1"
	_ "github.com/ausocean/brc/rc/vp8"
	_ "github.com/ausocean/brc/rc/vp9"
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logging related constants, following cmd/looper's own file-logger setup.
const (
	logPath      = "brcsim.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 7 // days
	logSuppress  = false
)

func main() {
	codecFlag := flag.String("codec", "VP9", "Codec to simulate: VP8, VP9 or AV1.")
	presetFlag := flag.Int("preset", 5, "Encode preset, 0-13.")
	framecountFlag := flag.Int("framecount", 100, "Number of frames to simulate (per spatial layer).")
	verboseFlag := flag.Bool("verbose", false, "Log per-frame qindex and size at Debug level.")
	logLevelFlag := flag.Int("loglevel", int(logging.Info), "Log verbosity: 0=Debug 1=Info 2=Warning 3=Error 4=Fatal.")
	chartFlag := flag.String("chart", "", "If set, render a qindex/size-over-time PNG chart to this path.")
	rateFileFlag := flag.String("rate-file", "", "If set, watch this JSON file ({\"target_bitrate\": N}) for live TargetBitrate overrides.")
	seedFlag := flag.Int64("seed", 1, "Random seed for the simulated frame-size sampler.")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log := logging.New(int8(*logLevelFlag), io.MultiWriter(os.Stdout, fileLog), logSuppress)

	if *presetFlag < 0 || *presetFlag >= len(presets) {
		log.Fatal("brcsim: preset out of range", "preset", *presetFlag, "max", len(presets)-1)
	}
	p := presets[*presetFlag]

	codec, algo, err := codecAndAlgo(*codecFlag)
	if err != nil {
		log.Fatal("brcsim: bad codec", "error", err)
	}

	cfg := &rc.Config{
		Codec:                  codec,
		Algo:                   algo,
		Width:                  p.width,
		Height:                 p.height,
		TargetBitrate:          int64(p.bitrateKbps) * 1000,
		Framerate:              float64(p.framerate),
		BitDepth:               8,
		MinQuantizer:           0,
		MaxQuantizer:           63,
		BufferStartingMs:       500,
		BufferOptimalMs:        600,
		BufferMaxMs:            1000,
		UndershootPct:          50,
		OvershootPct:           50,
		KeyFrameIntervalFrames: 30 * p.numSL,
		SpatialLayers:          p.numSL,
		TemporalLayers:         p.numTL,
		Logger:                 log,
	}

	if cfg.SpatialLayers > 1 || cfg.TemporalLayers > 1 {
		alloc := layeredBitrateAlloc(cfg.SpatialLayers, cfg.TemporalLayers, p.bitrateKbps)
		cfg.LayerTargetBitrates = cumulativeLayerBitrates(alloc, cfg.TemporalLayers)
		cfg.LayerFramerates = temporalLayerFramerates(cfg.TemporalLayers, cfg.Framerate)
	}

	engine, err := rc.Create(cfg)
	if err != nil {
		log.Fatal("brcsim: failed to create engine", "error", err)
	}

	var bitrateUpdates chan int64
	if *rateFileFlag != "" {
		bitrateUpdates = make(chan int64, 1)
		watcher, err := newBitrateWatcher(*rateFileFlag, log, bitrateUpdates)
		if err != nil {
			log.Error("brcsim: failed to start rate-file watcher", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	rng := rand.New(rand.NewSource(*seedFlag))
	records := simulate(engine, cfg, *presetFlag, p, rng, bitrateUpdates, log, *framecountFlag, *verboseFlag)

	summarize(records, cfg.Framerate, p.bitrateKbps)

	if *chartFlag != "" {
		if err := renderChart(records, *chartFlag); err != nil {
			log.Error("brcsim: failed to render chart", "error", err)
		} else {
			fmt.Printf("chart written to %s\n", *chartFlag)
		}
	}
}

// codecAndAlgo maps a codec name to its rc.CodecKind and default algorithm,
// mirroring fake-enc's get_codec_and_algo_id.
func codecAndAlgo(name string) (rc.CodecKind, rc.AlgoId, error) {
	switch name {
	case "VP8":
		return rc.VP8, rc.AlgoLibvpxVP8, nil
	case "VP9":
		return rc.VP9, rc.AlgoLibvpxVP9, nil
	case "AV1":
		return rc.AV1, rc.AlgoAomAV1, nil
	default:
		return rc.Unknown, rc.AlgoUnknown, fmt.Errorf("brcsim: unknown codec %q", name)
	}
}
