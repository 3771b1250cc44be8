/*
NAME
  report.go

DESCRIPTION
  report.go summarizes a completed simulated encode: per-frame qindex and
  size statistics (mirroring fake-enc's display_encode_status printf block),
  plus an optional rendered chart of qindex and frame size over time for a
  caller who wants more than numbers in a terminal.

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
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// frameRecord is one simulated frame's outcome, kept for the run's summary
// report and optional chart.
type frameRecord struct {
	keyFrame      bool
	qindex        int
	sizeBytes     int
	spatialLayer  int
	temporalLayer int
}

// summarize computes the achieved bitrate (matching fake-enc's
// bitstream_size/framecount*framerate*8/1000 calculation) and qindex
// statistics, printing a report in the same spirit as
// display_encode_status.
func summarize(records []frameRecord, framerate float64, targetKbps int) {
	if len(records) == 0 {
		return
	}
	totalBytes := 0
	qvals := make([]float64, len(records))
	for i, r := range records {
		totalBytes += r.sizeBytes
		qvals[i] = float64(r.qindex)
	}
	achievedKbps := float64(totalBytes) / float64(len(records)) * framerate * 8 / 1000
	meanQ := stat.Mean(qvals, nil)
	stddevQ := stat.StdDev(qvals, nil)

	fmt.Printf("frames simulated     = %d\n", len(records))
	fmt.Printf("target bitrate       = %d kbps\n", targetKbps)
	fmt.Printf("achieved bitrate     = %.1f kbps\n", achievedKbps)
	fmt.Printf("mean qindex          = %.1f\n", meanQ)
	fmt.Printf("qindex stddev        = %.1f\n", stddevQ)
}

// renderChart plots qindex and frame size (in bytes) against frame number,
// writing a PNG to path. Errors are returned rather than fatal: a failed
// chart should not take down an otherwise-successful simulation run.
func renderChart(records []frameRecord, path string) error {
	qPts := make(plotter.XYs, len(records))
	sizePts := make(plotter.XYs, len(records))
	for i, r := range records {
		qPts[i].X = float64(i)
		qPts[i].Y = float64(r.qindex)
		sizePts[i].X = float64(i)
		sizePts[i].Y = float64(r.sizeBytes)
	}

	p := plot.New()
	p.Title.Text = "brcsim frame trace"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "qindex / bytes"

	if err := plotutil.AddLines(p, "qindex", qPts, "frame size (bytes)", sizePts); err != nil {
		return fmt.Errorf("brcsim: adding chart lines: %w", err)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("brcsim: saving chart: %w", err)
	}
	return nil
}
