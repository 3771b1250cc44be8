/*
NAME
  watch.go

DESCRIPTION
  watch.go optionally watches a JSON file for a live bitrate override,
  applying it to the running engine via UpdateConfig. This replaces
  fake-enc's scripted halfway dynamic-rate-change with something a caller
  can actually trigger by hand while a simulation runs.

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
	"encoding/json"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/fsnotify/fsnotify"
)

// rateOverride is the shape of the JSON file bitrateWatcher reads: a partial
// override of the bitrate-relevant Config fields.
type rateOverride struct {
	TargetBitrate int64 `json:"target_bitrate"`
}

// bitrateWatcher watches path for writes, parsing and forwarding each
// successfully-decoded rateOverride to updates.
type bitrateWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	log     logging.Logger
	updates chan<- int64
}

// newBitrateWatcher starts watching path; the caller must call Close when
// done. path's parent directory, not the file itself, is watched, since an
// editor's save often replaces the file's inode rather than writing into it.
func newBitrateWatcher(path string, log logging.Logger, updates chan<- int64) (*bitrateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := path
	if idx := lastSlash(path); idx >= 0 {
		dir = path[:idx]
	} else {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	bw := &bitrateWatcher{watcher: w, path: path, log: log, updates: updates}
	go bw.run()
	return bw, nil
}

func lastSlash(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return i
		}
	}
	return -1
}

func (bw *bitrateWatcher) run() {
	for {
		select {
		case event, ok := <-bw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != bw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			bw.reload()
		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			bw.log.Warning("brcsim: config watcher error", "error", err)
		}
	}
}

func (bw *bitrateWatcher) reload() {
	data, err := os.ReadFile(bw.path)
	if err != nil {
		bw.log.Warning("brcsim: failed to read rate override file", "path", bw.path, "error", err)
		return
	}
	var ov rateOverride
	if err := json.Unmarshal(data, &ov); err != nil {
		bw.log.Warning("brcsim: failed to parse rate override file", "path", bw.path, "error", err)
		return
	}
	if ov.TargetBitrate <= 0 {
		return
	}
	bw.updates <- ov.TargetBitrate
}

func (bw *bitrateWatcher) Close() error {
	return bw.watcher.Close()
}
