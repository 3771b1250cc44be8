/*
NAME
  engine.go

DESCRIPTION
  engine.go implements component H: the Create dispatcher that maps a codec
  and algorithm selection to a concrete Engine, so callers that only know
  the codec never import the codec-specific packages directly.

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

// NewEngineFunc constructs an Engine for one (codec, algorithm) pairing.
// Each codec subpackage registers its constructor with Register from an
// init function, so rc itself never imports rc/vp8, rc/vp9 or rc/av1.
type NewEngineFunc func() Engine

var registry = map[CodecKind]map[AlgoId]NewEngineFunc{}

// Register adds a backend constructor for a (codec, algo) pairing. Intended
// to be called from a codec subpackage's init function; panics on a
// duplicate registration since that indicates two backends claiming the
// same slot at link time.
func Register(codec CodecKind, algo AlgoId, fn NewEngineFunc) {
	m, ok := registry[codec]
	if !ok {
		m = map[AlgoId]NewEngineFunc{}
		registry[codec] = m
	}
	if _, exists := m[algo]; exists {
		panic("rc: duplicate Register for " + codec.String())
	}
	m[algo] = fn
}

// Create builds and initialises an Engine for cfg.Codec using cfg.Algo (or
// that codec's default backend if cfg.Algo is AlgoUnknown/AlgoDefault),
// calling Validate and Init on cfg before returning. The caller must import
// the codec subpackage(s) it needs (rc/vp8, rc/vp9, rc/av1) for blank-import
// side effects to register a backend; an unimported codec returns
// StatusUnsupportedCodec.
func Create(cfg *Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, ok := registry[cfg.Codec]
	if !ok {
		return nil, newError(StatusUnsupportedCodec, "rc: no backend registered for codec %s", cfg.Codec)
	}
	algo := cfg.Algo
	if algo == AlgoUnknown {
		algo = AlgoDefault
	}
	fn, ok := m[algo]
	if !ok {
		fn, ok = m[AlgoDefault]
	}
	if !ok {
		return nil, newError(StatusUnsupportedCodec, "rc: no backend registered for codec %s algo %d", cfg.Codec, algo)
	}
	e := fn()
	if err := e.Init(cfg); err != nil {
		return nil, err
	}
	return e, nil
}
