/*
NAME
  qm.go

DESCRIPTION
  qm.go builds AV1's quantization-matrix tables (av1_qm_init): per-level,
  per-plane, per-transform-size weight tables the encoder's coefficient
  quantizer consults. That consumer sits entirely outside this module's
  scope (no bitstream production), so these tables are built and retained
  for shape/determinism only; nothing in rc/av1 reads a QM value back.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1

const (
	// NumQMLevels is AV1_NUM_QM_LEVELS: the number of discrete QM strengths
	// av1_qm_init builds a table for.
	NumQMLevels = 16
	// NumPlanes is the plane count a QM table is built per (Y, U, V).
	NumPlanes = 3
	// NumTxSizes is TX_SIZES_ALL: the transform-size count a QM table is
	// built per, per plane.
	NumTxSizes = 19
)

// QuantMatrices holds the forward (Q) and inverse (IQ) weight tables
// av1_qm_init builds, indexed [level][plane][txSize].
type QuantMatrices struct {
	Q  [NumQMLevels][NumPlanes][NumTxSizes][]uint8
	IQ [NumQMLevels][NumPlanes][NumTxSizes][]uint8
}

// txSizeLen is a placeholder coefficient-count-per-transform-size function:
// the real aom_qm tables' per-size lengths come from that module's own
// block-size tables, which sit outside the rate-control source this package
// is grounded on. A deterministic, monotonically increasing length keeps
// the build shape-correct without claiming bit-accuracy (see DESIGN.md).
func txSizeLen(txSize int) int {
	return (txSize + 1) * (txSize + 1)
}

// buildQuantMatrices constructs deterministic placeholder Q/IQ tables: the
// forward weight scales linearly from strongest (level 0) to weakest
// (level NumQMLevels-1) quantization, and the inverse weight is 256 minus
// the forward weight, matching the shape av1_qm_init produces without
// reproducing aom's actual coefficient derivation.
func buildQuantMatrices() *QuantMatrices {
	qm := &QuantMatrices{}
	for level := 0; level < NumQMLevels; level++ {
		strength := uint8(32 + (level*(255-32))/(NumQMLevels-1))
		for plane := 0; plane < NumPlanes; plane++ {
			for tx := 0; tx < NumTxSizes; tx++ {
				n := txSizeLen(tx)
				q := make([]uint8, n)
				iq := make([]uint8, n)
				for i := range q {
					q[i] = strength
					iq[i] = 255 - strength + 1
				}
				qm.Q[level][plane][tx] = q
				qm.IQ[level][plane][tx] = iq
			}
		}
	}
	return qm
}
