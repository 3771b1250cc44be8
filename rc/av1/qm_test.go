/*
NAME
  qm_test.go

DESCRIPTION
  qm_test.go tests the AV1 quant-matrix tables.

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

import "testing"

func TestBuildQuantMatricesShape(t *testing.T) {
	qm := buildQuantMatrices()
	for level := 0; level < NumQMLevels; level++ {
		for plane := 0; plane < NumPlanes; plane++ {
			for tx := 0; tx < NumTxSizes; tx++ {
				want := txSizeLen(tx)
				if got := len(qm.Q[level][plane][tx]); got != want {
					t.Fatalf("level %d plane %d tx %d: len(Q) = %d, want %d", level, plane, tx, got, want)
				}
				if got := len(qm.IQ[level][plane][tx]); got != want {
					t.Fatalf("level %d plane %d tx %d: len(IQ) = %d, want %d", level, plane, tx, got, want)
				}
			}
		}
	}
}

func TestBuildQuantMatricesDeterministic(t *testing.T) {
	a := buildQuantMatrices()
	b := buildQuantMatrices()
	for level := 0; level < NumQMLevels; level++ {
		for plane := 0; plane < NumPlanes; plane++ {
			for tx := 0; tx < NumTxSizes; tx++ {
				qa, qb := a.Q[level][plane][tx], b.Q[level][plane][tx]
				for i := range qa {
					if qa[i] != qb[i] {
						t.Fatalf("non-deterministic Q at level %d plane %d tx %d index %d: %d != %d", level, plane, tx, i, qa[i], qb[i])
					}
				}
			}
		}
	}
}

func TestBuildQuantMatricesStrengthIncreases(t *testing.T) {
	qm := buildQuantMatrices()
	prev := qm.Q[0][0][0][0]
	for level := 1; level < NumQMLevels; level++ {
		cur := qm.Q[level][0][0][0]
		if cur < prev {
			t.Errorf("Q strength at level %d = %d, want non-decreasing from level %d = %d", level, cur, level-1, prev)
		}
		prev = cur
	}
}
