/*
NAME
  qtables_test.go

DESCRIPTION
  qtables_test.go tests the quantizer and qindex conversion tables.

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

import "testing"

func TestQuantizerToQindexRange(t *testing.T) {
	for q := -5; q < 70; q++ {
		qi := QuantizerToQindex(q)
		if qi < 0 || qi >= QIndexRange {
			t.Errorf("QuantizerToQindex(%d) = %d, out of [0, %d)", q, qi, QIndexRange)
		}
	}
}

func TestQuantizerToQindexMonotonic(t *testing.T) {
	prev := QuantizerToQindex(0)
	for q := 1; q <= 63; q++ {
		qi := QuantizerToQindex(q)
		if qi < prev {
			t.Errorf("QuantizerToQindex(%d) = %d, less than QuantizerToQindex(%d) = %d", q, qi, q-1, prev)
		}
		prev = qi
	}
}

func TestConvertQindexToQMonotonic(t *testing.T) {
	for _, bitDepth := range []int{8, 10, 12} {
		prev := ConvertQindexToQ(0, bitDepth)
		for qi := 1; qi < QIndexRange; qi++ {
			q := ConvertQindexToQ(qi, bitDepth)
			if q < prev {
				t.Errorf("bitDepth %d: ConvertQindexToQ(%d) = %v, less than ConvertQindexToQ(%d) = %v", bitDepth, qi, q, qi-1, prev)
			}
			prev = q
		}
	}
}

func TestAcQuantClamp(t *testing.T) {
	if got := AcQuant(-10, 0, 8); got != AcQuant(0, 0, 8) {
		t.Errorf("AcQuant(-10, ...) = %d, want AcQuant(0, ...) = %d", got, AcQuant(0, 0, 8))
	}
	if got := AcQuant(QIndexRange+10, 0, 8); got != AcQuant(QIndexRange-1, 0, 8) {
		t.Errorf("AcQuant(%d, ...) = %d, want AcQuant(%d, ...) = %d", QIndexRange+10, got, QIndexRange-1, AcQuant(QIndexRange-1, 0, 8))
	}
}
