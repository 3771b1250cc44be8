/*
NAME
  minq_test.go

DESCRIPTION
  minq_test.go tests the min-Q lookup tables and GetActiveQuality.

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

func TestBuildMinqLUTsMonotonic(t *testing.T) {
	for _, coeff := range []float64{0.70, 0.90} {
		luts := BuildMinqLUTs(8, coeff)
		tables := map[string][QIndexRange]int{
			"KfLow":     luts.KfLow,
			"KfHigh":    luts.KfHigh,
			"ArfgfLow":  luts.ArfgfLow,
			"ArfgfHigh": luts.ArfgfHigh,
			"Inter":     luts.Inter,
			"Rtc":       luts.Rtc,
		}
		for name, table := range tables {
			for i := 1; i < QIndexRange; i++ {
				if table[i] < table[i-1] {
					t.Errorf("coeff %v: %s[%d] = %d, less than %s[%d] = %d", coeff, name, i, table[i], name, i-1, table[i-1])
				}
				if table[i] < 0 || table[i] >= QIndexRange {
					t.Errorf("coeff %v: %s[%d] = %d out of range", coeff, name, i, table[i])
				}
			}
		}
	}
}

func TestGetActiveQualityBounds(t *testing.T) {
	luts := BuildMinqLUTs(8, 0.70)
	const q = 100
	low, high := KfLowBoost, KfHighBoost

	if got, want := GetActiveQuality(q, high+1, low, high, &luts.KfLow, &luts.KfHigh), luts.KfLow[q]; got != want {
		t.Errorf("gfuBoost above high: got %d, want %d (KfLow)", got, want)
	}
	if got, want := GetActiveQuality(q, low-1, low, high, &luts.KfLow, &luts.KfHigh), luts.KfHigh[q]; got != want {
		t.Errorf("gfuBoost below low: got %d, want %d (KfHigh)", got, want)
	}

	mid := GetActiveQuality(q, (low+high)/2, low, high, &luts.KfLow, &luts.KfHigh)
	if mid < luts.KfLow[q] || mid > luts.KfHigh[q] {
		t.Errorf("gfuBoost mid-range: got %d, want value between KfLow[%d]=%d and KfHigh[%d]=%d", mid, q, luts.KfLow[q], q, luts.KfHigh[q])
	}
}
