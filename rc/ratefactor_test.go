/*
NAME
  ratefactor_test.go

DESCRIPTION
  ratefactor_test.go tests the rate-correction-factor helpers and update.

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

func newRateFactorState() *State {
	s := &State{RateCorrectionFactors: make([]float64, RateFactorLevels)}
	for i := range s.RateCorrectionFactors {
		s.RateCorrectionFactors[i] = 1.0
	}
	return s
}

func TestRateFactorLevelSelection(t *testing.T) {
	if got := RateFactorLevel(KeyFrame); got != KFStd {
		t.Errorf("RateFactorLevel(KeyFrame) = %d, want KFStd (%d)", got, KFStd)
	}
	if got := RateFactorLevel(InterFrame); got != InterNormal {
		t.Errorf("RateFactorLevel(InterFrame) = %d, want InterNormal (%d)", got, InterNormal)
	}
}

func TestGetSetRateCorrectionFactorClamp(t *testing.T) {
	s := newRateFactorState()
	SetRateCorrectionFactor(s, KeyFrame, 100.0, 0.1, 10.0)
	if got := GetRateCorrectionFactor(s, KeyFrame, 0.1, 10.0); got != 10.0 {
		t.Errorf("GetRateCorrectionFactor after over-range set = %v, want clamped 10.0", got)
	}
	SetRateCorrectionFactor(s, KeyFrame, 0.001, 0.1, 10.0)
	if got := GetRateCorrectionFactor(s, KeyFrame, 0.1, 10.0); got != 0.1 {
		t.Errorf("GetRateCorrectionFactor after under-range set = %v, want clamped 0.1", got)
	}
}

func TestUpdateRateCorrectionFactorsFirstUpdateUndamped(t *testing.T) {
	s := newRateFactorState()
	s.FrameType = KeyFrame
	before := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	s.UpdateRateCorrectionFactors(KeyFrame, 2000, 1000, 0.005, 50.0)
	after := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	if after <= before {
		t.Errorf("first update (overshoot) factor = %v, want greater than initial %v", after, before)
	}
	if !s.dampedAdjustment() {
		t.Errorf("dampedAdjustment() false after first update, want true (marked on first call)")
	}
}

func TestUpdateRateCorrectionFactorsWithinToleranceNoop(t *testing.T) {
	s := newRateFactorState()
	s.FrameType = KeyFrame
	s.markDamped()
	before := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	// estimatedBitsAtQ == projectedFrameSize => correctionFactor == 100, within [99, 102] so untouched.
	s.UpdateRateCorrectionFactors(KeyFrame, 1000, 1000, 0.005, 50.0)
	after := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	if after != before {
		t.Errorf("factor changed on exact-target update: before=%v after=%v", before, after)
	}
}

func TestUpdateRateCorrectionFactorsUndershootDecreases(t *testing.T) {
	s := newRateFactorState()
	s.FrameType = KeyFrame
	s.markDamped()
	before := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	s.UpdateRateCorrectionFactors(KeyFrame, 500, 1000, 0.005, 50.0)
	after := GetRateCorrectionFactor(s, KeyFrame, 0.005, 50.0)
	if after >= before {
		t.Errorf("undershoot update factor = %v, want less than initial %v", after, before)
	}
}

func TestUpdateRateCorrectionFactorsDampingIsGlobalNotPerFrameType(t *testing.T) {
	s := newRateFactorState()

	// First update ever, a key frame: undamped (adjustmentLimit=1.0), and
	// marks the single global damped bit, not a per-frame-type one.
	s.FrameType = KeyFrame
	s.UpdateRateCorrectionFactors(KeyFrame, 100000, 10000, 0.005, 50.0)
	if !s.dampedAdjustment() {
		t.Fatalf("dampedAdjustment() false after first-ever update, want true")
	}

	// Second update, an inter frame: must already be damped, since the
	// reference hardcodes the undamped exemption to the first frame ever
	// encoded (rf_lvl 0), not to the first frame of each type independently.
	s.FrameType = InterFrame
	s.UpdateRateCorrectionFactors(InterFrame, 100000, 10000, 0.005, 50.0)
	got := GetRateCorrectionFactor(s, InterFrame, 0.005, 50.0)
	// adjustmentLimit = 0.25 + 0.5*min(1, |log10(0.01*1000)|) = 0.75
	// correctionFactor = 100 + (1000-100)*0.75 = 775
	// rateCorrectionFactor = 1.0 * 775 / 100 = 7.75
	want := 7.75
	if got != want {
		t.Errorf("InterFrame factor after second-ever update = %v, want %v (damped, not 10.0 undamped)", got, want)
	}
}

func TestUpdateRateCorrectionFactorsOscillationBookkeeping(t *testing.T) {
	s := newRateFactorState()
	s.FrameType = InterFrame
	s.markDamped()
	s.BaseQindex = 50
	s.UpdateRateCorrectionFactors(InterFrame, 2000, 1000, 0.005, 50.0)
	if s.RC1Frame != -1 {
		t.Errorf("RC1Frame = %d after overshoot, want -1", s.RC1Frame)
	}
	if s.Q1Frame != 50 {
		t.Errorf("Q1Frame = %d, want 50 (BaseQindex at call time)", s.Q1Frame)
	}
	s.BaseQindex = 60
	s.UpdateRateCorrectionFactors(InterFrame, 500, 1000, 0.005, 50.0)
	if s.RC1Frame != 1 {
		t.Errorf("RC1Frame = %d after undershoot, want 1", s.RC1Frame)
	}
	if s.RC2Frame != -1 {
		t.Errorf("RC2Frame = %d, want -1 (previous RC1Frame)", s.RC2Frame)
	}
	if s.Q2Frame != 50 || s.Q1Frame != 60 {
		t.Errorf("Q1Frame/Q2Frame = %d/%d, want 60/50", s.Q1Frame, s.Q2Frame)
	}
}
