package pricing

import "testing"

func TestCalculateBase(t *testing.T) {
	s := Settings{BaseRatePerKm: 2.5, BaseRatePerHour: 45, TargetMarginPercent: 20}

	// 30 km × 2.5 = 75 vs 0.75 h × 45 = 33.75 → distance wins; +20% → 90.
	r := calculateBase(30, 45, s)
	if r.SelectedMethod != methodDistance {
		t.Errorf("method = %s, want distance", r.SelectedMethod)
	}
	if r.DistancePrice != 75 || r.DurationPrice != 33.75 {
		t.Errorf("candidates = %v / %v, want 75 / 33.75", r.DistancePrice, r.DurationPrice)
	}
	if r.BasePrice != 75 || r.PriceWithMargin != 90 {
		t.Errorf("base = %v, with margin = %v, want 75 / 90", r.BasePrice, r.PriceWithMargin)
	}
}

func TestCalculateBase_DurationWins(t *testing.T) {
	s := Settings{BaseRatePerKm: 2.0, BaseRatePerHour: 60, TargetMarginPercent: 0}
	// 10 km × 2 = 20 vs 2 h × 60 = 120.
	r := calculateBase(10, 120, s)
	if r.SelectedMethod != methodDuration || r.BasePrice != 120 {
		t.Errorf("got %s/%v, want duration/120", r.SelectedMethod, r.BasePrice)
	}
}

func TestCalculateBase_TieGoesToDistance(t *testing.T) {
	s := Settings{BaseRatePerKm: 2.5, BaseRatePerHour: 50, TargetMarginPercent: 0}
	// 30 km × 2.5 = 75 and 1.5 h × 50 = 75.
	r := calculateBase(30, 90, s)
	if r.SelectedMethod != methodDistance {
		t.Errorf("method = %s, want distance on a tie", r.SelectedMethod)
	}
}
