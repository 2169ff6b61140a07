package domain

import "fmt"

// Regime qualitative market-state classification, derived fresh per cycle.
type Regime struct {
	HighVol  bool
	Trending bool
	Liquid   bool
}

func (r Regime) String() string {
	vol := "low_vol"
	if r.HighVol {
		vol = "high_vol"
	}
	trend := "ranging"
	if r.Trending {
		trend = "trending"
	}
	liq := "illiquid"
	if r.Liquid {
		liq = "liquid"
	}
	return fmt.Sprintf("%s/%s/%s", vol, trend, liq)
}
