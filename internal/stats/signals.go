package stats

type Signal string

const (
	SignalNone Signal = ""
	BestFocus  Signal = "Best focus month"
	BurnoutDip Signal = "Burnout dip"
	Rebound    Signal = "Rebound month"
)

type MonthSignal struct {
	MonthRate
	// Delta is the rate change in points from the previous month; nil when
	// either month had nothing due.
	Delta  *float64 `json:"delta,omitempty"`
	Signal Signal   `json:"signal,omitempty"`
}

type signalRule struct {
	signal Signal
	match  func(cur MonthSignal, prev *MonthRate, best bool, th Thresholds) bool
}

var signalRules = []signalRule{
	{BestFocus, func(_ MonthSignal, _ *MonthRate, best bool, _ Thresholds) bool {
		return best
	}},
	{BurnoutDip, func(cur MonthSignal, _ *MonthRate, _ bool, th Thresholds) bool {
		return cur.Delta != nil && *cur.Delta < -th.DipPoints
	}},
	{Rebound, func(cur MonthSignal, prev *MonthRate, _ bool, th Thresholds) bool {
		return cur.Delta != nil && *cur.Delta > th.ReboundPoints && prev.Rate < th.ReboundBaseline
	}},
}

// MonthSignals labels each of the 12 months with at most one signal. The best
// month is the single highest rate (earliest wins ties) and must be above
// zero. Months with nothing due get no signal.
func MonthSignals(rates [12]MonthRate, th Thresholds) [12]MonthSignal {
	th = th.WithDefaults()

	best := -1
	for i, r := range rates {
		if r.Due == 0 || r.Rate <= 0 {
			continue
		}
		if best < 0 || r.Rate > rates[best].Rate {
			best = i
		}
	}

	var out [12]MonthSignal
	for i, r := range rates {
		cur := MonthSignal{MonthRate: r}
		var prev *MonthRate
		if i > 0 && rates[i-1].Due > 0 && r.Due > 0 {
			prev = &rates[i-1]
			d := r.Rate - prev.Rate
			cur.Delta = &d
		}
		if r.Due > 0 {
			for _, rule := range signalRules {
				if rule.match(cur, prev, i == best, th) {
					cur.Signal = rule.signal
					break
				}
			}
		}
		out[i] = cur
	}
	return out
}
