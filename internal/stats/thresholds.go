package stats

// Thresholds holds the product heuristics behind badges, monthly signals and
// story momentum. Zero fields fall back to the defaults.
type Thresholds struct {
	ConsistentRate  float64 `yaml:"consistent_rate" json:"consistent_rate"`
	IdentityRate    float64 `yaml:"identity_rate" json:"identity_rate"`
	GrowthFactor    float64 `yaml:"growth_factor" json:"growth_factor"`
	GrowthMinQ4     int     `yaml:"growth_min_q4" json:"growth_min_q4"`
	AttemptedMin    int     `yaml:"attempted_min" json:"attempted_min"`
	DipPoints       float64 `yaml:"dip_points" json:"dip_points"`
	ReboundPoints   float64 `yaml:"rebound_points" json:"rebound_points"`
	ReboundBaseline float64 `yaml:"rebound_baseline" json:"rebound_baseline"`
	MomentumPoints  float64 `yaml:"momentum_points" json:"momentum_points"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ConsistentRate:  0.85,
		IdentityRate:    0.5,
		GrowthFactor:    1.5,
		GrowthMinQ4:     5,
		AttemptedMin:    15,
		DipPoints:       15,
		ReboundPoints:   15,
		ReboundBaseline: 40,
		MomentumPoints:  5,
	}
}

func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.ConsistentRate == 0 {
		t.ConsistentRate = d.ConsistentRate
	}
	if t.IdentityRate == 0 {
		t.IdentityRate = d.IdentityRate
	}
	if t.GrowthFactor == 0 {
		t.GrowthFactor = d.GrowthFactor
	}
	if t.GrowthMinQ4 == 0 {
		t.GrowthMinQ4 = d.GrowthMinQ4
	}
	if t.AttemptedMin == 0 {
		t.AttemptedMin = d.AttemptedMin
	}
	if t.DipPoints == 0 {
		t.DipPoints = d.DipPoints
	}
	if t.ReboundPoints == 0 {
		t.ReboundPoints = d.ReboundPoints
	}
	if t.ReboundBaseline == 0 {
		t.ReboundBaseline = d.ReboundBaseline
	}
	if t.MomentumPoints == 0 {
		t.MomentumPoints = d.MomentumPoints
	}
	return t
}
