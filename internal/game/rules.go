package game

import "math"

// RulesConfig holds configurable gameplay constants.
type RulesConfig struct {
	BasePoints             float64 // points for a correct answer before bonuses
	TimeBonusCoefficient   float64 // bonus = remaining fraction * coefficient
	StreakThreshold        int     // streak length activating the multiplier
	StreakMultiplier       float64
	DoublePointsMultiplier float64
	ExtraTimeSeconds       int
	InitialJokers          int
	InitialPowerUps        PowerUps
	JudgeApprovePoints     float64
	JudgeRejectPoints      float64 // flat part; granted time bonus is added on top
}

// DefaultRulesConfig returns the shipped gameplay constants.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		BasePoints:             1,
		TimeBonusCoefficient:   0.5,
		StreakThreshold:        3,
		StreakMultiplier:       1.5,
		DoublePointsMultiplier: 2,
		ExtraTimeSeconds:       15,
		InitialJokers:          2,
		InitialPowerUps:        PowerUps{ExtraTime: 2, DoublePoints: 2, SkipQuestion: 2},
		JudgeApprovePoints:     1,
		JudgeRejectPoints:      1,
	}
}

// round1 rounds to one decimal; every score mutation goes through it.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// timeBonus computes the remaining-time bonus for a correct answer.
func (r RulesConfig) timeBonus(remaining, total int) float64 {
	if total <= 0 || remaining <= 0 {
		return 0
	}
	return round1(float64(remaining) / float64(total) * r.TimeBonusCoefficient)
}
