// Package scoring holds the driving-score arithmetic and the display bands
// derived from scores.
package scoring

import "math"

// Score bounds and defaults.
const (
	MinScore     = 0
	MaxScore     = 100
	InitialScore = 75

	goodThreshold = 80
	fairThreshold = 60

	lowRiskCeiling    = 0.3
	mediumRiskCeiling = 0.6
)

// Clamp bounds v to [MinScore, MaxScore].
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Apply adds impact to score and clamps the result.
func Apply(score, impact int) int {
	return Clamp(score + impact)
}

// Band is the display grade of a driving score.
type Band string

// Driving score bands.
const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// BandOf grades a driving score: >=80 good, >=60 fair, otherwise poor.
func BandOf(score int) Band {
	switch {
	case score >= goodThreshold:
		return BandGood
	case score >= fairThreshold:
		return BandFair
	default:
		return BandPoor
	}
}

// Trending reports whether the score is shown with an upward trend marker.
func Trending(score int) bool {
	return score >= goodThreshold
}

// RiskLevel is the display classification of a normalized risk score.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// LevelOf classifies a [0,1] risk score: <=0.3 low, <=0.6 medium, else high.
func LevelOf(risk float64) RiskLevel {
	switch {
	case risk <= lowRiskCeiling:
		return RiskLow
	case risk <= mediumRiskCeiling:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Percent converts a [0,1] risk score to its x100 display value rounded to
// one decimal.
func Percent(risk float64) float64 {
	return Round1(risk * 100)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
