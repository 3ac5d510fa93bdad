package model

import "time"

// Policyholder is the insured driver whose telematics data is displayed.
type Policyholder struct {
	ID                        string  `json:"id"`
	FirstName                 string  `json:"first_name"`
	LastName                  string  `json:"last_name"`
	VehicleMake               string  `json:"vehicle_make"`
	VehicleModel              string  `json:"vehicle_model"`
	VehicleYear               int     `json:"vehicle_year"`
	RiskScoreCurrent          float64 `json:"risk_score_current"`
	TotalMileageYTD           float64 `json:"total_mileage_ytd"`
	AvgDailyTrips             float64 `json:"avg_daily_trips"`
	AvgHarshEventsPer100km    float64 `json:"avg_harsh_events_per_100km"`
	NightDrivingPercentage    float64 `json:"night_driving_percentage"`
	PeakHourDrivingPercentage float64 `json:"peak_hour_driving_percentage"`
}

// Trip is a single recorded drive.
type Trip struct {
	ID                     string    `json:"id"`
	StartLocationName      string    `json:"start_location_name"`
	EndLocationName        string    `json:"end_location_name"`
	DistanceKm             float64   `json:"distance_km"`
	DurationSeconds        int       `json:"duration_seconds"`
	AvgSpeedKph            float64   `json:"avg_speed_kph"`
	HarshBrakingCount      int       `json:"harsh_braking_count"`
	RapidAccelerationCount int       `json:"rapid_acceleration_count"`
	StartTimestamp         time.Time `json:"start_timestamp"`
}

// RiskScoreRecord is one monthly risk assessment.
type RiskScoreRecord struct {
	ScoreDate         time.Time `json:"score_date"`
	RiskScore         float64   `json:"risk_score"`
	PremiumAdjustment float64   `json:"premium_adjustment"`
}

// Summary aggregates the policyholder's period totals.
type Summary struct {
	TotalTrips        int     `json:"total_trips"`
	TotalDistanceKm   float64 `json:"total_distance_km"`
	CurrentRiskScore  float64 `json:"current_risk_score"`
	PremiumAdjustment float64 `json:"premium_adjustment"`
}

// Achievement is an earned reward badge.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// Challenge is an in-progress reward goal.
type Challenge struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Progress string  `json:"progress"` // e.g. "5/7 days"
	Percent  float64 `json:"percent"`
	Note     string  `json:"note"`
}

// DashboardData is the static source dataset for one policyholder. Risk
// history is ordered newest first.
type DashboardData struct {
	Policyholder Policyholder      `json:"policyholder"`
	RecentTrips  []Trip            `json:"recent_trips"`
	RiskHistory  []RiskScoreRecord `json:"risk_history"`
	Summary      Summary           `json:"summary"`
	Achievements []Achievement     `json:"achievements"`
	Challenges   []Challenge       `json:"challenges"`
}

// Clone returns a deep copy so projections can never touch the source.
func (d DashboardData) Clone() DashboardData {
	out := d
	out.RecentTrips = append([]Trip(nil), d.RecentTrips...)
	out.RiskHistory = append([]RiskScoreRecord(nil), d.RiskHistory...)
	out.Achievements = append([]Achievement(nil), d.Achievements...)
	out.Challenges = append([]Challenge(nil), d.Challenges...)
	return out
}

// Tip is a static driving recommendation.
type Tip struct {
	Kind  Tone   `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text"`
}
