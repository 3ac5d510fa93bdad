// Package dashboard projects the static telematics dataset into the
// chart-ready and card-ready shapes rendered by the dashboard tabs.
package dashboard

import (
	"math"
	"strconv"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/scoring"
)

// Display layouts.
const (
	DateLayout = "1/2/2006"
	TimeLayout = "03:04 PM"
)

// Chart colors for the pattern splits.
const (
	colorDay     = "#3b82f6"
	colorNight   = "#1e40af"
	colorOffPeak = "#10b981"
	colorPeak    = "#059669"
)

// TrendPoint is one point of the risk trend line and premium bar charts.
type TrendPoint struct {
	Date       string  `json:"date"`
	Score      float64 `json:"score"`
	Adjustment float64 `json:"adjustment"`
}

// Slice is one segment of a pie chart.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// RiskCard is the risk score metric card.
type RiskCard struct {
	Score    float64           `json:"score"`
	Level    scoring.RiskLevel `json:"level"`
	Progress float64           `json:"progress"`
}

// Cards holds the four headline metric cards.
type Cards struct {
	Risk                RiskCard `json:"risk"`
	PremiumSavings      float64  `json:"premium_savings"`
	DistanceKm          float64  `json:"distance_km"`
	HarshEventsPer100km float64  `json:"harsh_events_per_100km"`
}

// TripRow is a trip formatted for the Trips tab.
type TripRow struct {
	ID                     string  `json:"id"`
	Route                  string  `json:"route"`
	Date                   string  `json:"date"`
	Time                   string  `json:"time"`
	DistanceKm             float64 `json:"distance_km"`
	Minutes                int     `json:"minutes"`
	HarshBrakingCount      int     `json:"harsh_braking_count"`
	RapidAccelerationCount int     `json:"rapid_acceleration_count"`
	Smooth                 bool    `json:"smooth"`
}

// Stats is the Analytics tab driving statistics block.
type Stats struct {
	AvgDailyTrips          float64 `json:"avg_daily_trips"`
	AvgTripDistanceKm      float64 `json:"avg_trip_distance_km"`
	NightDrivingPercent    float64 `json:"night_driving_percent"`
	PeakHourDrivingPercent float64 `json:"peak_hour_driving_percent"`
}

// Header is the greeting block above the cards.
type Header struct {
	FirstName  string `json:"first_name"`
	Vehicle    string `json:"vehicle"`
	TripsMonth int    `json:"trips_this_month"`
}

// View is the complete projection for one policyholder.
type View struct {
	PolicyholderID string              `json:"policyholder_id"`
	Header         Header              `json:"header"`
	Cards          Cards               `json:"cards"`
	RiskTrend      []TrendPoint        `json:"risk_trend"`
	DrivingPattern []Slice             `json:"driving_pattern"`
	TrafficPattern []Slice             `json:"traffic_pattern"`
	Trips          []TripRow           `json:"trips"`
	Stats          Stats               `json:"stats"`
	Achievements   []model.Achievement `json:"achievements"`
	Challenges     []model.Challenge   `json:"challenges"`
}

// Project builds the full view. The source is never modified.
func Project(d model.DashboardData) View {
	ph := d.Policyholder
	return View{
		PolicyholderID: ph.ID,
		Header: Header{
			FirstName:  ph.FirstName,
			Vehicle:    vehicle(ph),
			TripsMonth: d.Summary.TotalTrips,
		},
		Cards:          cards(d),
		RiskTrend:      RiskTrend(d.RiskHistory),
		DrivingPattern: DrivingPattern(ph),
		TrafficPattern: TrafficPattern(ph),
		Trips:          Trips(d.RecentTrips),
		Stats:          DrivingStats(ph, d.Summary),
		Achievements:   append([]model.Achievement{}, d.Achievements...),
		Challenges:     append([]model.Challenge{}, d.Challenges...),
	}
}

// RiskTrend converts newest-first history into an oldest-first series.
func RiskTrend(history []model.RiskScoreRecord) []TrendPoint {
	out := make([]TrendPoint, len(history))
	for i, rec := range history {
		out[len(history)-1-i] = TrendPoint{
			Date:       rec.ScoreDate.UTC().Format(DateLayout),
			Score:      scoring.Percent(rec.RiskScore),
			Adjustment: rec.PremiumAdjustment,
		}
	}
	return out
}

// DrivingPattern splits driving time into day and night.
func DrivingPattern(ph model.Policyholder) []Slice {
	return []Slice{
		{Name: "Day Driving", Value: scoring.Round1(100 - ph.NightDrivingPercentage), Color: colorDay},
		{Name: "Night Driving", Value: ph.NightDrivingPercentage, Color: colorNight},
	}
}

// TrafficPattern splits driving time into off-peak and peak hours.
func TrafficPattern(ph model.Policyholder) []Slice {
	return []Slice{
		{Name: "Off-Peak", Value: scoring.Round1(100 - ph.PeakHourDrivingPercentage), Color: colorOffPeak},
		{Name: "Peak Hours", Value: ph.PeakHourDrivingPercentage, Color: colorPeak},
	}
}

// Trips formats recent trips for display.
func Trips(trips []model.Trip) []TripRow {
	out := make([]TripRow, len(trips))
	for i, t := range trips {
		start := t.StartTimestamp.UTC()
		out[i] = TripRow{
			ID:                     t.ID,
			Route:                  t.StartLocationName + " → " + t.EndLocationName,
			Date:                   start.Format(DateLayout),
			Time:                   start.Format(TimeLayout),
			DistanceKm:             t.DistanceKm,
			Minutes:                int(math.Round(float64(t.DurationSeconds) / 60)),
			HarshBrakingCount:      t.HarshBrakingCount,
			RapidAccelerationCount: t.RapidAccelerationCount,
			Smooth:                 t.HarshBrakingCount == 0 && t.RapidAccelerationCount == 0,
		}
	}
	return out
}

// DrivingStats computes the Analytics tab statistics.
func DrivingStats(ph model.Policyholder, s model.Summary) Stats {
	var avgTrip float64
	if s.TotalTrips > 0 {
		avgTrip = scoring.Round1(s.TotalDistanceKm / float64(s.TotalTrips))
	}
	return Stats{
		AvgDailyTrips:          scoring.Round1(ph.AvgDailyTrips),
		AvgTripDistanceKm:      avgTrip,
		NightDrivingPercent:    scoring.Round1(ph.NightDrivingPercentage),
		PeakHourDrivingPercent: scoring.Round1(ph.PeakHourDrivingPercentage),
	}
}

func cards(d model.DashboardData) Cards {
	risk := d.Policyholder.RiskScoreCurrent
	return Cards{
		Risk: RiskCard{
			Score:    math.Round(risk * 100),
			Level:    scoring.LevelOf(risk),
			Progress: scoring.Round1(100 - risk*100),
		},
		PremiumSavings:      math.Abs(d.Summary.PremiumAdjustment),
		DistanceKm:          d.Summary.TotalDistanceKm,
		HarshEventsPer100km: scoring.Round1(d.Policyholder.AvgHarshEventsPer100km),
	}
}

func vehicle(ph model.Policyholder) string {
	if ph.VehicleYear == 0 {
		return ph.VehicleMake + " " + ph.VehicleModel
	}
	return strconv.Itoa(ph.VehicleYear) + " " + ph.VehicleMake + " " + ph.VehicleModel
}
