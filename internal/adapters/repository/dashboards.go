package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/telematics/internal/domain/model"
)

// DemoPolicyholderID is the policyholder served by the static dataset.
const DemoPolicyholderID = "PH-demo123"

// StaticDashboards serves a fixed in-memory dataset.
type StaticDashboards struct {
	byID map[string]model.DashboardData
}

// NewStaticDashboards returns a source holding the demo policyholder plus any
// extra datasets.
func NewStaticDashboards(extra ...model.DashboardData) *StaticDashboards {
	s := &StaticDashboards{byID: map[string]model.DashboardData{DemoPolicyholderID: DemoDashboard()}}
	for _, d := range extra {
		s.byID[d.Policyholder.ID] = d.Clone()
	}
	return s
}

// Dashboard implements DashboardSource.
func (s *StaticDashboards) Dashboard(_ context.Context, policyholderID string) (model.DashboardData, error) {
	d, ok := s.byID[policyholderID]
	if !ok {
		return model.DashboardData{}, fmt.Errorf("policyholder %s: %w", policyholderID, ErrNotFound)
	}
	return d.Clone(), nil
}

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

// DemoDashboard returns the demo dataset. Risk history is newest first.
func DemoDashboard() model.DashboardData {
	return model.DashboardData{
		Policyholder: model.Policyholder{
			ID:                        DemoPolicyholderID,
			FirstName:                 "Jane",
			LastName:                  "Doe",
			VehicleMake:               "Toyota",
			VehicleModel:              "Camry",
			VehicleYear:               2020,
			RiskScoreCurrent:          0.25,
			TotalMileageYTD:           8500,
			AvgDailyTrips:             2.3,
			AvgHarshEventsPer100km:    2.1,
			NightDrivingPercentage:    12.5,
			PeakHourDrivingPercentage: 28.0,
		},
		RecentTrips: []model.Trip{
			{
				ID:                "trip_001",
				StartLocationName: "Home",
				EndLocationName:   "Work",
				DistanceKm:        15.2,
				DurationSeconds:   1800,
				AvgSpeedKph:       45,
				HarshBrakingCount: 1,
				StartTimestamp:    time.Date(2025, 9, 11, 8, 30, 0, 0, time.UTC),
			},
			{
				ID:                     "trip_002",
				StartLocationName:      "Work",
				EndLocationName:        "Grocery Store",
				DistanceKm:             8.5,
				DurationSeconds:        900,
				AvgSpeedKph:            35,
				RapidAccelerationCount: 1,
				StartTimestamp:         time.Date(2025, 9, 11, 17, 45, 0, 0, time.UTC),
			},
		},
		RiskHistory: []model.RiskScoreRecord{
			{ScoreDate: month(2025, time.September), RiskScore: 0.30, PremiumAdjustment: -15},
			{ScoreDate: month(2025, time.August), RiskScore: 0.28, PremiumAdjustment: -16},
			{ScoreDate: month(2025, time.July), RiskScore: 0.32, PremiumAdjustment: -14},
			{ScoreDate: month(2025, time.June), RiskScore: 0.35, PremiumAdjustment: -12},
			{ScoreDate: month(2025, time.May), RiskScore: 0.40, PremiumAdjustment: -8},
			{ScoreDate: month(2025, time.April), RiskScore: 0.38, PremiumAdjustment: -10},
		},
		Summary: model.Summary{
			TotalTrips:        45,
			TotalDistanceKm:   8500,
			CurrentRiskScore:  0.25,
			PremiumAdjustment: -18,
		},
		Achievements: []model.Achievement{
			{ID: "safe_driver", Name: "Safe Driver", Description: "Low risk score for 3 months", Icon: "award", Color: "yellow"},
			{ID: "smooth_operator", Name: "Smooth Operator", Description: "Minimal harsh events", Icon: "target", Color: "green"},
		},
		Challenges: []model.Challenge{
			{ID: "no_harsh_week", Name: "Week Without Harsh Events", Progress: "5/7 days", Percent: 71, Note: "2 more days to complete"},
			{ID: "less_night", Name: "Reduce Night Driving", Progress: "12.5%", Percent: 25, Note: "Target: Under 10%"},
		},
	}
}
