// Package services - Transit time estimation
package services

import (
	"fmt"
	"math"

	"github.com/sowhan/seavoyage/internal/models"
)

const (
	// MinOperationalBufferHours is the floor on the per-segment buffer
	MinOperationalBufferHours = 2.0
	// OperationalBufferFraction sizes the buffer on long segments
	OperationalBufferFraction = 0.05
)

// canalTransitHours maps canal and DWT class to typical transit duration
var canalTransitHours = map[string][3]float64{
	// small (<50k DWT), medium (50k-150k), large (>150k)
	"suez":   {12.0, 14.0, 16.0},
	"panama": {8.0, 10.0, 12.0},
}

// TransitService estimates realistic segment transit times
type TransitService struct{}

// NewTransitService creates a new transit service instance
func NewTransitService() *TransitService {
	return &TransitService{}
}

// Compile-time interface compliance check
var _ TransitServicer = (*TransitService)(nil)

// EstimateTransitTime computes segment transit time in hours. Operational
// factors scale the base distance/speed time; an operational buffer of
// max(5%, 2 hours) is always added. The result is rounded to 0.1 hours.
func (s *TransitService) EstimateTransitTime(distanceNM, speedKnots float64, factors VoyageFactors) (float64, error) {
	if distanceNM <= 0 || speedKnots <= 0 {
		return 0, fmt.Errorf("distance and speed must be positive, got %.2fnm at %.2fkn", distanceNM, speedKnots)
	}

	weather := factors.WeatherFactor
	if weather == 0 {
		weather = 1.0
	}
	traffic := factors.TrafficFactor
	if traffic == 0 {
		traffic = 1.0
	}
	seasonal := factors.SeasonalFactor
	if seasonal == 0 {
		seasonal = 1.0
	}

	baseHours := distanceNM / speedKnots
	adjusted := baseHours * weather * traffic * seasonal

	buffer := math.Max(adjusted*OperationalBufferFraction, MinOperationalBufferHours)
	total := adjusted + buffer

	return math.Round(total*10) / 10, nil
}

// CanalTransitHours returns the scheduled transit time for a canal passage
// by vessel deadweight class
func CanalTransitHours(canal string, vessel *models.VesselConstraints) float64 {
	times, ok := canalTransitHours[canal]
	if !ok {
		return 0
	}

	dwt := vessel.EffectiveDWT()
	switch {
	case dwt < 50000:
		return times[0]
	case dwt <= 150000:
		return times[1]
	default:
		return times[2]
	}
}
