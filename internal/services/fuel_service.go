// Package services - Fuel consumption estimation
package services

import (
	"fmt"
	"math"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/logger"
)

const (
	// DesignSpeedKnots is the reference speed for the base consumption rates
	DesignSpeedKnots = 20.0
	// ReferenceDWT anchors the economies-of-scale size factor
	ReferenceDWT = 50000.0
	// MinConsumptionTonsPerDay is the hotel-load floor; systems always burn fuel
	MinConsumptionTonsPerDay = 5.0
)

// VoyageFactors carries the operational multipliers applied to segment estimates
type VoyageFactors struct {
	WeatherFactor         float64 // 1.0 calm .. 1.3 rough seas
	TrafficFactor         float64 // 1.0 normal .. 1.2 heavy traffic
	SeasonalFactor        float64 // 1.0 normal .. 1.1 monsoon season
	LoadFactor            float64 // 0.0 ballast .. 1.0 fully loaded
	OperationalEfficiency float64 // 0.8 .. 1.2
}

// DefaultVoyageFactors returns calm-weather planning defaults
func DefaultVoyageFactors() VoyageFactors {
	return VoyageFactors{
		WeatherFactor:         1.0,
		TrafficFactor:         1.0,
		SeasonalFactor:        1.0,
		LoadFactor:            0.8,
		OperationalEfficiency: 1.0,
	}
}

// consumptionRates holds per-vessel-type daily burn at design speed
type consumptionRates struct {
	MainEngineTonsPerDay float64
	AuxiliaryTonsPerDay  float64
	SpeedCurveExponent   float64
}

// baseConsumptionRates are calibrated per-day rates at design speed
var baseConsumptionRates = map[models.VesselType]consumptionRates{
	models.VesselContainer:   {MainEngineTonsPerDay: 150, AuxiliaryTonsPerDay: 15, SpeedCurveExponent: 3.2},
	models.VesselBulkCarrier: {MainEngineTonsPerDay: 120, AuxiliaryTonsPerDay: 12, SpeedCurveExponent: 3.1},
	models.VesselTanker:      {MainEngineTonsPerDay: 140, AuxiliaryTonsPerDay: 14, SpeedCurveExponent: 3.0},
	models.VesselGasCarrier:  {MainEngineTonsPerDay: 160, AuxiliaryTonsPerDay: 18, SpeedCurveExponent: 3.3},
}

// FuelService estimates bunker consumption from vessel and voyage parameters
type FuelService struct {
	logger *logger.Logger
}

// NewFuelService creates a new fuel service instance
func NewFuelService(log *logger.Logger) *FuelService {
	return &FuelService{logger: log}
}

// Compile-time interface compliance check
var _ FuelServicer = (*FuelService)(nil)

// EstimateConsumption computes segment fuel burn in metric tons.
//
// The model combines a speed-power cubic law, a DWT^0.7 economies-of-scale
// factor, load impact and weather/operational multipliers, with a 5 t/day
// floor for auxiliary systems. The result is rounded to 0.1 tons.
func (s *FuelService) EstimateConsumption(distanceNM float64, vessel *models.VesselConstraints, factors VoyageFactors) (float64, error) {
	if distanceNM <= 0 {
		return 0, fmt.Errorf("distance must be positive, got %.2f", distanceNM)
	}
	if vessel.CruiseSpeedKnots <= 0 {
		return 0, fmt.Errorf("cruise speed must be positive, got %.2f", vessel.CruiseSpeedKnots)
	}
	if factors.WeatherFactor < 0.5 || factors.WeatherFactor > 2.0 {
		return 0, fmt.Errorf("weather factor must be between 0.5 and 2.0, got %.2f", factors.WeatherFactor)
	}
	if factors.LoadFactor < 0 || factors.LoadFactor > 1 {
		return 0, fmt.Errorf("load factor must be between 0.0 and 1.0, got %.2f", factors.LoadFactor)
	}

	rates, ok := baseConsumptionRates[vessel.VesselType]
	if !ok {
		// Vessel classes without calibrated curves fall back to container rates
		s.logger.Warn("Unknown vessel type, using container defaults", "vesselType", string(vessel.VesselType))
		rates = baseConsumptionRates[models.VesselContainer]
	}

	opEff := factors.OperationalEfficiency
	if opEff == 0 {
		opEff = 1.0
	}

	transitDays := distanceNM / (vessel.CruiseSpeedKnots * 24)

	sizeFactor := math.Pow(vessel.EffectiveDWT()/ReferenceDWT, 0.7)
	speedFactor := math.Pow(vessel.CruiseSpeedKnots/DesignSpeedKnots, rates.SpeedCurveExponent)
	loadImpact := 1.0 + factors.LoadFactor*0.15

	mainEngine := rates.MainEngineTonsPerDay * sizeFactor * speedFactor * loadImpact *
		factors.WeatherFactor * opEff * transitDays
	auxiliary := rates.AuxiliaryTonsPerDay * sizeFactor * transitDays

	total := mainEngine + auxiliary
	if minimum := transitDays * MinConsumptionTonsPerDay; total < minimum {
		total = minimum
	}

	return math.Round(total*10) / 10, nil
}
