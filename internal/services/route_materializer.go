// Package services - Route materialization and scoring
package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
	"github.com/sowhan/seavoyage/pkg/logger"
)

// Default per-segment risk components on the 0-100 scale
const (
	DefaultWeatherRisk   = 0.10
	DefaultPiracyRisk    = 0.05
	DefaultPoliticalRisk = 0.05
)

// DefaultPortApproachHours covers pilot boarding, approach and berthing
const DefaultPortApproachHours = 2.0

// Canal identifiers used by the longitude inference heuristic
const (
	CanalSuez   = "suez"
	CanalPanama = "panama"
)

// RouteMaterializer turns a port sequence into a fully-costed DetailedRoute
type RouteMaterializer struct {
	fuelService    FuelServicer
	feeService     FeeServicer
	transitService TransitServicer
	config         Config
	logger         *logger.Logger
}

// NewRouteMaterializer creates a route materializer
func NewRouteMaterializer(fuel FuelServicer, fees FeeServicer, transit TransitServicer, cfg Config, log *logger.Logger) *RouteMaterializer {
	return &RouteMaterializer{
		fuelService:    fuel,
		feeService:     fees,
		transitService: transit,
		config:         cfg.normalized(),
		logger:         log,
	}
}

// Materialize builds a DetailedRoute for the given port sequence.
// Any segment failure aborts the whole candidate.
func (m *RouteMaterializer) Materialize(sequence []models.Port, req *models.RouteRequest, routeIndex int) (*models.DetailedRoute, error) {
	if len(sequence) < 2 {
		return nil, fmt.Errorf("route needs at least two ports, got %d", len(sequence))
	}

	segments := make([]models.RouteSegment, 0, len(sequence)-1)

	var (
		totalDistance float64
		totalTime     float64
		totalFuel     float64
		totalFuelCost models.USD
		totalPortFees models.USD
		totalCanal    models.USD
	)

	for i := 0; i < len(sequence)-1; i++ {
		segment, err := m.buildSegment(&sequence[i], &sequence[i+1], &req.VesselConstraints, i+1)
		if err != nil {
			return nil, fmt.Errorf("segment %s -> %s: %w", sequence[i].UNLocode, sequence[i+1].UNLocode, err)
		}

		segments = append(segments, *segment)
		totalDistance += float64(segment.DistanceNauticalMiles)
		totalTime += float64(segment.EstimatedTransitTimeHours) + float64(segment.PortApproachTimeHours)
		totalFuel += segment.FuelConsumptionTons
		totalFuelCost += segment.FuelCostUSD
		totalPortFees += segment.PortFeesUSD
		totalCanal += segment.CanalFeesUSD
	}

	reliability := routeReliability(segments)
	efficiency := routeEfficiency(&sequence[0], &sequence[len(sequence)-1], totalDistance)
	environmental := environmentalImpact(totalFuel, totalDistance)

	route := &models.DetailedRoute{
		RouteID:           uuid.NewString(),
		RouteName:         routeName(sequence, routeIndex),
		OriginPort:        sequence[0],
		DestinationPort:   sequence[len(sequence)-1],
		IntermediatePorts: intermediates(sequence),
		RouteSegments:     segments,

		TotalDistanceNauticalMiles: models.NauticalMiles(totalDistance),
		TotalEstimatedTimeHours:    models.Hours(totalTime),
		TotalFuelConsumptionTons:   totalFuel,
		TotalCostUSD:               (totalFuelCost + totalPortFees + totalCanal).Round(),

		TotalFuelCostUSD:  totalFuelCost.Round(),
		TotalPortFeesUSD:  totalPortFees.Round(),
		TotalCanalFeesUSD: totalCanal.Round(),

		EfficiencyScore:          efficiency,
		ReliabilityScore:         reliability,
		EnvironmentalImpactScore: environmental,
		OverallOptimizationScore: overallScore(reliability, efficiency, environmental, req.OptimizationCriteria),

		CalculationAlgorithm:     AlgorithmForCriteria(req.OptimizationCriteria),
		OptimizationCriteriaUsed: req.OptimizationCriteria,
	}

	return route, nil
}

// buildSegment computes all metrics for a single leg
func (m *RouteMaterializer) buildSegment(origin, destination *models.Port, vessel *models.VesselConstraints, order int) (*models.RouteSegment, error) {
	distance := geo.Distance(origin.Coordinates, destination.Coordinates)
	if distance <= 0 {
		return nil, fmt.Errorf("zero-length segment")
	}

	factors := DefaultVoyageFactors()

	transitHours, err := m.transitService.EstimateTransitTime(distance, vessel.CruiseSpeedKnots, factors)
	if err != nil {
		return nil, err
	}

	// Canal passages add their scheduled transit time; the tariff itself
	// stays zero until a rate table is wired in
	if canal := InferCanal(origin, destination); canal != "" {
		transitHours += CanalTransitHours(canal, vessel)
	}

	fuelTons, err := m.fuelService.EstimateConsumption(distance, vessel, factors)
	if err != nil {
		return nil, err
	}
	fuelCost := models.USD(fuelTons * m.config.FuelPriceUSDPerTon).Round()

	dwellHours := destination.AveragePortTimeHours
	if dwellHours <= 0 {
		dwellHours = 24.0
	}
	portFees, err := m.feeService.CalculatePortFees(destination, vessel, dwellHours)
	if err != nil {
		return nil, err
	}

	return &models.RouteSegment{
		SegmentOrder:    order,
		OriginPort:      *origin,
		DestinationPort: *destination,

		DistanceNauticalMiles:     models.NauticalMiles(distance),
		EstimatedTransitTimeHours: models.Hours(transitHours),
		PortApproachTimeHours:     models.Hours(DefaultPortApproachHours),

		FuelConsumptionTons: fuelTons,
		FuelCostUSD:         fuelCost,
		PortFeesUSD:         portFees,
		CanalFeesUSD:        0,

		InitialBearingDegrees: models.Degrees(geo.InitialBearing(origin.Coordinates, destination.Coordinates)),
		Waypoints:             segmentWaypoints(origin.Coordinates, destination.Coordinates),

		WeatherRiskScore:   DefaultWeatherRisk,
		PiracyRiskScore:    DefaultPiracyRisk,
		PoliticalRiskScore: DefaultPoliticalRisk,
	}, nil
}

// segmentWaypoints interpolates quarter points for route visualization
func segmentWaypoints(origin, destination geo.Coordinates) []geo.Coordinates {
	return []geo.Coordinates{
		geo.Intermediate(origin, destination, 0.25),
		geo.Intermediate(origin, destination, 0.5),
		geo.Intermediate(origin, destination, 0.75),
	}
}

// InferCanal applies the endpoint-longitude heuristic: one endpoint west of
// 100°W and the other east of 40°W implies Panama; one west of 40°E and the
// other east of 60°E implies Suez. A US west coast to east coast pair
// (about 74°W) is therefore not marked.
func InferCanal(origin, destination *models.Port) string {
	lon1 := origin.Coordinates.Longitude
	lon2 := destination.Coordinates.Longitude

	if (lon1 < -100 && lon2 > -40) || (lon2 < -100 && lon1 > -40) {
		return CanalPanama
	}
	if (lon1 < 40 && lon2 > 60) || (lon2 < 40 && lon1 > 60) {
		return CanalSuez
	}
	return ""
}

// routeName builds the canonical display name, listing intermediate hubs
func routeName(sequence []models.Port, routeIndex int) string {
	name := fmt.Sprintf("Route %d: %s → %s", routeIndex+1,
		sequence[0].UNLocode, sequence[len(sequence)-1].UNLocode)

	if len(sequence) > 2 {
		codes := make([]string, 0, len(sequence)-2)
		for _, p := range sequence[1 : len(sequence)-1] {
			codes = append(codes, p.UNLocode)
		}
		name += " via " + strings.Join(codes, " → ")
	}
	return name
}

func intermediates(sequence []models.Port) []models.Port {
	if len(sequence) <= 2 {
		return []models.Port{}
	}
	return append([]models.Port{}, sequence[1:len(sequence)-1]...)
}

// routeReliability is 100 minus the mean segment risk, clamped to [0,100]
func routeReliability(segments []models.RouteSegment) float64 {
	if len(segments) == 0 {
		return 0
	}

	sum := 0.0
	for i := range segments {
		sum += segments[i].RiskScore()
	}
	return clamp(100-sum/float64(len(segments)), 0, 100)
}

// routeEfficiency compares the great-circle distance against the actual
// total; a perfectly direct route scores 100
func routeEfficiency(origin, destination *models.Port, totalDistance float64) float64 {
	direct := geo.Distance(origin.Coordinates, destination.Coordinates)
	if totalDistance <= 0 || direct <= 0 {
		return 100
	}
	return clamp(direct/totalDistance*100, 0, 100)
}

// environmentalImpact buckets fuel intensity in tons per 1000nm.
// Lower is better.
func environmentalImpact(totalFuel, totalDistance float64) float64 {
	if totalDistance <= 0 {
		return 10
	}

	intensity := totalFuel / totalDistance * 1000
	switch {
	case intensity < 30:
		return 10
	case intensity < 40:
		return 25
	case intensity < 50:
		return 40
	case intensity < 70:
		return 60
	default:
		return 80
	}
}

// overallScore combines component scores with criterion-specific weights.
// The environmental component enters inverted so that higher is better.
func overallScore(reliability, efficiency, environmental float64, criteria models.OptimizationCriteria) float64 {
	envScore := 100 - environmental

	var score float64
	switch criteria {
	case models.CriteriaFastest:
		score = efficiency*0.6 + reliability*0.3 + envScore*0.1
	case models.CriteriaMostEconomical:
		score = efficiency*0.4 + reliability*0.2 + envScore*0.4
	case models.CriteriaMostReliable:
		score = reliability*0.6 + efficiency*0.3 + envScore*0.1
	default: // balanced and environmental
		score = (reliability + efficiency + envScore) / 3
	}
	return clamp(score, 0, 100)
}

// AlgorithmForCriteria names the primary pathfinding algorithm used for
// a given optimization criterion
func AlgorithmForCriteria(criteria models.OptimizationCriteria) string {
	switch criteria {
	case models.CriteriaFastest:
		return "a_star"
	case models.CriteriaMostEconomical:
		return "dijkstra"
	case models.CriteriaMostReliable:
		return "maritime_custom"
	case models.CriteriaBalanced:
		return "hybrid"
	default:
		return "dijkstra"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
