// Package models provides data structures for maritime route planning
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sowhan/seavoyage/pkg/geo"
)

// VesselType classifies vessels following IMO conventions
type VesselType string

// Supported vessel types
const (
	VesselContainer    VesselType = "container"
	VesselBulkCarrier  VesselType = "bulk_carrier"
	VesselTanker       VesselType = "tanker"
	VesselGasCarrier   VesselType = "gas_carrier"
	VesselGeneralCargo VesselType = "general_cargo"
	VesselRoRo         VesselType = "roro"
	VesselPassenger    VesselType = "passenger"
	VesselOffshore     VesselType = "offshore"
	VesselFishing      VesselType = "fishing"
)

// PortType classifies ports by primary function
type PortType string

// Supported port types
const (
	PortContainerTerminal PortType = "container_terminal"
	PortBulkTerminal      PortType = "bulk_terminal"
	PortTankerTerminal    PortType = "tanker_terminal"
	PortGeneralCargo      PortType = "general_cargo"
	PortMultipurpose      PortType = "multipurpose"
	PortPassenger         PortType = "passenger"
	PortFishing           PortType = "fishing"
)

// OperationalStatus describes whether a port can take traffic
type OperationalStatus string

// Port operational statuses
const (
	StatusActive      OperationalStatus = "active"
	StatusRestricted  OperationalStatus = "restricted"
	StatusMaintenance OperationalStatus = "maintenance"
	StatusInactive    OperationalStatus = "inactive"
)

// OptimizationCriteria selects the objective routes are ranked against
type OptimizationCriteria string

// Supported optimization criteria
const (
	CriteriaFastest        OptimizationCriteria = "fastest"
	CriteriaMostEconomical OptimizationCriteria = "most_economical"
	CriteriaMostReliable   OptimizationCriteria = "most_reliable"
	CriteriaBalanced       OptimizationCriteria = "balanced"
	CriteriaEnvironmental  OptimizationCriteria = "environmental"
)

// Valid reports whether the criteria value is one of the supported set
func (c OptimizationCriteria) Valid() bool {
	switch c {
	case CriteriaFastest, CriteriaMostEconomical, CriteriaMostReliable,
		CriteriaBalanced, CriteriaEnvironmental:
		return true
	}
	return false
}

// Port holds the complete record for a seaport
type Port struct {
	ID                string            `json:"id,omitempty"`
	UNLocode          string            `json:"unlocode"`
	Name              string            `json:"name"`
	Country           string            `json:"country"`
	Coordinates       geo.Coordinates   `json:"coordinates"`
	PortType          PortType          `json:"port_type"`
	OperationalStatus OperationalStatus `json:"operational_status"`

	// Vessel maxima; nil means unconstrained
	MaxVesselLengthMeters *float64 `json:"max_vessel_length_meters,omitempty"`
	MaxVesselBeamMeters   *float64 `json:"max_vessel_beam_meters,omitempty"`
	MaxDraftMeters        *float64 `json:"max_draft_meters,omitempty"`

	// Facilities map is opaque to the planner; only its size feeds tiering
	Facilities        map[string]interface{} `json:"facilities,omitempty"`
	ServicesAvailable []string               `json:"services_available,omitempty"`
	BerthsCount       int                    `json:"berths_count"`

	AveragePortTimeHours float64 `json:"average_port_time_hours,omitempty"`
	CongestionFactor     float64 `json:"congestion_factor,omitempty"`
}

// IsCompatibleWithVessel checks whether the port can accommodate the
// given vessel dimensions; unset maxima never constrain
func (p *Port) IsCompatibleWithVessel(length, beam, draft float64) bool {
	if p.MaxVesselLengthMeters != nil && length > *p.MaxVesselLengthMeters {
		return false
	}
	if p.MaxVesselBeamMeters != nil && beam > *p.MaxVesselBeamMeters {
		return false
	}
	if p.MaxDraftMeters != nil && draft > *p.MaxDraftMeters {
		return false
	}
	return true
}

// IsActive reports whether the port may be used for routing
func (p *Port) IsActive() bool {
	return p.OperationalStatus == StatusActive
}

// VesselConstraints captures vessel specifications for route planning
type VesselConstraints struct {
	VesselType VesselType `json:"vessel_type" validate:"required"`
	Name       string     `json:"name,omitempty"`
	IMONumber  string     `json:"imo_number,omitempty"`

	LengthMeters float64 `json:"length_meters" validate:"gt=0,lte=500"`
	BeamMeters   float64 `json:"beam_meters" validate:"gt=0,lte=80"`
	DraftMeters  float64 `json:"draft_meters" validate:"gt=0,lte=30"`

	DeadweightTonnage *int    `json:"deadweight_tonnage,omitempty" validate:"omitempty,gt=0"`
	GrossTonnage      *int    `json:"gross_tonnage,omitempty" validate:"omitempty,gt=0"`
	CruiseSpeedKnots  float64 `json:"cruise_speed_knots" validate:"gt=0,lte=40"`
	MaxSpeedKnots     float64 `json:"max_speed_knots,omitempty" validate:"omitempty,gt=0,lte=50"`

	MaxRangeNauticalMiles float64 `json:"max_range_nautical_miles" validate:"gt=0"`
	FuelType              string  `json:"fuel_type,omitempty"`
	FuelCapacityTons      float64 `json:"fuel_capacity_tons,omitempty" validate:"omitempty,gt=0"`

	SuezCanalCompatible   bool `json:"suez_canal_compatible"`
	PanamaCanalCompatible bool `json:"panama_canal_compatible"`
}

// EffectiveDWT returns the deadweight tonnage, defaulting to a medium
// 50,000t vessel when not provided
func (v *VesselConstraints) EffectiveDWT() float64 {
	if v.DeadweightTonnage != nil {
		return float64(*v.DeadweightTonnage)
	}
	return 50000
}

// EffectiveGRT returns the gross tonnage, estimated as 0.6 x DWT when absent
func (v *VesselConstraints) EffectiveGRT() float64 {
	if v.GrossTonnage != nil {
		return float64(*v.GrossTonnage)
	}
	return v.EffectiveDWT() * 0.6
}

// RouteRequest holds all parameters for a route calculation
type RouteRequest struct {
	OriginPortCode      string `json:"origin_port_code" validate:"required,len=5"`
	DestinationPortCode string `json:"destination_port_code" validate:"required,len=5"`

	VesselConstraints VesselConstraints `json:"vessel_constraints" validate:"required"`

	OptimizationCriteria OptimizationCriteria `json:"optimization_criteria"`

	DepartureTime            time.Time `json:"departure_time"`
	IncludeAlternativeRoutes bool      `json:"include_alternative_routes"`
	MaxAlternativeRoutes     int       `json:"max_alternative_routes" validate:"gte=0,lte=10"`
	MaxConnectingPorts       int       `json:"max_connecting_ports" validate:"gte=0,lte=5"`

	CalculationTimeoutSeconds int `json:"calculation_timeout_seconds" validate:"gte=0,lte=120"`
}

var requestValidator = validator.New()

// ApplyDefaults normalizes port codes and fills unset optional fields
func (r *RouteRequest) ApplyDefaults() {
	r.OriginPortCode = strings.ToUpper(strings.TrimSpace(r.OriginPortCode))
	r.DestinationPortCode = strings.ToUpper(strings.TrimSpace(r.DestinationPortCode))

	if r.OptimizationCriteria == "" {
		r.OptimizationCriteria = CriteriaBalanced
	}
	if r.DepartureTime.IsZero() {
		r.DepartureTime = time.Now().UTC()
	}
	if r.CalculationTimeoutSeconds == 0 {
		r.CalculationTimeoutSeconds = 30
	}
	if r.VesselConstraints.MaxRangeNauticalMiles == 0 {
		r.VesselConstraints.MaxRangeNauticalMiles = 10000
	}
}

// Validate checks structural and cross-field constraints
func (r *RouteRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return &ValidationError{Field: firstFailedField(err), Message: err.Error()}
	}

	if !isUpperAlpha(r.OriginPortCode) {
		return &ValidationError{Field: "origin_port_code", Message: "UN/LOCODE must be 5 uppercase letters"}
	}
	if !isUpperAlpha(r.DestinationPortCode) {
		return &ValidationError{Field: "destination_port_code", Message: "UN/LOCODE must be 5 uppercase letters"}
	}
	if r.OriginPortCode == r.DestinationPortCode {
		return &ValidationError{Field: "destination_port_code", Message: "origin and destination ports must be different"}
	}
	if !r.OptimizationCriteria.Valid() {
		return &ValidationError{Field: "optimization_criteria", Message: fmt.Sprintf("unknown criteria %q", r.OptimizationCriteria)}
	}
	// A minute of clock skew is tolerated on the departure check
	if r.DepartureTime.Before(time.Now().Add(-time.Minute)) {
		return &ValidationError{Field: "departure_time", Message: "departure time must not be in the past"}
	}
	if r.CalculationTimeoutSeconds < 5 || r.CalculationTimeoutSeconds > 120 {
		return &ValidationError{Field: "calculation_timeout_seconds", Message: "timeout must be between 5 and 120 seconds"}
	}
	return nil
}

func isUpperAlpha(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func firstFailedField(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field())
	}
	return ""
}

// ValidationError represents a request validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// RouteSegment is a single leg of a maritime route
type RouteSegment struct {
	SegmentOrder    int  `json:"segment_order"`
	OriginPort      Port `json:"origin_port"`
	DestinationPort Port `json:"destination_port"`

	DistanceNauticalMiles     NauticalMiles `json:"distance_nautical_miles"`
	EstimatedTransitTimeHours Hours         `json:"estimated_transit_time_hours"`
	PortApproachTimeHours     Hours         `json:"port_approach_time_hours"`

	FuelConsumptionTons float64 `json:"fuel_consumption_tons"`
	FuelCostUSD         USD     `json:"fuel_cost_usd"`
	PortFeesUSD         USD     `json:"port_fees_usd"`
	CanalFeesUSD        USD     `json:"canal_fees_usd"`

	InitialBearingDegrees Degrees           `json:"initial_bearing_degrees"`
	Waypoints             []geo.Coordinates `json:"waypoints,omitempty"`

	WeatherRiskScore   float64 `json:"weather_risk_score"`
	PiracyRiskScore    float64 `json:"piracy_risk_score"`
	PoliticalRiskScore float64 `json:"political_risk_score"`
}

// RiskScore is the mean of the three per-segment risk components
func (s *RouteSegment) RiskScore() float64 {
	return (s.WeatherRiskScore + s.PiracyRiskScore + s.PoliticalRiskScore) / 3
}

// TotalCostUSD is the segment's combined fuel, port and canal cost
func (s *RouteSegment) TotalCostUSD() USD {
	return s.FuelCostUSD + s.PortFeesUSD + s.CanalFeesUSD
}

// DetailedRoute is a fully-costed route with segments and scores
type DetailedRoute struct {
	RouteID   string `json:"route_id"`
	RouteName string `json:"route_name"`

	OriginPort        Port           `json:"origin_port"`
	DestinationPort   Port           `json:"destination_port"`
	IntermediatePorts []Port         `json:"intermediate_ports"`
	RouteSegments     []RouteSegment `json:"route_segments"`

	TotalDistanceNauticalMiles NauticalMiles `json:"total_distance_nautical_miles"`
	TotalEstimatedTimeHours    Hours         `json:"total_estimated_time_hours"`
	TotalFuelConsumptionTons   float64       `json:"total_fuel_consumption_tons"`
	TotalCostUSD               USD           `json:"total_cost_usd"`

	TotalFuelCostUSD USD `json:"total_fuel_cost_usd"`
	TotalPortFeesUSD USD `json:"total_port_fees_usd"`
	TotalCanalFeesUSD USD `json:"total_canal_fees_usd"`

	EfficiencyScore           float64 `json:"efficiency_score"`
	ReliabilityScore          float64 `json:"reliability_score"`
	EnvironmentalImpactScore  float64 `json:"environmental_impact_score"`
	OverallOptimizationScore  float64 `json:"overall_optimization_score"`

	CalculationAlgorithm      string               `json:"calculation_algorithm"`
	OptimizationCriteriaUsed  OptimizationCriteria `json:"optimization_criteria_used"`
}

// PortSequence returns the ordered UN/LOCODEs the route visits
func (r *DetailedRoute) PortSequence() []string {
	codes := make([]string, 0, len(r.IntermediatePorts)+2)
	codes = append(codes, r.OriginPort.UNLocode)
	for _, p := range r.IntermediatePorts {
		codes = append(codes, p.UNLocode)
	}
	codes = append(codes, r.DestinationPort.UNLocode)
	return codes
}

// RouteResponse is the complete result of a route calculation
type RouteResponse struct {
	RequestID                  string    `json:"request_id"`
	CalculationTimestamp       time.Time `json:"calculation_timestamp"`
	CalculationDurationSeconds float64   `json:"calculation_duration_seconds"`

	PrimaryRoute      DetailedRoute   `json:"primary_route"`
	AlternativeRoutes []DetailedRoute `json:"alternative_routes"`

	AlgorithmUsed        string               `json:"algorithm_used"`
	OptimizationCriteria OptimizationCriteria `json:"optimization_criteria"`
	TotalRoutesEvaluated int                  `json:"total_routes_evaluated"`
	CacheHit             bool                 `json:"cache_hit"`
}

// PortSearchResult pairs a port with its search relevance
type PortSearchResult struct {
	Port           Port     `json:"port"`
	RelevanceScore float64  `json:"relevance_score"`
	DistanceNM     *float64 `json:"distance_nm,omitempty"`
}

// PortStatistics summarizes the port store contents
type PortStatistics struct {
	TotalPorts  int `json:"total_ports"`
	ActivePorts int `json:"active_ports"`
	Countries   int `json:"countries"`
	PortTypes   int `json:"port_types"`
}

// PlannerStatistics exposes planner performance counters
type PlannerStatistics struct {
	TotalCalculations        int64   `json:"total_calculations"`
	AverageCalculationTimeMS float64 `json:"average_calculation_time_ms"`
	CacheHits                int64   `json:"cache_hits"`
	CacheMisses              int64   `json:"cache_misses"`
}

// HealthStatus reports component connectivity
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	Timestamp         time.Time `json:"timestamp"`
	DatabaseConnected bool      `json:"database_connected"`
	CacheConnected    bool      `json:"cache_connected"`
	UptimeSeconds     float64   `json:"uptime_seconds"`
}
