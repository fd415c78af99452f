// Package services - Port fee calculation
package services

import (
	"fmt"
	"math"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/logger"
)

// Tier multipliers; tier 1 covers major international hubs
var portTierMultipliers = map[int]float64{
	1: 1.5,
	2: 1.0,
	3: 0.7,
	4: 0.5,
}

// majorHubPorts are always classified tier 1
var majorHubPorts = map[string]bool{
	"SGSIN": true,
	"NLRTM": true,
	"CNSHA": true,
	"AEJEA": true,
	"USLAX": true,
	"DEHAM": true,
}

// FeeService calculates the full port fee schedule for a vessel call
type FeeService struct {
	logger *logger.Logger
}

// NewFeeService creates a new fee service instance
func NewFeeService(log *logger.Logger) *FeeService {
	return &FeeService{logger: log}
}

// Compile-time interface compliance check
var _ FeeServicer = (*FeeService)(nil)

// CalculatePortFees computes pilotage, dues, berth, agency and additional
// fees, each scaled by the port tier multiplier, rounded to the cent.
// Cargo handling is priced separately via CalculateCargoHandlingFees and
// is not part of the routing fee total.
func (s *FeeService) CalculatePortFees(port *models.Port, vessel *models.VesselConstraints, portTimeHours float64) (models.USD, error) {
	if portTimeHours <= 0 {
		return 0, fmt.Errorf("port time must be positive, got %.2f", portTimeHours)
	}

	tier := s.PortTier(port)
	multiplier := portTierMultipliers[tier]

	pilotage := s.pilotageFees(vessel, multiplier)
	dues := s.portDues(vessel, multiplier)
	berth := s.berthFees(vessel, portTimeHours, multiplier)
	agency := s.agencyFees(vessel, multiplier)
	additional := 1500.0 * multiplier

	total := pilotage + dues + berth + agency + additional

	s.logger.Debug("Port fees calculated",
		"port", port.UNLocode,
		"tier", tier,
		"pilotage", pilotage,
		"dues", dues,
		"berth", berth,
		"agency", agency,
		"total", total)

	return models.USD(total).Round(), nil
}

// CalculateCargoHandlingFees prices cargo throughput at the given port tier
func (s *FeeService) CalculateCargoHandlingFees(port *models.Port, cargoVolumeTons float64) models.USD {
	if cargoVolumeTons <= 0 {
		return 0
	}
	multiplier := portTierMultipliers[s.PortTier(port)]
	return models.USD(25.0 * cargoVolumeTons * multiplier).Round()
}

// PortTier classifies a port 1-4: the fixed hub list is tier 1, otherwise
// facility and berth counts decide
func (s *FeeService) PortTier(port *models.Port) int {
	if majorHubPorts[port.UNLocode] {
		return 1
	}

	facilities := len(port.Facilities)
	berths := port.BerthsCount

	switch {
	case facilities >= 10 && berths >= 20:
		return 1
	case facilities >= 5 && berths >= 10:
		return 2
	case facilities >= 3 && berths >= 5:
		return 3
	default:
		return 4
	}
}

// pilotageFees scale with the square root of gross tonnage
func (s *FeeService) pilotageFees(vessel *models.VesselConstraints, multiplier float64) float64 {
	const baseRate = 2000.0
	sizeFactor := math.Sqrt(vessel.EffectiveGRT() / 10000)
	return baseRate * multiplier * sizeFactor
}

// portDues are charged per gross register ton
func (s *FeeService) portDues(vessel *models.VesselConstraints, multiplier float64) float64 {
	const ratePerGRT = 0.15
	return ratePerGRT * vessel.EffectiveGRT() * multiplier
}

// berthFees are charged per meter of vessel length per day, minimum half a day
func (s *FeeService) berthFees(vessel *models.VesselConstraints, portTimeHours, multiplier float64) float64 {
	const ratePerMeterPerDay = 50.0
	portTimeDays := math.Max(portTimeHours/24.0, 0.5)
	return ratePerMeterPerDay * vessel.LengthMeters * portTimeDays * multiplier
}

// agencyFees step up with vessel deadweight
func (s *FeeService) agencyFees(vessel *models.VesselConstraints, multiplier float64) float64 {
	const baseFee = 2500.0

	sizeFactor := 1.0
	if vessel.DeadweightTonnage != nil {
		switch dwt := *vessel.DeadweightTonnage; {
		case dwt > 100000:
			sizeFactor = 1.5
		case dwt > 50000:
			sizeFactor = 1.2
		}
	}

	return baseFee * sizeFactor * multiplier
}
