package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/internal/testutil"
	"github.com/sowhan/seavoyage/pkg/logger"
)

func newFuelService() *FuelService {
	return NewFuelService(logger.NewNoop())
}

// TestEstimateConsumption_Baseline verifies a plausible burn for a
// mid-size container vessel on a long segment
func TestEstimateConsumption_Baseline(t *testing.T) {
	svc := newFuelService()
	vessel := testutil.ContainerVessel()

	fuel, err := svc.EstimateConsumption(8288, &vessel, DefaultVoyageFactors())
	require.NoError(t, err)

	// ~19 days at 18kn; well over the minimum, well under absurd
	assert.Greater(t, fuel, 1000.0)
	assert.Less(t, fuel, 5000.0)
}

// TestEstimateConsumption_MonotoneInDistance verifies longer segments burn more
func TestEstimateConsumption_MonotoneInDistance(t *testing.T) {
	svc := newFuelService()
	vessel := testutil.ContainerVessel()
	factors := DefaultVoyageFactors()

	previous := 0.0
	for _, distance := range []float64{100, 500, 1000, 5000, 10000} {
		fuel, err := svc.EstimateConsumption(distance, &vessel, factors)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, fuel, previous, "fuel must not decrease with distance")
		previous = fuel
	}
}

// TestEstimateConsumption_FasterBurnsMore verifies the speed-power law
func TestEstimateConsumption_FasterBurnsMore(t *testing.T) {
	svc := newFuelService()
	factors := DefaultVoyageFactors()

	slow := testutil.ContainerVessel()
	slow.CruiseSpeedKnots = 14

	fast := testutil.ContainerVessel()
	fast.CruiseSpeedKnots = 22

	slowFuel, err := svc.EstimateConsumption(5000, &slow, factors)
	require.NoError(t, err)
	fastFuel, err := svc.EstimateConsumption(5000, &fast, factors)
	require.NoError(t, err)

	assert.Greater(t, fastFuel, slowFuel)
}

// TestEstimateConsumption_VesselTypeRates verifies per-type coefficients apply
func TestEstimateConsumption_VesselTypeRates(t *testing.T) {
	svc := newFuelService()
	factors := DefaultVoyageFactors()

	burns := map[string]float64{}
	for _, vt := range []struct {
		name string
		kind string
	}{
		{"container", "container"},
		{"bulk", "bulk_carrier"},
		{"gas", "gas_carrier"},
	} {
		vessel := testutil.ContainerVessel()
		vessel.VesselType = models.VesselType(vt.kind)
		fuel, err := svc.EstimateConsumption(5000, &vessel, factors)
		require.NoError(t, err)
		burns[vt.name] = fuel
	}

	// At 18kn (below design speed) the gas carrier still burns the most
	// and the bulk carrier the least of the three
	assert.Greater(t, burns["gas"], burns["container"])
	assert.Less(t, burns["bulk"], burns["container"])
}

// TestEstimateConsumption_UnknownTypeFallsBack verifies container defaults
// cover uncalibrated vessel classes
func TestEstimateConsumption_UnknownTypeFallsBack(t *testing.T) {
	svc := newFuelService()
	factors := DefaultVoyageFactors()

	container := testutil.ContainerVessel()
	roro := testutil.ContainerVessel()
	roro.VesselType = "roro"

	containerFuel, err := svc.EstimateConsumption(3000, &container, factors)
	require.NoError(t, err)
	roroFuel, err := svc.EstimateConsumption(3000, &roro, factors)
	require.NoError(t, err)

	assert.Equal(t, containerFuel, roroFuel)
}

// TestEstimateConsumption_MinimumFloor verifies the 5 tons/day floor
func TestEstimateConsumption_MinimumFloor(t *testing.T) {
	svc := newFuelService()

	// Tiny, slow vessel: computed burn would undercut the hotel load
	dwt := 1000
	vessel := testutil.ContainerVessel()
	vessel.DeadweightTonnage = &dwt
	vessel.CruiseSpeedKnots = 8

	fuel, err := svc.EstimateConsumption(192, &vessel, DefaultVoyageFactors())
	require.NoError(t, err)

	// 192nm at 8kn = 1 day exactly; the floor is 5 tons
	assert.Equal(t, 5.0, fuel)
}

// TestEstimateConsumption_Rejections verifies input validation
func TestEstimateConsumption_Rejections(t *testing.T) {
	svc := newFuelService()
	vessel := testutil.ContainerVessel()

	_, err := svc.EstimateConsumption(0, &vessel, DefaultVoyageFactors())
	assert.Error(t, err)

	_, err = svc.EstimateConsumption(-100, &vessel, DefaultVoyageFactors())
	assert.Error(t, err)

	bad := DefaultVoyageFactors()
	bad.WeatherFactor = 2.5
	_, err = svc.EstimateConsumption(1000, &vessel, bad)
	assert.Error(t, err)

	bad = DefaultVoyageFactors()
	bad.LoadFactor = 1.5
	_, err = svc.EstimateConsumption(1000, &vessel, bad)
	assert.Error(t, err)

	stopped := testutil.ContainerVessel()
	stopped.CruiseSpeedKnots = 0
	_, err = svc.EstimateConsumption(1000, &stopped, DefaultVoyageFactors())
	assert.Error(t, err)
}

// TestEstimateConsumption_Rounding verifies 0.1 ton precision
func TestEstimateConsumption_Rounding(t *testing.T) {
	svc := newFuelService()
	vessel := testutil.ContainerVessel()

	fuel, err := svc.EstimateConsumption(1234.5, &vessel, DefaultVoyageFactors())
	require.NoError(t, err)

	assert.InDelta(t, fuel, float64(int(fuel*10))/10, 1e-9)
}
