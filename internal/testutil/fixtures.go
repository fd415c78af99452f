// Package testutil provides shared fixtures and mocks for tests
package testutil

import (
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// FixturePort builds a minimal active multipurpose port
func FixturePort(unlocode, name, country string, lat, lon float64) models.Port {
	return models.Port{
		UNLocode:             unlocode,
		Name:                 name,
		Country:              country,
		Coordinates:          geo.Coordinates{Latitude: lat, Longitude: lon},
		PortType:             models.PortMultipurpose,
		OperationalStatus:    models.StatusActive,
		BerthsCount:          8,
		AveragePortTimeHours: 24,
		CongestionFactor:     1.0,
	}
}

// WorldPorts returns a realistic fixture set covering the major hubs and
// a chain of intermediate ports so that range-limited vessels can route
// between Asia and Europe in legs under 4000nm.
func WorldPorts() []models.Port {
	ports := []models.Port{
		FixturePort("SGSIN", "Singapore", "Singapore", 1.2644, 103.8400),
		FixturePort("NLRTM", "Rotterdam", "Netherlands", 51.9550, 4.1400),
		FixturePort("CNSHA", "Shanghai", "China", 31.2304, 121.4910),
		FixturePort("AEJEA", "Jebel Ali", "United Arab Emirates", 25.0110, 55.0610),
		FixturePort("USLAX", "Los Angeles", "United States", 33.7406, -118.2600),
		FixturePort("DEHAM", "Hamburg", "Germany", 53.5405, 9.9700),
		FixturePort("HKHKG", "Hong Kong", "China", 22.3080, 114.1700),
		FixturePort("USPNY", "New York", "United States", 40.6700, -74.0400),
		FixturePort("BEANR", "Antwerp", "Belgium", 51.2300, 4.4000),
		FixturePort("JPNGO", "Nagoya", "Japan", 35.0500, 136.8500),
		FixturePort("LKCMB", "Colombo", "Sri Lanka", 6.9500, 79.8500),
		FixturePort("SAJED", "Jeddah", "Saudi Arabia", 21.4800, 39.1700),
		FixturePort("EGALY", "Alexandria", "Egypt", 31.2000, 29.8800),
		FixturePort("ESALG", "Algeciras", "Spain", 36.1300, -5.4400),
		FixturePort("MYTPP", "Tanjung Pelepas", "Malaysia", 1.3620, 103.5500),
		FixturePort("GRPIR", "Piraeus", "Greece", 37.9400, 23.6200),
		FixturePort("ITGOA", "Genoa", "Italy", 44.4000, 8.9300),
		FixturePort("PAONX", "Colon", "Panama", 9.3500, -79.9000),
	}

	// Hubs carry enough facilities and berths to classify tier 1
	for i := range ports {
		switch ports[i].UNLocode {
		case "SGSIN", "NLRTM", "CNSHA", "AEJEA", "USLAX", "DEHAM", "HKHKG", "USPNY", "BEANR", "JPNGO":
			ports[i].BerthsCount = 40
			ports[i].Facilities = map[string]interface{}{
				"container_cranes": 30, "bunkering": true, "pilotage": true, "tugs": 12,
				"repair_yard": true, "customs": true, "rail_link": true, "warehousing": true,
				"reefer_points": 500, "hazmat": true,
			}
		}
	}

	return ports
}

// ContainerVessel returns a Panamax-class container vessel fixture
func ContainerVessel() models.VesselConstraints {
	dwt := 75000
	return models.VesselConstraints{
		VesselType:            models.VesselContainer,
		Name:                  "Test Carrier",
		LengthMeters:          300,
		BeamMeters:            45,
		DraftMeters:           14,
		DeadweightTonnage:     &dwt,
		CruiseSpeedKnots:      18,
		MaxRangeNauticalMiles: 10000,
		SuezCanalCompatible:   true,
		PanamaCanalCompatible: true,
	}
}

// ShortRangeVessel returns a vessel whose range forces hub routing on
// intercontinental pairs
func ShortRangeVessel() models.VesselConstraints {
	v := ContainerVessel()
	v.MaxRangeNauticalMiles = 4000
	return v
}

// FixtureRequest builds a valid balanced route request between two ports
func FixtureRequest(origin, destination string) models.RouteRequest {
	req := models.RouteRequest{
		OriginPortCode:       origin,
		DestinationPortCode:  destination,
		VesselConstraints:    ContainerVessel(),
		OptimizationCriteria: models.CriteriaBalanced,
	}
	req.ApplyDefaults()
	return req
}
