package enums

import "fmt"

// FleetType classifies the business a fleet operates in.
type FleetType string

const (
	FleetTypeLogistics    FleetType = "LOGISTICS"
	FleetTypeEmergency    FleetType = "EMERGENCY"
	FleetTypeConstruction FleetType = "CONSTRUCTION"
	FleetTypeAgriculture  FleetType = "AGRICULTURE"
	FleetTypeMunicipal    FleetType = "MUNICIPAL"
)

var validFleetTypes = []FleetType{
	FleetTypeLogistics,
	FleetTypeEmergency,
	FleetTypeConstruction,
	FleetTypeAgriculture,
	FleetTypeMunicipal,
}

// String implements fmt.Stringer.
func (f FleetType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FleetType.
func (f FleetType) IsValid() bool {
	for _, candidate := range validFleetTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFleetType converts raw input into a FleetType.
func ParseFleetType(value string) (FleetType, error) {
	for _, candidate := range validFleetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fleet type %q", value)
}
