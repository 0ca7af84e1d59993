package enums

import "fmt"

// VehicleType classifies which vehicles a tire fits.
type VehicleType string

const (
	VehicleTypeCar          VehicleType = "CAR"
	VehicleTypeTruck        VehicleType = "TRUCK"
	VehicleTypeMotorcycle   VehicleType = "MOTORCYCLE"
	VehicleTypeBus          VehicleType = "BUS"
	VehicleTypeAgricultural VehicleType = "AGRICULTURAL"
	VehicleTypeIndustrial   VehicleType = "INDUSTRIAL"
)

var validVehicleTypes = []VehicleType{
	VehicleTypeCar,
	VehicleTypeTruck,
	VehicleTypeMotorcycle,
	VehicleTypeBus,
	VehicleTypeAgricultural,
	VehicleTypeIndustrial,
}

// String implements fmt.Stringer.
func (v VehicleType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleType.
func (v VehicleType) IsValid() bool {
	for _, candidate := range validVehicleTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleType converts raw input into a VehicleType.
func ParseVehicleType(value string) (VehicleType, error) {
	for _, candidate := range validVehicleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle type %q", value)
}

// Season classifies a tire's seasonal rating.
type Season string

const (
	SeasonSummer    Season = "SUMMER"
	SeasonWinter    Season = "WINTER"
	SeasonAllSeason Season = "ALL_SEASON"
)

var validSeasons = []Season{
	SeasonSummer,
	SeasonWinter,
	SeasonAllSeason,
}

// String implements fmt.Stringer.
func (s Season) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Season.
func (s Season) IsValid() bool {
	for _, candidate := range validSeasons {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSeason converts raw input into a Season.
func ParseSeason(value string) (Season, error) {
	for _, candidate := range validSeasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid season %q", value)
}

// CatalogSort enumerates the supported storefront sort keys.
type CatalogSort string

const (
	CatalogSortPriceAsc  CatalogSort = "price_asc"
	CatalogSortPriceDesc CatalogSort = "price_desc"
	CatalogSortNameAsc   CatalogSort = "name_asc"
	CatalogSortNameDesc  CatalogSort = "name_desc"
	CatalogSortFeatured  CatalogSort = "featured"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortPriceAsc,
	CatalogSortPriceDesc,
	CatalogSortNameAsc,
	CatalogSortNameDesc,
	CatalogSortFeatured,
}

// String implements fmt.Stringer.
func (c CatalogSort) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CatalogSort.
func (c CatalogSort) IsValid() bool {
	for _, candidate := range validCatalogSorts {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCatalogSort converts raw input into a CatalogSort.
func ParseCatalogSort(value string) (CatalogSort, error) {
	for _, candidate := range validCatalogSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog sort %q", value)
}
