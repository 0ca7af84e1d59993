package enums

import "fmt"

// TenantType distinguishes the root distributor from its branded resellers.
type TenantType string

const (
	TenantTypeDistributor TenantType = "DISTRIBUTOR"
	TenantTypeReseller    TenantType = "RESELLER"
)

var validTenantTypes = []TenantType{
	TenantTypeDistributor,
	TenantTypeReseller,
}

// String implements fmt.Stringer.
func (t TenantType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TenantType.
func (t TenantType) IsValid() bool {
	for _, candidate := range validTenantTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTenantType converts raw input into a TenantType.
func ParseTenantType(value string) (TenantType, error) {
	for _, candidate := range validTenantTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant type %q", value)
}
