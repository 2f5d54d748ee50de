package enums

import "fmt"

// ClientType distinguishes individuals from legal entities.
type ClientType string

const (
	ClientTypeIndividual   ClientType = "individual"
	ClientTypeCompany      ClientType = "company"
	ClientTypeGovernment   ClientType = "government"
	ClientTypeEntrepreneur ClientType = "entrepreneur"
)

var validClientTypes = []ClientType{
	ClientTypeIndividual,
	ClientTypeCompany,
	ClientTypeGovernment,
	ClientTypeEntrepreneur,
}

func (c ClientType) String() string {
	return string(c)
}

func (c ClientType) IsValid() bool {
	for _, candidate := range validClientTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientType converts raw input into a ClientType.
func ParseClientType(value string) (ClientType, error) {
	for _, candidate := range validClientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client type %q", value)
}

// ClientStatus tracks the sales relationship with a client.
type ClientStatus string

const (
	ClientStatusPotential ClientStatus = "potential"
	ClientStatusActive    ClientStatus = "active"
	ClientStatusInactive  ClientStatus = "inactive"
	ClientStatusBlacklist ClientStatus = "blacklist"
)

var validClientStatuses = []ClientStatus{
	ClientStatusPotential,
	ClientStatusActive,
	ClientStatusInactive,
	ClientStatusBlacklist,
}

func (c ClientStatus) String() string {
	return string(c)
}

func (c ClientStatus) IsValid() bool {
	for _, candidate := range validClientStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientStatus converts raw input into a ClientStatus.
func ParseClientStatus(value string) (ClientStatus, error) {
	for _, candidate := range validClientStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client status %q", value)
}
