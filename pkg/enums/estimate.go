package enums

import "fmt"

// EstimateType marks how binding an estimate is.
type EstimateType string

const (
	EstimateTypePreliminary EstimateType = "preliminary"
	EstimateTypeDetailed    EstimateType = "detailed"
	EstimateTypeFinal       EstimateType = "final"
)

var validEstimateTypes = []EstimateType{
	EstimateTypePreliminary,
	EstimateTypeDetailed,
	EstimateTypeFinal,
}

// String implements fmt.Stringer.
func (e EstimateType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EstimateType.
func (e EstimateType) IsValid() bool {
	for _, candidate := range validEstimateTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEstimateType converts raw input into an EstimateType.
func ParseEstimateType(value string) (EstimateType, error) {
	for _, candidate := range validEstimateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid estimate type %q", value)
}

// EstimateStatus is a display label for approval workflow screens.
// The server stores it verbatim and enforces no transition rules.
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "draft"
	EstimateStatusReview   EstimateStatus = "review"
	EstimateStatusApproved EstimateStatus = "approved"
	EstimateStatusRejected EstimateStatus = "rejected"
)

var validEstimateStatuses = []EstimateStatus{
	EstimateStatusDraft,
	EstimateStatusReview,
	EstimateStatusApproved,
	EstimateStatusRejected,
}

// String implements fmt.Stringer.
func (e EstimateStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EstimateStatus.
func (e EstimateStatus) IsValid() bool {
	for _, candidate := range validEstimateStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEstimateStatus converts raw input into an EstimateStatus.
func ParseEstimateStatus(value string) (EstimateStatus, error) {
	for _, candidate := range validEstimateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid estimate status %q", value)
}
