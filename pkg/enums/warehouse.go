package enums

import "fmt"

// WarehouseItemStatus marks whether a stock position is in circulation.
type WarehouseItemStatus string

const (
	WarehouseItemStatusActive   WarehouseItemStatus = "active"
	WarehouseItemStatusReserved WarehouseItemStatus = "reserved"
	WarehouseItemStatusArchived WarehouseItemStatus = "archived"
)

var validWarehouseItemStatuses = []WarehouseItemStatus{
	WarehouseItemStatusActive,
	WarehouseItemStatusReserved,
	WarehouseItemStatusArchived,
}

func (w WarehouseItemStatus) String() string {
	return string(w)
}

func (w WarehouseItemStatus) IsValid() bool {
	for _, candidate := range validWarehouseItemStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWarehouseItemStatus converts raw input into a WarehouseItemStatus.
func ParseWarehouseItemStatus(value string) (WarehouseItemStatus, error) {
	for _, candidate := range validWarehouseItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}

// MovementType distinguishes stock receipts from issues and write-offs.
type MovementType string

const (
	MovementTypeReceipt  MovementType = "receipt"
	MovementTypeIssue    MovementType = "issue"
	MovementTypeWriteOff MovementType = "write_off"
	MovementTypeTransfer MovementType = "transfer"
)

var validMovementTypes = []MovementType{
	MovementTypeReceipt,
	MovementTypeIssue,
	MovementTypeWriteOff,
	MovementTypeTransfer,
}

func (m MovementType) String() string {
	return string(m)
}

func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
