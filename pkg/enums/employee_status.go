package enums

import "fmt"

// EmployeeStatus tracks headcount availability.
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "active"
	EmployeeStatusVacation   EmployeeStatus = "vacation"
	EmployeeStatusSickLeave  EmployeeStatus = "sick_leave"
	EmployeeStatusTerminated EmployeeStatus = "terminated"
)

var validEmployeeStatuses = []EmployeeStatus{
	EmployeeStatusActive,
	EmployeeStatusVacation,
	EmployeeStatusSickLeave,
	EmployeeStatusTerminated,
}

func (e EmployeeStatus) String() string {
	return string(e)
}

func (e EmployeeStatus) IsValid() bool {
	for _, candidate := range validEmployeeStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmployeeStatus converts raw input into a EmployeeStatus.
func ParseEmployeeStatus(value string) (EmployeeStatus, error) {
	for _, candidate := range validEmployeeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee status %q", value)
}
