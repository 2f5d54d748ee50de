package enums

import "fmt"

// ProjectType classifies the construction work.
type ProjectType string

const (
	ProjectTypeResidential    ProjectType = "residential"
	ProjectTypeCommercial     ProjectType = "commercial"
	ProjectTypeIndustrial     ProjectType = "industrial"
	ProjectTypeInfrastructure ProjectType = "infrastructure"
	ProjectTypeRenovation     ProjectType = "renovation"
)

var validProjectTypes = []ProjectType{
	ProjectTypeResidential,
	ProjectTypeCommercial,
	ProjectTypeIndustrial,
	ProjectTypeInfrastructure,
	ProjectTypeRenovation,
}

func (p ProjectType) String() string {
	return string(p)
}

func (p ProjectType) IsValid() bool {
	for _, candidate := range validProjectTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProjectType converts raw input into a ProjectType.
func ParseProjectType(value string) (ProjectType, error) {
	for _, candidate := range validProjectTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid project type %q", value)
}

// ProjectStatus tracks a project through its delivery lifecycle.
type ProjectStatus string

const (
	ProjectStatusPlanning     ProjectStatus = "planning"
	ProjectStatusDesign       ProjectStatus = "design"
	ProjectStatusApproval     ProjectStatus = "approval"
	ProjectStatusConstruction ProjectStatus = "construction"
	ProjectStatusCompleted    ProjectStatus = "completed"
	ProjectStatusSuspended    ProjectStatus = "suspended"
	ProjectStatusCanceled     ProjectStatus = "canceled"
)

var validProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusDesign,
	ProjectStatusApproval,
	ProjectStatusConstruction,
	ProjectStatusCompleted,
	ProjectStatusSuspended,
	ProjectStatusCanceled,
}

func (p ProjectStatus) String() string {
	return string(p)
}

func (p ProjectStatus) IsValid() bool {
	for _, candidate := range validProjectStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProjectStatus converts raw input into a ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, candidate := range validProjectStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", value)
}

// Priority ranks projects and tasks for attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{
	PriorityLow,
	PriorityNormal,
	PriorityHigh,
	PriorityUrgent,
}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriority converts raw input into a Priority.
func ParsePriority(value string) (Priority, error) {
	for _, candidate := range validPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", value)
}
