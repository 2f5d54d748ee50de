package enums

import "fmt"

// UserRole identifies the access level of a staff account.
type UserRole string

const (
	UserRoleAdmin                UserRole = "admin"
	UserRoleGeneralDirector      UserRole = "general_director"
	UserRoleConstructionDirector UserRole = "construction_director"
	UserRoleProjectManager       UserRole = "project_manager"
	UserRoleSiteManager          UserRole = "site_manager"
	UserRoleForeman              UserRole = "foreman"
	UserRoleEstimator            UserRole = "estimator"
	UserRoleEmployee             UserRole = "employee"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleGeneralDirector,
	UserRoleConstructionDirector,
	UserRoleProjectManager,
	UserRoleSiteManager,
	UserRoleForeman,
	UserRoleEstimator,
	UserRoleEmployee,
}

// DirectorRoles are the roles with unrestricted visibility over projects.
var DirectorRoles = []UserRole{
	UserRoleAdmin,
	UserRoleGeneralDirector,
	UserRoleConstructionDirector,
}

// EstimatorRoles are the roles allowed to create and mutate estimates.
var EstimatorRoles = []UserRole{
	UserRoleAdmin,
	UserRoleGeneralDirector,
	UserRoleConstructionDirector,
	UserRoleEstimator,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsDirector reports whether the role has full project visibility.
func (r UserRole) IsDirector() bool {
	for _, candidate := range DirectorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
