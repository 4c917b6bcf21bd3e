package models

// Role is the closed set of user roles recognized across the whole platform.
// The same enumeration is used by the API server, the JWT claims, and the CLI
// guards. Do not add values without updating RequireRoles call sites.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleInsuranceFirm Role = "INSURANCE_FIRM"
	RoleBroker        Role = "BROKER"
	RoleCustomer      Role = "CUSTOMER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInsuranceFirm, RoleBroker, RoleCustomer:
		return true
	}
	return false
}
