package authorize

import (
	"fmt"
	"regexp"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Lifecycle actions
	ActionChangeStatus Action = "change_status" // appointment transitions
	ActionComplete     Action = "complete"      // complete + record visit

	// RBAC-specific actions
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionChangeStatus: {}, ActionComplete: {},
	ActionGrant: {}, ActionRevoke: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Identity / auth
	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"

	// Directory
	ResourceClinic         Resource = "clinic"
	ResourceDepartment     Resource = "department"
	ResourceSpecialization Resource = "specialization"
	ResourceTreatment      Resource = "treatment"

	// Care records
	ResourcePatient       Resource = "patient"
	ResourceAppointment   Resource = "appointment"
	ResourceVisit         Resource = "visit"
	ResourceQuestionnaire Resource = "questionnaire"

	// System / platform admin
	ResourceSystem Resource = "system"
	ResourceAudit  Resource = "audit"
	ResourceRBAC   Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {},
	ResourceClinic: {}, ResourceDepartment: {}, ResourceSpecialization: {}, ResourceTreatment: {},
	ResourcePatient: {}, ResourceAppointment: {}, ResourceVisit: {}, ResourceQuestionnaire: {},
	ResourceSystem: {}, ResourceAudit: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// These are the "policy subjects" we assign to users via grouping policies.

const (
	WildcardRole Role = "*"

	// Admin operates in the sys domain and every clinic domain.
	RoleAdmin Role = "role:admin"

	// Clinic roles (domain = clinic:<id>)
	RoleDoctor       Role = "role:doctor"
	RoleReceptionist Role = "role:receptionist"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:        {},
	RoleDoctor:       {},
	RoleReceptionist: {},
}

// Staff role strings as stored in the users.role column.
const (
	StaffRoleAdmin        = "admin"
	StaffRoleDoctor       = "doctor"
	StaffRoleReceptionist = "receptionist"
)

// StaffRoleToRBACRole maps DB role values to Casbin roles.
var StaffRoleToRBACRole = map[string]Role{
	StaffRoleAdmin:        RoleAdmin,
	StaffRoleDoctor:       RoleDoctor,
	StaffRoleReceptionist: RoleReceptionist,
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys Domain = "sys"
)

// Domain prefixes (for exact domains we generate per entity)
const (
	DomainPrefixClinic Domain = "clinic:"
)

const (
	WildcardDomain Domain = "*"
)

var (
	reNumericID = regexp.MustCompile(`^[0-9]+$`)
)

// ClinicDomain builds the casbin domain string for a clinic id.
func ClinicDomain(clinicID uint) Domain {
	return Domain(fmt.Sprintf("%s%d", DomainPrefixClinic, clinicID))
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}

	s := string(d)
	if len(s) > len(DomainPrefixClinic) && s[:len(DomainPrefixClinic)] == string(DomainPrefixClinic) {
		return reNumericID.MatchString(s[len(DomainPrefixClinic):])
	}
	return false
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// PolicySubject is the p.sub in Casbin: either a role (preferred) or a user/service id.
type PolicySubject string

// GroupSubject is the g.sub in Casbin: a concrete principal id (user_id).
type GroupSubject string

// UserSubject builds the grouping subject for a staff account id.
func UserSubject(userID uint) GroupSubject {
	return GroupSubject(fmt.Sprintf("%d", userID))
}

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
