package authorize

import (
	"testing"
)

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   Domain
		expected bool
	}{
		// Valid domains
		{"sys domain", DomainSys, true},
		{"wildcard domain", WildcardDomain, true},
		{"valid clinic domain", Domain("clinic:42"), true},
		{"single digit clinic", Domain("clinic:1"), true},

		// Invalid domains
		{"empty domain", Domain(""), false},
		{"random string", Domain("random"), false},
		{"clinic without id", Domain("clinic:"), false},
		{"clinic with non-numeric id", Domain("clinic:abc"), false},
		{"clinic with uuid id", Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
		{"unknown prefix", Domain("project:42"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidDomain(tt.domain)
			if result != tt.expected {
				t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, result, tt.expected)
			}
		})
	}
}

func TestClinicDomain(t *testing.T) {
	expected := Domain("clinic:42")

	result := ClinicDomain(42)
	if result != expected {
		t.Errorf("ClinicDomain(42) = %q, want %q", result, expected)
	}
	if !IsValidDomain(result) {
		t.Errorf("ClinicDomain(42) should produce a valid domain")
	}
}

func TestKnownActions(t *testing.T) {
	// Verify all expected actions are in the known map
	expectedActions := []Action{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList,
		ActionChangeStatus, ActionComplete,
		ActionGrant, ActionRevoke,
	}

	for _, action := range expectedActions {
		if _, ok := KnownActions[action]; !ok {
			t.Errorf("Expected action %q to be in KnownActions", action)
		}
	}
}

func TestKnownResources(t *testing.T) {
	// Verify all expected resources are in the known map
	expectedResources := []Resource{
		ResourceUser, ResourceAuthSession,
		ResourceClinic, ResourceDepartment, ResourceSpecialization, ResourceTreatment,
		ResourcePatient, ResourceAppointment, ResourceVisit, ResourceQuestionnaire,
		ResourceSystem, ResourceAudit, ResourceRBAC,
	}

	for _, resource := range expectedResources {
		if _, ok := KnownResources[resource]; !ok {
			t.Errorf("Expected resource %q to be in KnownResources", resource)
		}
	}
}

func TestKnownRoles(t *testing.T) {
	// Verify all expected roles are in the known map
	expectedRoles := []Role{
		RoleAdmin, RoleDoctor, RoleReceptionist,
	}

	for _, role := range expectedRoles {
		if _, ok := KnownRoles[role]; !ok {
			t.Errorf("Expected role %q to be in KnownRoles", role)
		}
	}
}

func TestStaffRoleMapping(t *testing.T) {
	tests := []struct {
		staffRole string
		want      Role
	}{
		{StaffRoleAdmin, RoleAdmin},
		{StaffRoleDoctor, RoleDoctor},
		{StaffRoleReceptionist, RoleReceptionist},
	}

	for _, tt := range tests {
		if got := StaffRoleToRBACRole[tt.staffRole]; got != tt.want {
			t.Errorf("StaffRoleToRBACRole[%q] = %q, want %q", tt.staffRole, got, tt.want)
		}
	}
}
