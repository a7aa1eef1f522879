package authorize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// createTestEnforcer creates an in-memory Casbin enforcer for testing
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	// Create temp directory for test files
	tmpDir := t.TempDir()

	// Write model config
	modelPath := filepath.Join(tmpDir, "model.conf")
	modelContent := `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _
g2 = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (g(r.sub, p.sub, r.dom) || g2(r.sub, p.sub)) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || keyMatch2(r.obj, p.obj)) && (p.act == "*" || keyMatch(r.act, p.act))
`
	if err := os.WriteFile(modelPath, []byte(modelContent), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	// Write empty policy file
	policyPath := filepath.Join(tmpDir, "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	// Create adapter with file
	a := fileadapter.NewAdapter(policyPath)

	e, err := casbin.NewDistributedEnforcer(modelPath, a)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	return e
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		e := createTestEnforcer(t)
		auth, err := NewAuthorization(e)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestEnforce(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	// Add test policies
	userID := "123"
	domain := ClinicDomain(7)

	// Add role to user
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleDoctor, domain)
	if err != nil {
		t.Fatalf("Failed to add role: %v", err)
	}

	// Add permission to role
	_, err = auth.AddPermission(ctx, RoleDoctor, domain, ResourceVisit, ActionCreate, EffectAllow)
	if err != nil {
		t.Fatalf("Failed to add permission: %v", err)
	}

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
		want     bool
		wantErr  bool
	}{
		{
			name:     "allowed when permission exists",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: ResourceVisit,
			action:   ActionCreate,
			want:     true,
			wantErr:  false,
		},
		{
			name:     "denied when no permission",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: ResourceUser,
			action:   ActionRead,
			want:     false,
			wantErr:  false,
		},
		{
			name:     "error for empty subject",
			subject:  "",
			domain:   domain,
			resource: ResourceVisit,
			action:   ActionRead,
			want:     false,
			wantErr:  true,
		},
		{
			name:     "error for invalid domain",
			subject:  GroupSubject(userID),
			domain:   Domain("invalid"),
			resource: ResourceVisit,
			action:   ActionRead,
			want:     false,
			wantErr:  true,
		},
		{
			name:     "error for unknown resource",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: Resource("unknown"),
			action:   ActionRead,
			want:     false,
			wantErr:  true,
		},
		{
			name:     "error for unknown action",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: ResourceVisit,
			action:   Action("unknown"),
			want:     false,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Enforce() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	userID := "456"
	domain := ClinicDomain(2)

	auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleReceptionist, domain)
	auth.AddPermission(ctx, RoleReceptionist, domain, ResourceAppointment, ActionCreate, EffectAllow)

	t.Run("returns nil when allowed", func(t *testing.T) {
		err := auth.MustEnforce(ctx, GroupSubject(userID), domain, ResourceAppointment, ActionCreate)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("returns ErrForbidden when denied", func(t *testing.T) {
		err := auth.MustEnforce(ctx, GroupSubject(userID), domain, ResourceUser, ActionDelete)
		if err != ErrForbidden {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}

func TestAdminBypass(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	adminID := "1"

	// Admin role in sys domain, no explicit policies
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(adminID), RoleAdmin, DomainSys)
	if err != nil {
		t.Fatalf("Failed to add admin role: %v", err)
	}

	// Admin should be allowed to do anything (bypass check)
	allowed, err := auth.Enforce(ctx, GroupSubject(adminID), DomainSys, ResourceUser, ActionDelete)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected admin to be allowed")
	}

	// Including inside an arbitrary clinic domain
	allowed, err = auth.Enforce(ctx, GroupSubject(adminID), ClinicDomain(99), ResourcePatient, ActionDelete)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected admin bypass to apply in clinic domains")
	}

	// A subject without the admin grouping gets no bypass and, with no
	// policies loaded, is denied.
	allowed, err = auth.Enforce(ctx, GroupSubject("2"), DomainSys, ResourceUser, ActionDelete)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected non-admin subject to be denied")
	}
}

func TestRoleManagement(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	userID := "789"
	domain := ClinicDomain(4)

	t.Run("add and get roles", func(t *testing.T) {
		added, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleDoctor, domain)
		if err != nil {
			t.Errorf("Failed to add role: %v", err)
		}
		if !added {
			t.Error("Expected role to be added")
		}

		roles, err := auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), domain)
		if err != nil {
			t.Errorf("Failed to get roles: %v", err)
		}
		if len(roles) != 1 {
			t.Errorf("Expected 1 role, got %d", len(roles))
		}
		if roles[0] != RoleDoctor {
			t.Errorf("Expected role %q, got %q", RoleDoctor, roles[0])
		}
	})

	t.Run("remove role", func(t *testing.T) {
		removed, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), RoleDoctor, domain)
		if err != nil {
			t.Errorf("Failed to remove role: %v", err)
		}
		if !removed {
			t.Error("Expected role to be removed")
		}

		roles, _ := auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), domain)
		if len(roles) != 0 {
			t.Errorf("Expected 0 roles after removal, got %d", len(roles))
		}
	})

	t.Run("error for invalid role", func(t *testing.T) {
		_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), Role("invalid-role"), domain)
		if err == nil {
			t.Error("Expected error for invalid role")
		}
	})
}

func TestPermissionManagement(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	t.Run("add and remove permission", func(t *testing.T) {
		added, err := auth.AddPermission(ctx, RoleReceptionist, WildcardDomain, ResourceAppointment, ActionDelete, EffectAllow)
		if err != nil {
			t.Errorf("Failed to add permission: %v", err)
		}
		if !added {
			t.Error("Expected permission to be added")
		}

		removed, err := auth.RemovePermission(ctx, RoleReceptionist, WildcardDomain, ResourceAppointment, ActionDelete, EffectAllow)
		if err != nil {
			t.Errorf("Failed to remove permission: %v", err)
		}
		if !removed {
			t.Error("Expected permission to be removed")
		}
	})

	t.Run("error for invalid effect", func(t *testing.T) {
		_, err := auth.AddPermission(ctx, RoleAdmin, DomainSys, ResourceUser, ActionRead, PolicyEffect("invalid"))
		if err == nil {
			t.Error("Expected error for invalid effect")
		}
	})
}

func TestSeedDefaultPolicies(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}

	clinic := ClinicDomain(3)
	receptionist := GroupSubject("10")
	doctor := GroupSubject("11")
	auth.AddRoleForUserInDomain(ctx, receptionist, RoleReceptionist, clinic)
	auth.AddRoleForUserInDomain(ctx, doctor, RoleDoctor, clinic)

	tests := []struct {
		name     string
		subject  GroupSubject
		resource Resource
		action   Action
		want     bool
	}{
		{"receptionist creates appointment", receptionist, ResourceAppointment, ActionCreate, true},
		{"receptionist deletes appointment (overridable default)", receptionist, ResourceAppointment, ActionDelete, true},
		{"receptionist cannot delete user", receptionist, ResourceUser, ActionDelete, false},
		{"receptionist cannot create visit", receptionist, ResourceVisit, ActionCreate, false},
		{"doctor creates visit", doctor, ResourceVisit, ActionCreate, true},
		{"doctor completes appointment", doctor, ResourceAppointment, ActionComplete, true},
		{"doctor cannot delete appointment", doctor, ResourceAppointment, ActionDelete, false},
		{"doctor cannot delete patient", doctor, ResourcePatient, ActionDelete, false},
		{"doctor reads clinic directory", doctor, ResourceClinic, ActionRead, true},
		{"doctor cannot update clinic", doctor, ResourceClinic, ActionUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, clinic, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyncStaffRole(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	clinicID := uint(5)
	if err := SyncStaffRole(ctx, auth, 42, StaffRoleDoctor, &clinicID); err != nil {
		t.Fatalf("SyncStaffRole: %v", err)
	}

	roles, _ := auth.GetRolesForUserInDomain(ctx, UserSubject(42), ClinicDomain(clinicID))
	if len(roles) != 1 || roles[0] != RoleDoctor {
		t.Fatalf("expected doctor role in clinic domain, got %v", roles)
	}

	// Role change replaces the old grouping
	if err := SyncStaffRole(ctx, auth, 42, StaffRoleReceptionist, &clinicID); err != nil {
		t.Fatalf("SyncStaffRole: %v", err)
	}
	roles, _ = auth.GetRolesForUserInDomain(ctx, UserSubject(42), ClinicDomain(clinicID))
	if len(roles) != 1 || roles[0] != RoleReceptionist {
		t.Fatalf("expected receptionist role after change, got %v", roles)
	}

	// Removal clears everything
	if err := SyncStaffRole(ctx, auth, 42, "", &clinicID); err != nil {
		t.Fatalf("SyncStaffRole: %v", err)
	}
	roles, _ = auth.GetRolesForUserInDomain(ctx, UserSubject(42), ClinicDomain(clinicID))
	if len(roles) != 0 {
		t.Fatalf("expected no roles after removal, got %v", roles)
	}
}
