package authorize

import (
	"context"
	"log/slog"
)

// SeedDefaultPolicies installs the baseline decision table. Every row here
// is an ordinary casbin policy: operators can override any of them at
// runtime through the rbac endpoints (the ambiguous historical rules, like
// whether receptionists may delete appointments, are deliberately plain
// rows rather than code branches).
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	// Admin: every operation, everywhere.
	sysPolicies := []PermissionPolicy{
		{RoleAdmin, WildcardDomain, WildcardResource, WildcardAction, EffectAllow},
	}

	// Receptionist: front-desk control of the clinic's appointment book and
	// patient registry. No staff management, no visit authoring.
	receptionistPolicies := []PermissionPolicy{
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionRead, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionList, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionUpdate, EffectAllow},
		// Overridable: some deployments restrict appointment deletion to admin.
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionDelete, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceAppointment, ActionChangeStatus, EffectAllow},

		{RoleReceptionist, WildcardDomain, ResourcePatient, ActionCreate, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourcePatient, ActionRead, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourcePatient, ActionList, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourcePatient, ActionUpdate, EffectAllow},

		{RoleReceptionist, WildcardDomain, ResourceVisit, ActionRead, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceVisit, ActionList, EffectAllow},

		{RoleReceptionist, WildcardDomain, ResourceQuestionnaire, ActionRead, EffectAllow},
		{RoleReceptionist, WildcardDomain, ResourceQuestionnaire, ActionList, EffectAllow},
	}

	// Doctor: clinical authoring plus their own appointment book. Record
	// level restrictions (own appointments, roster-derived patients) are
	// applied by the access engine after this coarse check.
	doctorPolicies := []PermissionPolicy{
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionRead, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionList, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionChangeStatus, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceAppointment, ActionComplete, EffectAllow},

		{RoleDoctor, WildcardDomain, ResourcePatient, ActionCreate, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourcePatient, ActionRead, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourcePatient, ActionList, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourcePatient, ActionUpdate, EffectAllow},

		{RoleDoctor, WildcardDomain, ResourceVisit, ActionCreate, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceVisit, ActionRead, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceVisit, ActionList, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceVisit, ActionUpdate, EffectAllow},

		{RoleDoctor, WildcardDomain, ResourceQuestionnaire, ActionCreate, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceQuestionnaire, ActionRead, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceQuestionnaire, ActionList, EffectAllow},
		{RoleDoctor, WildcardDomain, ResourceQuestionnaire, ActionUpdate, EffectAllow},
	}

	// Directory reads are open to every authenticated role; mutation stays
	// admin-only (covered by the admin wildcard above).
	directoryPolicies := []PermissionPolicy{}
	for _, role := range []Role{RoleDoctor, RoleReceptionist} {
		for _, res := range []Resource{ResourceClinic, ResourceDepartment, ResourceSpecialization, ResourceTreatment} {
			directoryPolicies = append(directoryPolicies,
				PermissionPolicy{role, WildcardDomain, res, ActionRead, EffectAllow},
				PermissionPolicy{role, WildcardDomain, res, ActionList, EffectAllow},
			)
		}
	}

	allPolicies := append(append(append(sysPolicies, receptionistPolicies...), doctorPolicies...), directoryPolicies...)

	for _, p := range allPolicies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "domain", p.Domain, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(allPolicies))
	return nil
}

// SyncStaffRole aligns a user's grouping policies with their stored role and
// clinic affiliation. Call on user create, role change, clinic reassignment
// and delete (with role == "").
func SyncStaffRole(ctx context.Context, auth IAuthorization, userID uint, staffRole string, clinicID *uint) error {
	subject := UserSubject(userID)

	domains := []Domain{DomainSys}
	if clinicID != nil {
		domains = append(domains, ClinicDomain(*clinicID))
	}

	// Drop whatever is there first; grouping rows are cheap to rebuild.
	for _, d := range domains {
		existing, err := auth.GetRolesForUserInDomain(ctx, subject, d)
		if err != nil {
			return err
		}
		for _, r := range existing {
			if _, err := auth.RemoveRoleForUserInDomain(ctx, subject, r, d); err != nil {
				return err
			}
		}
	}

	if staffRole == "" {
		return nil
	}

	role, ok := StaffRoleToRBACRole[staffRole]
	if !ok {
		return ErrInvalidArgs
	}

	// Admins live in the sys domain; clinic staff in their clinic's domain,
	// falling back to sys while unaffiliated.
	domain := DomainSys
	if role != RoleAdmin && clinicID != nil {
		domain = ClinicDomain(*clinicID)
	}

	_, err := auth.AddRoleForUserInDomain(ctx, subject, role, domain)
	return err
}
