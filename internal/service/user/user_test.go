package user

import (
	"context"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
	"github.com/dok75/clinic_backend/pkg/authorize"
	"github.com/dok75/clinic_backend/pkg/util/password"
)

// fakeAuthz records role grouping changes without a real enforcer.
type fakeAuthz struct {
	roles map[string][]string // subject -> "role@domain"
}

func newFakeAuthz() *fakeAuthz {
	return &fakeAuthz{roles: map[string][]string{}}
}

func (f *fakeAuthz) Enforce(ctx context.Context, sub authorize.GroupSubject, dom authorize.Domain, obj authorize.Resource, act authorize.Action) (bool, error) {
	return true, nil
}

func (f *fakeAuthz) MustEnforce(ctx context.Context, sub authorize.GroupSubject, dom authorize.Domain, obj authorize.Resource, act authorize.Action) error {
	return nil
}

func (f *fakeAuthz) AddRoleForUserInDomain(ctx context.Context, sub authorize.GroupSubject, role authorize.Role, dom authorize.Domain) (bool, error) {
	f.roles[string(sub)] = append(f.roles[string(sub)], string(role)+"@"+string(dom))
	return true, nil
}

func (f *fakeAuthz) RemoveRoleForUserInDomain(ctx context.Context, sub authorize.GroupSubject, role authorize.Role, dom authorize.Domain) (bool, error) {
	key := string(role) + "@" + string(dom)
	kept := f.roles[string(sub)][:0]
	for _, r := range f.roles[string(sub)] {
		if r != key {
			kept = append(kept, r)
		}
	}
	f.roles[string(sub)] = kept
	return true, nil
}

func (f *fakeAuthz) GetRolesForUserInDomain(ctx context.Context, sub authorize.GroupSubject, dom authorize.Domain) ([]authorize.Role, error) {
	var out []authorize.Role
	for _, r := range f.roles[string(sub)] {
		for i := range r {
			if r[i] == '@' {
				if r[i+1:] == string(dom) {
					out = append(out, authorize.Role(r[:i]))
				}
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAuthz) AddPermission(ctx context.Context, role authorize.Role, dom authorize.Domain, obj authorize.Resource, act authorize.Action, eft authorize.PolicyEffect) (bool, error) {
	return true, nil
}

func (f *fakeAuthz) RemovePermission(ctx context.Context, role authorize.Role, dom authorize.Domain, obj authorize.Resource, act authorize.Action, eft authorize.PolicyEffect) (bool, error) {
	return true, nil
}

func (f *fakeAuthz) Raw() *casbin.DistributedEnforcer { return nil }

type fixture struct {
	db    *gorm.DB
	svc   Service
	authz *fakeAuthz
	admin *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.Migrate(db))

	authz := newFakeAuthz()
	f := &fixture{
		db:    db,
		authz: authz,
		svc:   New(db, access.NewEngine(db, access.ScopePolicy{}), authz, nil),
		admin: &model.User{Username: "admin", PasswordHash: "x", FullName: "Admin", Role: model.RoleAdmin, IsActive: true},
	}
	require.NoError(t, db.Create(f.admin).Error)
	return f
}

func TestCreateStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(1)
	u, err := f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "dr.one",
		FullName: "Doctor One",
		Role:     "doctor",
		Password: "s3cret-pass",
		ClinicID: &clinicID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, u.Role)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash, "password is stored hashed")
	assert.NoError(t, password.Verify(u.PasswordHash, "s3cret-pass"))

	// The casbin grouping followed the create.
	assert.NotEmpty(t, f.authz.roles["2"])

	_, err = f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "dr.one", FullName: "Twin", Role: "doctor", Password: "x12345678",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestCreateRoleAliases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "boss", FullName: "Boss", Role: "super_admin", Password: "x12345678",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role, "super_admin normalizes to admin")

	_, err = f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "weird", FullName: "Weird", Role: "janitor", Password: "x12345678",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateGeneratesTempPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "front", FullName: "Front Desk", Role: "receptionist",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestCreateAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(1)
	doctor := &model.User{Username: "dr", PasswordHash: "x", FullName: "Dr", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(doctor).Error)

	var denied *access.DeniedError
	_, err := f.svc.Create(ctx, doctor, CreateRequest{
		Username: "new", FullName: "New", Role: "doctor", Password: "x12345678",
	})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonRoleMismatch, denied.Reason)
}

func TestLastAdminGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The only admin cannot be demoted, deactivated or deleted.
	role := "doctor"
	_, err := f.svc.Update(ctx, f.admin, f.admin.ID, UpdateRequest{Role: &role})
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonSelfMutation, denied.Reason)

	second, err := f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "admin2", FullName: "Second Admin", Role: "admin", Password: "x12345678",
	})
	require.NoError(t, err)

	// Demoting the second admin is fine while the first remains.
	_, err = f.svc.Update(ctx, f.admin, second.ID, UpdateRequest{Role: &role})
	require.NoError(t, err)

	// Now the first is the last active admin again: deactivation is blocked.
	inactive := false
	_, err = f.svc.Update(ctx, f.admin, f.admin.ID, UpdateRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrLastAdmin)
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var denied *access.DeniedError
	err := f.svc.Delete(ctx, f.admin, f.admin.ID)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonSelfMutation, denied.Reason)

	second, err := f.svc.Create(ctx, f.admin, CreateRequest{
		Username: "admin2", FullName: "Second Admin", Role: "admin", Password: "x12345678",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.admin, second.ID))

	var stored model.User
	require.NoError(t, f.db.First(&stored, second.ID).Error)
	assert.False(t, stored.IsActive, "delete deactivates instead of removing")

	err = f.svc.Delete(ctx, f.admin, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := password.Hash("old-password")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.admin).Update("password_hash", hash).Error)
	f.admin.PasswordHash = hash

	err = f.svc.ChangePassword(ctx, f.admin, "wrong", "new-password-1")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.ChangePassword(ctx, f.admin, "old-password", "short")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, f.admin, "old-password", "new-password-1"))

	var stored model.User
	require.NoError(t, f.db.First(&stored, f.admin.ID).Error)
	assert.NoError(t, password.Verify(stored.PasswordHash, "new-password-1"))
}
