package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
	"github.com/dok75/clinic_backend/pkg/authorize"
	"github.com/dok75/clinic_backend/pkg/email"
	"github.com/dok75/clinic_backend/pkg/util/codes"
	"github.com/dok75/clinic_backend/pkg/util/password"
)

// tempPasswordLength is the length of generated onboarding passwords.
const tempPasswordLength = 12

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Role     *string
	ClinicID *uint
	Search   string
	Page     int
	PerPage  int
}

type CreateRequest struct {
	Username         string
	FullName         string
	Role             string // aliases accepted
	Phone            string
	Email            string
	Password         string // generated and emailed when empty
	ClinicID         *uint
	DepartmentID     *uint
	SpecializationID *uint
}

type UpdateRequest struct {
	FullName         *string
	Role             *string
	Phone            *string
	Email            *string
	ClinicID         *uint
	DepartmentID     *uint
	SpecializationID *uint
	IsActive         *bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.User, error)
	GetByID(ctx context.Context, actor *model.User, id uint) (*model.User, error)
	Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.User, error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.User, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	ChangePassword(ctx context.Context, actor *model.User, current, next string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type userService struct {
	db     *gorm.DB
	engine *access.Engine
	authz  authorize.IAuthorization
	mailer *email.Client
}

func New(db *gorm.DB, engine *access.Engine, authz authorize.IAuthorization, mailer *email.Client) Service {
	return &userService{db: db, engine: engine, authz: authz, mailer: mailer}
}

func (s *userService) List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.User, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	q := s.db.WithContext(ctx).Model(&model.User{})

	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		q = q.Where("role = ?", role)
	}
	if req.ClinicID != nil {
		q = q.Where("clinic_id = ?", *req.ClinicID)
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		q = q.Where("LOWER(full_name) LIKE LOWER(?) OR LOWER(username) LIKE LOWER(?)", like, like)
	}

	var users []*model.User
	err := q.Order("full_name ASC").Offset(offset).Limit(req.PerPage).
		Preload("Clinic").Preload("Department").Preload("Specialization").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, actor *model.User, id uint) (*model.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CanReadUser(actor, id).Err(); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.User, error) {
	if err := s.engine.CanCreateUser(actor).Err(); err != nil {
		return nil, err
	}
	if req.Username == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: username and full_name are required", ErrValidation)
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	plain := req.Password
	generated := false
	if plain == "" {
		plain, err = codes.GenerateCode(tempPasswordLength, codes.DefaultConfig().GetCharset())
		if err != nil {
			return nil, fmt.Errorf("generate temporary password: %w", err)
		}
		generated = true
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:         req.Username,
		PasswordHash:     hash,
		FullName:         req.FullName,
		Role:             role,
		Phone:            req.Phone,
		Email:            req.Email,
		ClinicID:         req.ClinicID,
		DepartmentID:     req.DepartmentID,
		SpecializationID: req.SpecializationID,
		IsActive:         true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("username = ?", req.Username).Count(&n).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if n > 0 {
			return ErrUsernameExists
		}
		return tx.Create(u).Error
	})
	if err != nil {
		return nil, err
	}

	if err := authorize.SyncStaffRole(ctx, s.authz, u.ID, string(u.Role), u.ClinicID); err != nil {
		slog.Error("sync staff role", "user_id", u.ID, "error", err)
	}

	if generated && u.Email != "" && s.mailer != nil {
		msg := email.BuildStaffOnboardingEmail(email.StaffOnboardingData{
			To:           u.Email,
			FullName:     u.FullName,
			Username:     u.Username,
			TempPassword: plain,
		})
		if err := s.mailer.Send(ctx, msg); err != nil {
			slog.Warn("send onboarding email", "user_id", u.ID, "error", err)
		}
	}

	return u, nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.User, error) {
	target, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var newRole *model.Role
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		newRole = &role
	}

	if err := s.engine.CanUpdateUser(actor, target, newRole).Err(); err != nil {
		return nil, err
	}

	demotesAdmin := target.Role == model.RoleAdmin && newRole != nil && *newRole != model.RoleAdmin
	deactivatesAdmin := target.Role == model.RoleAdmin && req.IsActive != nil && !*req.IsActive

	updates := map[string]any{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if newRole != nil {
		updates["role"] = *newRole
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.ClinicID != nil {
		updates["clinic_id"] = *req.ClinicID
	}
	if req.DepartmentID != nil {
		updates["department_id"] = *req.DepartmentID
	}
	if req.SpecializationID != nil {
		updates["specialization_id"] = *req.SpecializationID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return target, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if demotesAdmin || deactivatesAdmin {
			if err := s.requireAnotherAdmin(tx, target.ID); err != nil {
				return err
			}
		}
		return tx.Model(target).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if newRole != nil || req.ClinicID != nil || req.IsActive != nil {
		role := target.Role
		if newRole != nil {
			role = *newRole
		}
		clinic := target.ClinicID
		if req.ClinicID != nil {
			clinic = req.ClinicID
		}
		syncRole := string(role)
		if req.IsActive != nil && !*req.IsActive {
			syncRole = ""
		}
		if err := authorize.SyncStaffRole(ctx, s.authz, target.ID, syncRole, clinic); err != nil {
			slog.Error("sync staff role", "user_id", target.ID, "error", err)
		}
	}

	return target, nil
}

// Delete deactivates the account. The row survives: appointments and
// visits keep their doctor reference.
func (s *userService) Delete(ctx context.Context, actor *model.User, id uint) error {
	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.CanDeleteUser(actor, id).Err(); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if target.Role == model.RoleAdmin {
			if err := s.requireAnotherAdmin(tx, target.ID); err != nil {
				return err
			}
		}
		return tx.Model(target).Update("is_active", false).Error
	})
	if err != nil {
		return err
	}

	if err := authorize.SyncStaffRole(ctx, s.authz, target.ID, "", target.ClinicID); err != nil {
		slog.Error("sync staff role", "user_id", target.ID, "error", err)
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, actor *model.User, current, next string) error {
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if err := password.Verify(actor.PasswordHash, current); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return fmt.Errorf("%w: current password is incorrect", ErrValidation)
		}
		return fmt.Errorf("verify password: %w", err)
	}
	hash, err := password.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", actor.ID).
		Update("password_hash", hash).Error
}

// TouchLastLogin stamps a successful authentication.
func TouchLastLogin(ctx context.Context, db *gorm.DB, userID uint) {
	now := time.Now()
	_ = db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", now).Error
}

// requireAnotherAdmin fails with ErrLastAdmin unless an active admin
// other than excludeID exists. Runs inside the mutating transaction so
// two concurrent demotions cannot both pass the check.
func (s *userService) requireAnotherAdmin(tx *gorm.DB, excludeID uint) error {
	var n int64
	err := tx.Model(&model.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", model.RoleAdmin, true, excludeID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (s *userService) load(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
