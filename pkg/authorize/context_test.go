package authorize

import (
	"context"
	"testing"
)

// mockClaimsProvider implements ClaimsProvider for testing
type mockClaimsProvider struct {
	userID uint64
}

func (m *mockClaimsProvider) GetUserID() uint64 {
	return m.userID
}

func TestSubjectFromContext(t *testing.T) {
	tests := []struct {
		name        string
		setupCtx    func() context.Context
		wantSubject GroupSubject
		wantErr     bool
	}{
		{
			name: "valid claims provider",
			setupCtx: func() context.Context {
				cp := &mockClaimsProvider{userID: 77}
				return WithClaimsProvider(context.Background(), cp)
			},
			wantSubject: GroupSubject("77"),
			wantErr:     false,
		},
		{
			name: "no claims provider in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantSubject: "",
			wantErr:     true,
		},
		{
			name: "zero user id in claims provider",
			setupCtx: func() context.Context {
				cp := &mockClaimsProvider{userID: 0}
				return WithClaimsProvider(context.Background(), cp)
			},
			wantSubject: "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx()
			subject, err := SubjectFromContext(ctx)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if subject != tt.wantSubject {
					t.Errorf("SubjectFromContext() = %q, want %q", subject, tt.wantSubject)
				}
			}
		})
	}
}

func TestMustSubjectFromContext(t *testing.T) {
	// Test panic case
	t.Run("panics when no claims", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic but didn't get one")
			}
		}()
		MustSubjectFromContext(context.Background())
	})

	// Test success case
	t.Run("returns subject when claims exist", func(t *testing.T) {
		cp := &mockClaimsProvider{userID: 5}
		ctx := WithClaimsProvider(context.Background(), cp)

		subject := MustSubjectFromContext(ctx)
		if subject != GroupSubject("5") {
			t.Errorf("MustSubjectFromContext() = %q, want %q", subject, "5")
		}
	})
}

func TestDomainFromResource(t *testing.T) {
	clinicID := uint(9)
	zero := uint(0)

	tests := []struct {
		name       string
		clinicID   *uint
		wantDomain Domain
	}{
		{
			name:       "clinic domain when clinicID provided",
			clinicID:   &clinicID,
			wantDomain: Domain("clinic:9"),
		},
		{
			name:       "sys domain when nil",
			clinicID:   nil,
			wantDomain: DomainSys,
		},
		{
			name:       "sys domain when zero",
			clinicID:   &zero,
			wantDomain: DomainSys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DomainFromResource(tt.clinicID)
			if result != tt.wantDomain {
				t.Errorf("DomainFromResource() = %q, want %q", result, tt.wantDomain)
			}
		})
	}
}
