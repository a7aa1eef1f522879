package access

import (
	"github.com/dok75/clinic_backend/config"
	"github.com/dok75/clinic_backend/internal/model"
)

// ScopePolicy pins down the clinic boundary once at startup. In single
// mode every actor and record is treated as belonging to the configured
// clinic; in multi mode the actor's own affiliation is the boundary.
// Business logic receives this object and never re-reads configuration.
type ScopePolicy struct {
	SingleClinic bool
	ClinicID     uint
}

// NewScopePolicy resolves the scope configuration.
func NewScopePolicy(cfg config.ScopeConfig) ScopePolicy {
	if cfg.Mode == "single" {
		return ScopePolicy{SingleClinic: true, ClinicID: cfg.ClinicID}
	}
	return ScopePolicy{}
}

// ClinicOf returns the clinic an actor operates within, or nil when the
// actor is unaffiliated (admins often are).
func (p ScopePolicy) ClinicOf(actor *model.User) *uint {
	if p.SingleClinic {
		id := p.ClinicID
		return &id
	}
	return actor.ClinicID
}

// ResourceClinic maps a record's stored clinic reference through the policy.
func (p ScopePolicy) ResourceClinic(clinicID uint) uint {
	if p.SingleClinic {
		return p.ClinicID
	}
	return clinicID
}
