package authorize

import (
	"context"
	"errors"
	"strconv"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// ClaimsProvider is an interface that any claims type can implement
// to provide user identification for authorization.
type ClaimsProvider interface {
	GetUserID() uint64
}

type ctxKeyClaimsProvider struct{}

// WithClaimsProvider stores a ClaimsProvider in the context.
func WithClaimsProvider(ctx context.Context, cp ClaimsProvider) context.Context {
	return context.WithValue(ctx, ctxKeyClaimsProvider{}, cp)
}

// SubjectFromContext extracts the GroupSubject (user ID) from context.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	v := ctx.Value(ctxKeyClaimsProvider{})
	if v == nil {
		return "", ErrNoSubjectInContext
	}

	cp, ok := v.(ClaimsProvider)
	if !ok {
		return "", ErrNoSubjectInContext
	}

	userID := cp.GetUserID()
	if userID == 0 {
		return "", ErrNoSubjectInContext
	}

	return GroupSubject(strconv.FormatUint(userID, 10)), nil
}

// MustSubjectFromContext extracts the GroupSubject from context or panics.
// Use only after the auth middleware has run.
func MustSubjectFromContext(ctx context.Context) GroupSubject {
	subject, err := SubjectFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return subject
}

// UserIDFromContext extracts the user ID from context.
func UserIDFromContext(ctx context.Context) (uint64, error) {
	v := ctx.Value(ctxKeyClaimsProvider{})
	if v == nil {
		return 0, ErrNoSubjectInContext
	}

	cp, ok := v.(ClaimsProvider)
	if !ok {
		return 0, ErrNoSubjectInContext
	}

	userID := cp.GetUserID()
	if userID == 0 {
		return 0, ErrNoSubjectInContext
	}

	return userID, nil
}

// DomainFromResource determines the enforcement domain for a resource:
// the owning clinic's domain when known, sys otherwise.
func DomainFromResource(clinicID *uint) Domain {
	if clinicID != nil && *clinicID != 0 {
		return ClinicDomain(*clinicID)
	}
	return DomainSys
}
