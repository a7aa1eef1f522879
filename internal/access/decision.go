package access

// Reason names the predicate that failed for a denied decision. Handlers
// surface it so a 403 always says which rule was violated.
type Reason string

const (
	ReasonRoleMismatch      Reason = "role_mismatch"
	ReasonOwnershipMismatch Reason = "ownership_mismatch"
	ReasonClinicScope       Reason = "clinic_scope"
	ReasonTerminalState     Reason = "terminal_state"
	ReasonSelfMutation      Reason = "self_mutation"
	ReasonLastAdmin         Reason = "last_admin"
)

// Decision is the typed outcome of an authorization predicate. Expected
// business-rule failures are values, not errors; only infrastructure
// faults surface as errors alongside a Decision.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny(" + string(d.Reason) + ")"
}
