package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// --- Job State Kind Enum ---
type StateKind string

const (
	StateKindCreated    StateKind = "Created"
	StateKindFunded     StateKind = "Funded"
	StateKindAssigned   StateKind = "Assigned"
	StateKindAccepted   StateKind = "Accepted"
	StateKindInProgress StateKind = "InProgress"
	StateKindCompleted  StateKind = "Completed"
	StateKindVerified   StateKind = "Verified"
	StateKindPaidOut    StateKind = "PaidOut"
	StateKindCancelled  StateKind = "Cancelled"
	StateKindDisputed   StateKind = "Disputed"
)

// AllStateKinds lists every kind in lifecycle order.
var AllStateKinds = []StateKind{
	StateKindCreated,
	StateKindFunded,
	StateKindAssigned,
	StateKindAccepted,
	StateKindInProgress,
	StateKindCompleted,
	StateKindVerified,
	StateKindPaidOut,
	StateKindCancelled,
	StateKindDisputed,
}

// ParseStateKind converts a stored or user-supplied string into a StateKind.
func ParseStateKind(s string) (StateKind, error) {
	k := StateKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid StateKind value: %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k StateKind) Valid() bool {
	switch k {
	case StateKindCreated, StateKindFunded, StateKindAssigned, StateKindAccepted,
		StateKindInProgress, StateKindCompleted, StateKindVerified, StateKindPaidOut,
		StateKindCancelled, StateKindDisputed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for StateKind
func (k *StateKind) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		byteVal, ok := value.([]byte)
		if ok {
			strVal = string(byteVal)
		} else {
			return fmt.Errorf("failed to scan StateKind: value is not string or []byte")
		}
	}
	v, err := ParseStateKind(strVal)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Value implements the driver.Valuer interface for StateKind
func (k StateKind) Value() (driver.Value, error) {
	return string(k), nil
}

// JobState is the current stage of a service job. AutoVerified is only
// meaningful when Kind is StateKindVerified.
type JobState struct {
	Kind         StateKind
	AutoVerified bool
}

var (
	StateCreated    = JobState{Kind: StateKindCreated}
	StateFunded     = JobState{Kind: StateKindFunded}
	StateAssigned   = JobState{Kind: StateKindAssigned}
	StateAccepted   = JobState{Kind: StateKindAccepted}
	StateInProgress = JobState{Kind: StateKindInProgress}
	StateCompleted  = JobState{Kind: StateKindCompleted}
	StatePaidOut    = JobState{Kind: StateKindPaidOut}
	StateCancelled  = JobState{Kind: StateKindCancelled}
	StateDisputed   = JobState{Kind: StateKindDisputed}
)

// Verified returns the Verified state, flagged when the review window
// elapsed without client action.
func Verified(autoVerified bool) JobState {
	return JobState{Kind: StateKindVerified, AutoVerified: autoVerified}
}

// Label returns the display string shown to users.
func (s JobState) Label() string {
	switch s.Kind {
	case StateKindCreated:
		return "Draft"
	case StateKindFunded:
		return "Funded"
	case StateKindAssigned:
		return "Assigned"
	case StateKindAccepted:
		return "Accepted"
	case StateKindInProgress:
		return "In Progress"
	case StateKindCompleted:
		return "Completed"
	case StateKindVerified:
		if s.AutoVerified {
			return "Auto-Verified"
		}
		return "Verified"
	case StateKindPaidOut:
		return "Paid Out"
	case StateKindCancelled:
		return "Cancelled"
	case StateKindDisputed:
		return "Disputed"
	default:
		return "Unknown"
	}
}

func (s JobState) String() string {
	if s.Kind == StateKindVerified {
		return fmt.Sprintf("Verified(autoVerified=%t)", s.AutoVerified)
	}
	return string(s.Kind)
}

// IsTerminal reports whether no transition leaves s.
func (s JobState) IsTerminal() bool {
	switch s.Kind {
	case StateKindPaidOut, StateKindCancelled, StateKindDisputed:
		return true
	default:
		return false
	}
}

// Validate checks that s is a well-formed member of the variant set.
func (s JobState) Validate() error {
	if !s.Kind.Valid() {
		return &InvalidFieldError{Field: "state.kind", Reason: fmt.Sprintf("unknown kind %q", s.Kind)}
	}
	if s.AutoVerified && s.Kind != StateKindVerified {
		return &InvalidFieldError{Field: "state.autoVerified", Reason: fmt.Sprintf("not allowed for kind %s", s.Kind)}
	}
	return nil
}

// jobStateDocument is the tagged record stored in document form.
type jobStateDocument struct {
	Kind         StateKind `json:"kind"`
	AutoVerified *bool     `json:"autoVerified,omitempty"`
}

// MarshalJSON encodes s as {"kind": ..., "autoVerified": ...}; autoVerified
// is present only for Verified.
func (s JobState) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	doc := jobStateDocument{Kind: s.Kind}
	if s.Kind == StateKindVerified {
		auto := s.AutoVerified
		doc.AutoVerified = &auto
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the tagged record produced by MarshalJSON.
func (s *JobState) UnmarshalJSON(data []byte) error {
	var doc jobStateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode JobState: %w", err)
	}
	decoded := JobState{Kind: doc.Kind}
	if doc.AutoVerified != nil {
		if doc.Kind != StateKindVerified {
			return &InvalidFieldError{Field: "state.autoVerified", Reason: fmt.Sprintf("not allowed for kind %s", doc.Kind)}
		}
		decoded.AutoVerified = *doc.AutoVerified
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}
