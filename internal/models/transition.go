package models

import (
	"fmt"
	"time"
)

// allowedTransitions is the adjacency table of the job lifecycle, keyed by
// state kind. Verified is reachable with either autoVerified flag.
var allowedTransitions = map[StateKind][]StateKind{
	StateKindCreated:    {StateKindFunded, StateKindCancelled},
	StateKindFunded:     {StateKindAssigned, StateKindCancelled},
	StateKindAssigned:   {StateKindAccepted, StateKindCancelled},
	StateKindAccepted:   {StateKindInProgress, StateKindCancelled, StateKindDisputed},
	StateKindInProgress: {StateKindCompleted, StateKindDisputed},
	StateKindCompleted:  {StateKindVerified, StateKindDisputed},
	StateKindVerified:   {StateKindPaidOut, StateKindDisputed},
	StateKindPaidOut:    {},
	StateKindCancelled:  {},
	StateKindDisputed:   {},
}

// CanTransition reports whether the table allows moving from one state to another.
func CanTransition(from, to JobState) bool {
	for _, k := range allowedTransitions[from.Kind] {
		if k == to.Kind {
			return true
		}
	}
	return false
}

// NextStates lists the kinds reachable from s.
func NextStates(s JobState) []StateKind {
	next := allowedTransitions[s.Kind]
	return append(make([]StateKind, 0, len(next)), next...)
}

// Transition moves job to target and appends the matching history entry.
// The input job is not modified; the returned job is a fresh copy.
func Transition(job ServiceJob, target JobState, reason string, at time.Time) (ServiceJob, error) {
	if err := job.State.Validate(); err != nil {
		return job, err
	}
	if err := target.Validate(); err != nil {
		return job, err
	}
	if !CanTransition(job.State, target) {
		return job, &IllegalTransitionError{From: job.State, To: target}
	}
	if target.Kind == StateKindAssigned && job.ProviderID == nil {
		return job, &InvalidFieldError{Field: "providerId", Reason: "is required to assign a job"}
	}

	entry := NewStateTransition(job.State, target, at, reason)

	next := job.Clone()
	next.State = target
	next.StateHistory = append(next.StateHistory, entry)
	next.UpdatedAt = entry.Timestamp
	if target.Kind == StateKindCompleted {
		completedAt := entry.Timestamp
		next.CompletedAt = &completedAt
	}
	return next, nil
}

// CheckHistory verifies that the history is a connected chain starting at
// Created and ending at the job's current state.
func CheckHistory(job ServiceJob) error {
	if len(job.StateHistory) == 0 {
		if job.State != StateCreated {
			return &InvalidFieldError{Field: "stateHistory", Reason: fmt.Sprintf("is empty but state is %s", job.State)}
		}
		return nil
	}
	if job.StateHistory[0].From != StateCreated {
		return &InvalidFieldError{Field: "stateHistory", Reason: fmt.Sprintf("starts from %s instead of Created", job.StateHistory[0].From)}
	}
	for i := 1; i < len(job.StateHistory); i++ {
		if job.StateHistory[i].From != job.StateHistory[i-1].To {
			return &InvalidFieldError{Field: "stateHistory", Reason: fmt.Sprintf("entry %d starts from %s but previous entry ends at %s", i, job.StateHistory[i].From, job.StateHistory[i-1].To)}
		}
	}
	last := job.StateHistory[len(job.StateHistory)-1]
	if last.To != job.State {
		return &InvalidFieldError{Field: "stateHistory", Reason: fmt.Sprintf("ends at %s but state is %s", last.To, job.State)}
	}
	return nil
}

// Rate attaches the client's rating and optional review. Ratings are only
// accepted once the work has been verified.
func Rate(job ServiceJob, rating int, review string, at time.Time) (ServiceJob, error) {
	if job.State.Kind != StateKindVerified && job.State.Kind != StateKindPaidOut {
		return job, fmt.Errorf("%w: cannot rate a job in state %s", ErrInvalidState, job.State)
	}
	if err := validateRating(rating); err != nil {
		return job, err
	}
	if at.IsZero() {
		at = time.Now()
	}
	next := job.Clone()
	next.Rating = &rating
	if review != "" {
		next.Review = &review
	} else {
		next.Review = nil
	}
	next.UpdatedAt = normalizeTime(at)
	return next, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return &InvalidFieldError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	return nil
}
