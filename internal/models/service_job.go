package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Location is where the service takes place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
}

// StateTransition is one immutable entry of a job's audit trail.
type StateTransition struct {
	From      JobState
	To        JobState
	Timestamp time.Time
	Reason    *string
}

// NewStateTransition records a change from one state to another. A zero at
// defaults to the current time.
func NewStateTransition(from, to JobState, at time.Time, reason string) StateTransition {
	if at.IsZero() {
		at = time.Now()
	}
	t := StateTransition{
		From:      from,
		To:        to,
		Timestamp: normalizeTime(at),
	}
	if reason != "" {
		t.Reason = &reason
	}
	return t
}

type stateTransitionDocument struct {
	From      JobState `json:"from"`
	To        JobState `json:"to"`
	Timestamp int64    `json:"timestamp"` // epoch millis
	Reason    *string  `json:"reason,omitempty"`
}

func (t StateTransition) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateTransitionDocument{
		From:      t.From,
		To:        t.To,
		Timestamp: t.Timestamp.UnixMilli(),
		Reason:    t.Reason,
	})
}

func (t *StateTransition) UnmarshalJSON(data []byte) error {
	var doc stateTransitionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode StateTransition: %w", err)
	}
	// A missing from/to key leaves the zero kind, which Validate rejects.
	if err := doc.From.Validate(); err != nil {
		return fmt.Errorf("invalid StateTransition.from: %w", err)
	}
	if err := doc.To.Validate(); err != nil {
		return fmt.Errorf("invalid StateTransition.to: %w", err)
	}
	*t = StateTransition{
		From:      doc.From,
		To:        doc.To,
		Timestamp: time.UnixMilli(doc.Timestamp).UTC(),
		Reason:    doc.Reason,
	}
	return nil
}

// ServiceJob is a requested service engagement between a client and a
// provider, holding its current state and the full transition history.
type ServiceJob struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"clientId"`
	ProviderID    *uuid.UUID `json:"providerId,omitempty"`
	TransactionID string     `json:"transactionId"`

	ServiceType string   `json:"serviceType"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Area        *string  `json:"area,omitempty"`
	ImageURLs   []string `json:"imageUrls"`

	EstimatedPrice float64 `json:"estimatedPrice"`
	FinalPrice     float64 `json:"finalPrice"`
	EscrowAmount   float64 `json:"escrowAmount"`

	State         JobState          `json:"state"`
	StateHistory  []StateTransition `json:"stateHistory"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	ScheduledTime *time.Time        `json:"scheduledTime,omitempty"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`

	Rating *int    `json:"rating,omitempty"`
	Review *string `json:"review,omitempty"`
}

type serviceJobDocument ServiceJob

// UnmarshalJSON rejects documents whose state is missing or unknown.
func (j *ServiceJob) UnmarshalJSON(data []byte) error {
	var doc serviceJobDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode ServiceJob: %w", err)
	}
	if err := doc.State.Validate(); err != nil {
		return fmt.Errorf("invalid ServiceJob.state: %w", err)
	}
	*j = ServiceJob(doc)
	return nil
}

// NewServiceJob returns an empty job in the Created state so it can be
// populated incrementally.
func NewServiceJob() ServiceJob {
	return ServiceJob{
		ImageURLs:    []string{},
		State:        StateCreated,
		StateHistory: []StateTransition{},
	}
}

// Clone returns a deep copy; the aggregate is copy-on-write.
func (j ServiceJob) Clone() ServiceJob {
	c := j
	if j.ProviderID != nil {
		id := *j.ProviderID
		c.ProviderID = &id
	}
	if j.Area != nil {
		area := *j.Area
		c.Area = &area
	}
	if j.ScheduledTime != nil {
		t := *j.ScheduledTime
		c.ScheduledTime = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Rating != nil {
		r := *j.Rating
		c.Rating = &r
	}
	if j.Review != nil {
		r := *j.Review
		c.Review = &r
	}
	c.ImageURLs = append(make([]string, 0, len(j.ImageURLs)), j.ImageURLs...)
	c.StateHistory = append(make([]StateTransition, 0, len(j.StateHistory)+1), j.StateHistory...)
	return c
}

// HasParticipant reports whether userID is the job's client or provider.
func (j ServiceJob) HasParticipant(userID uuid.UUID) bool {
	return j.ClientID == userID || j.IsProvider(userID)
}

// IsProvider reports whether userID is the assigned provider.
func (j ServiceJob) IsProvider(userID uuid.UUID) bool {
	return j.ProviderID != nil && *j.ProviderID == userID
}

// Validate checks field ranges that the lifecycle relies on.
func (j ServiceJob) Validate() error {
	if err := j.State.Validate(); err != nil {
		return err
	}
	if j.EstimatedPrice < 0 {
		return &InvalidFieldError{Field: "estimatedPrice", Reason: "must not be negative"}
	}
	if j.FinalPrice < 0 {
		return &InvalidFieldError{Field: "finalPrice", Reason: "must not be negative"}
	}
	if j.EscrowAmount < 0 {
		return &InvalidFieldError{Field: "escrowAmount", Reason: "must not be negative"}
	}
	if j.Location.Latitude < -90 || j.Location.Latitude > 90 {
		return &InvalidFieldError{Field: "location.latitude", Reason: "must be within [-90, 90]"}
	}
	if j.Location.Longitude < -180 || j.Location.Longitude > 180 {
		return &InvalidFieldError{Field: "location.longitude", Reason: "must be within [-180, 180]"}
	}
	if j.Rating != nil {
		if err := validateRating(*j.Rating); err != nil {
			return err
		}
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
